package models

import "time"

// LedgerAudit is the durable record of a degraded ledger update: the service
// record (or payment) write succeeded but the quota counter update failed or
// could not be confirmed. A reconciliation job can replay the intended delta
// later; the customer-visible record is never rolled back.
type LedgerAudit struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TenantID        uint       `gorm:"not null;index" json:"tenant_id"`
	ServiceRecordID *uint      `gorm:"default:null;index" json:"service_record_id,omitempty"`
	// Delta is the intended change to the tenant's remaining-services counter:
	// -1 for a lost completion charge, +N for a lost plan top-up.
	Delta      int        `gorm:"not null" json:"delta"`
	Reason     string     `gorm:"type:varchar(255);not null" json:"reason"`
	ResolvedAt *time.Time `gorm:"type:timestamp;default:null;index" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
