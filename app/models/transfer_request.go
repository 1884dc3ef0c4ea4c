package models

import "time"

// Transfer request states.
const (
	TransferStatusPending  = "pending"
	TransferStatusApproved = "approved"
	TransferStatusRejected = "rejected"
)

// TransferRequest is the manual/offline payment path: a tenant reports a bank
// transfer for a plan, staff review it, and an approval feeds the same
// reconciliation contract as gateway payments using "transfer:<reference>"
// as the external payment id.
type TransferRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Reference        string     `gorm:"type:char(36);not null;uniqueIndex" json:"reference"`
	TenantID         uint       `gorm:"not null;index" json:"tenant_id"`
	PlanID           uint       `gorm:"not null" json:"plan_id"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedByUserID *uint      `gorm:"default:null" json:"reviewed_by_user_id,omitempty"`
	ReviewedAt       *time.Time `gorm:"type:timestamp;default:null" json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ExternalPaymentID returns the idempotency key used when an approved
// transfer is applied through payment reconciliation.
func (t *TransferRequest) ExternalPaymentID() string {
	return "transfer:" + t.Reference
}
