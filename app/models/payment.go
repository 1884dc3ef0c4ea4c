package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment sources. Gateway payments are verified against the external payment
// provider; transfer payments originate from a staff-approved bank transfer.
const (
	PaymentSourceGateway  = "gateway"
	PaymentSourceTransfer = "transfer"
)

// Payment records one applied plan purchase. ExternalPaymentID is the
// idempotency key: the unique index guarantees at most one row per external
// payment, which makes reconciliation safe to retry.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ExternalPaymentID string          `gorm:"type:varchar(191);not null;uniqueIndex" json:"external_payment_id"`
	TenantID          uint            `gorm:"not null;index" json:"tenant_id"`
	PlanID            uint            `gorm:"not null;index" json:"plan_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	Source            string          `gorm:"type:varchar(20);not null;default:'gateway'" json:"source"`
	AppliedAt         time.Time       `gorm:"autoCreateTime" json:"applied_at"`
}
