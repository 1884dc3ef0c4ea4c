package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan types supported by the quota ledger.
const (
	PlanTypeTrial        = "trial"
	PlanTypeServiceCount = "service_count"
	PlanTypeMonthly      = "monthly"
	PlanTypeUnlimited    = "unlimited"
)

// Plan defines a purchasable subscription plan. Service-count plans grant a
// fixed number of services; monthly plans cap services per calendar month.
type Plan struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	Type string `gorm:"type:varchar(20);not null;index" json:"type" validate:"oneof=trial service_count monthly unlimited"`
	// ServiceCount is the number of services granted per purchase (service_count plans).
	ServiceCount int `gorm:"not null;default:0" json:"service_count"`
	// MonthlyCap is the per-month service ceiling (monthly plans).
	MonthlyCap int             `gorm:"not null;default:0" json:"monthly_cap"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	IsActive   bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCapped reports whether the plan enforces any service limit at all.
func (p *Plan) IsCapped() bool {
	return p.Type != PlanTypeUnlimited
}
