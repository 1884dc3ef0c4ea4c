package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Account status values for a tenant (lubricentro).
const (
	AccountStatusTrial    = "trial"
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

// TrialServiceLimit is the number of services a trial tenant may complete per month.
const TrialServiceLimit = 10

// Tenant is an onboarded lubricentro. It embeds the quota ledger counters that
// govern how many more services the shop may record under its current plan.
// Tenants are never deleted, only deactivated.
type Tenant struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	DisplayName           string     `gorm:"type:varchar(150);not null" json:"display_name" validate:"required,min=2,max=150"`
	TicketPrefix          string     `gorm:"type:varchar(5);not null" json:"ticket_prefix" validate:"required,alpha,uppercase,min=2,max=5"`
	AccountStatus         string     `gorm:"type:varchar(20);not null;default:'trial';index" json:"account_status" validate:"oneof=trial active inactive"`
	PlanID                *uint      `gorm:"index" json:"plan_id,omitempty"`
	Plan                  *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	TrialEndsAt           *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	ServicesUsedTotal     uint       `gorm:"not null;default:0" json:"services_used_total"`
	ServicesUsedThisMonth uint       `gorm:"not null;default:0" json:"services_used_this_month"`
	// ServicesRemaining is only meaningful for service-count plans; NULL for
	// trial, monthly and unlimited plans, which use usage-based checks instead.
	ServicesRemaining *int      `gorm:"default:null" json:"services_remaining,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// IsInactive reports whether the account is disabled for any quota-consuming action.
func (t *Tenant) IsInactive() bool {
	return t.AccountStatus == AccountStatusInactive
}

// TrialExpired reports whether a trial tenant is past its trial window.
func (t *Tenant) TrialExpired(now time.Time) bool {
	return t.AccountStatus == AccountStatusTrial && t.TrialEndsAt != nil && !now.Before(*t.TrialEndsAt)
}
