// Package quota answers "can this tenant record one more completed service?"
// for every plan type. The decision is pure; the counter mutations live in the
// tenant repository as single atomic UPDATEs so concurrent completions cannot
// lose a decrement.
package quota

import (
	"time"

	"github.com/lubritrack/lubritrack/app/models"
)

// UnlimitedRemaining is reported for plans without a fixed remaining count.
const UnlimitedRemaining = -1

// Denial reasons surfaced to the calling layer so it can direct the tenant
// toward a renewal action. These are stable API values, not display strings.
const (
	ReasonTenantInactive = "tenant_inactive"
	ReasonTrialExpired   = "trial_expired"
	ReasonTrialLimit     = "trial_limit_reached"
	ReasonNoRemaining    = "no_services_remaining"
	ReasonMonthlyCap     = "monthly_cap_reached"
	ReasonNoPlanAssigned = "no_plan_assigned"
)

// Availability is the result of a quota check.
type Availability struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}

// Check evaluates whether the tenant may record one more completed service.
// Inactive tenants are never allowed regardless of counters.
func Check(tenant *models.Tenant, plan *models.Plan, now time.Time) Availability {
	if tenant.IsInactive() {
		return Availability{Allowed: false, Remaining: 0, Reason: ReasonTenantInactive}
	}

	if tenant.AccountStatus == models.AccountStatusTrial {
		return checkTrial(tenant, now)
	}

	if plan == nil {
		return Availability{Allowed: false, Remaining: 0, Reason: ReasonNoPlanAssigned}
	}
	if !plan.IsCapped() {
		return Availability{Allowed: true, Remaining: UnlimitedRemaining}
	}

	switch plan.Type {
	case models.PlanTypeServiceCount:
		remaining := 0
		if tenant.ServicesRemaining != nil {
			remaining = *tenant.ServicesRemaining
		}
		if remaining <= 0 {
			return Availability{Allowed: false, Remaining: 0, Reason: ReasonNoRemaining}
		}
		return Availability{Allowed: true, Remaining: remaining}
	case models.PlanTypeMonthly:
		left := plan.MonthlyCap - int(tenant.ServicesUsedThisMonth)
		if left <= 0 {
			return Availability{Allowed: false, Remaining: 0, Reason: ReasonMonthlyCap}
		}
		return Availability{Allowed: true, Remaining: left}
	case models.PlanTypeTrial:
		return checkTrial(tenant, now)
	default:
		return Availability{Allowed: false, Remaining: 0, Reason: ReasonNoPlanAssigned}
	}
}

func checkTrial(tenant *models.Tenant, now time.Time) Availability {
	if tenant.TrialExpired(now) {
		return Availability{Allowed: false, Remaining: 0, Reason: ReasonTrialExpired}
	}
	left := models.TrialServiceLimit - int(tenant.ServicesUsedThisMonth)
	if left <= 0 {
		return Availability{Allowed: false, Remaining: 0, Reason: ReasonTrialLimit}
	}
	return Availability{Allowed: true, Remaining: left}
}
