package quota

import (
	"testing"
	"time"

	"github.com/lubritrack/lubritrack/app/models"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestCheckInactiveTenant(t *testing.T) {
	tenant := &models.Tenant{AccountStatus: models.AccountStatusInactive, ServicesRemaining: intPtr(50)}
	plan := &models.Plan{Type: models.PlanTypeServiceCount}

	got := Check(tenant, plan, time.Now())
	if got.Allowed {
		t.Fatalf("inactive tenant must never be allowed, got %+v", got)
	}
	if got.Reason != ReasonTenantInactive {
		t.Fatalf("reason = %q, want %q", got.Reason, ReasonTenantInactive)
	}
}

func TestCheckTrial(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	future := timePtr(now.Add(72 * time.Hour))
	past := timePtr(now.Add(-time.Hour))

	tests := []struct {
		name          string
		usedThisMonth uint
		trialEndsAt   *time.Time
		allowed       bool
		remaining     int
		reason        string
	}{
		{name: "fresh trial", usedThisMonth: 0, trialEndsAt: future, allowed: true, remaining: 10},
		{name: "one left", usedThisMonth: 9, trialEndsAt: future, allowed: true, remaining: 1},
		{name: "limit reached", usedThisMonth: 10, trialEndsAt: future, allowed: false, reason: ReasonTrialLimit},
		{name: "expired", usedThisMonth: 0, trialEndsAt: past, allowed: false, reason: ReasonTrialExpired},
	}

	for _, tt := range tests {
		tenant := &models.Tenant{
			AccountStatus:         models.AccountStatusTrial,
			ServicesUsedThisMonth: tt.usedThisMonth,
			TrialEndsAt:           tt.trialEndsAt,
		}
		got := Check(tenant, nil, now)
		if got.Allowed != tt.allowed || got.Reason != tt.reason {
			t.Fatalf("%s: got %+v, want allowed=%v reason=%q", tt.name, got, tt.allowed, tt.reason)
		}
		if tt.allowed && got.Remaining != tt.remaining {
			t.Fatalf("%s: remaining = %d, want %d", tt.name, got.Remaining, tt.remaining)
		}
	}
}

func TestCheckServiceCountPlan(t *testing.T) {
	plan := &models.Plan{Type: models.PlanTypeServiceCount, ServiceCount: 20}

	tests := []struct {
		name      string
		remaining *int
		allowed   bool
	}{
		{name: "has remaining", remaining: intPtr(5), allowed: true},
		{name: "zero remaining", remaining: intPtr(0), allowed: false},
		{name: "nil counter", remaining: nil, allowed: false},
	}

	for _, tt := range tests {
		tenant := &models.Tenant{AccountStatus: models.AccountStatusActive, ServicesRemaining: tt.remaining}
		got := Check(tenant, plan, time.Now())
		if got.Allowed != tt.allowed {
			t.Fatalf("%s: allowed = %v, want %v", tt.name, got.Allowed, tt.allowed)
		}
		if !tt.allowed && got.Reason != ReasonNoRemaining {
			t.Fatalf("%s: reason = %q, want %q", tt.name, got.Reason, ReasonNoRemaining)
		}
	}
}

func TestCheckMonthlyPlan(t *testing.T) {
	plan := &models.Plan{Type: models.PlanTypeMonthly, MonthlyCap: 100}

	tenant := &models.Tenant{AccountStatus: models.AccountStatusActive, ServicesUsedThisMonth: 99}
	got := Check(tenant, plan, time.Now())
	if !got.Allowed || got.Remaining != 1 {
		t.Fatalf("expected one service left, got %+v", got)
	}

	tenant.ServicesUsedThisMonth = 100
	got = Check(tenant, plan, time.Now())
	if got.Allowed || got.Reason != ReasonMonthlyCap {
		t.Fatalf("expected monthly cap denial, got %+v", got)
	}
}

func TestCheckUnlimitedPlan(t *testing.T) {
	plan := &models.Plan{Type: models.PlanTypeUnlimited}
	tenant := &models.Tenant{AccountStatus: models.AccountStatusActive, ServicesUsedThisMonth: 100000}

	got := Check(tenant, plan, time.Now())
	if !got.Allowed || got.Remaining != UnlimitedRemaining {
		t.Fatalf("unlimited plan must always allow, got %+v", got)
	}
}

func TestCheckActiveWithoutPlan(t *testing.T) {
	tenant := &models.Tenant{AccountStatus: models.AccountStatusActive}

	got := Check(tenant, nil, time.Now())
	if got.Allowed || got.Reason != ReasonNoPlanAssigned {
		t.Fatalf("active tenant without plan must be denied, got %+v", got)
	}
}
