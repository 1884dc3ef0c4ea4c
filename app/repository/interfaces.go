package repository

import (
	"time"

	"github.com/lubritrack/lubritrack/app/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant and quota ledger operations.
// Counter mutations are single atomic UPDATEs so concurrent completions and
// top-ups against the same tenant can never lose an update.
type TenantRepository interface {
	Create(tenant *models.Tenant) error
	GetByID(id uint) (*models.Tenant, error)
	GetWithPlan(id uint) (*models.Tenant, *models.Plan, error)
	Update(tenant *models.Tenant) error
	List(offset, limit int) ([]models.Tenant, error)
	Count() (int64, error)

	// ApplyCompletion applies the ledger effect of one completed service:
	// total+1, month+1, and for service-count plans remaining-1 floored at 0.
	ApplyCompletion(tenantID uint) error
	// ApplyTopUp applies a purchased plan: adds the plan's service count (or
	// switches plan for monthly/unlimited plans) and reactivates the account.
	ApplyTopUp(tenantID uint, plan *models.Plan) error
	// DeactivateExpiredTrials flips trial tenants past their trial window to
	// inactive and returns how many rows changed.
	DeactivateExpiredTrials(now time.Time) (int64, error)
}

// ServiceRepository defines the interface for service record operations.
type ServiceRepository interface {
	// CreateWithTicket allocates the next ticket number for the tenant and
	// inserts the record in one tenant-locked transaction. It reports whether
	// the allocation used the degraded time-derived fallback.
	CreateWithTicket(record *models.ServiceRecord, prefix string) (degraded bool, err error)
	GetByID(id uint) (*models.ServiceRecord, error)
	GetByTicket(tenantID uint, ticketNumber string) (*models.ServiceRecord, error)
	// UpdateDetail applies detail-field corrections only while the record has
	// not been delivered. The bool reports whether the guarded update applied.
	UpdateDetail(id uint, updates map[string]interface{}) (bool, error)
	// UpdateStatusFrom advances a record only while it still is in
	// expectedStatus. The bool reports whether the guarded update applied.
	UpdateStatusFrom(id uint, expectedStatus string, updates map[string]interface{}) (bool, error)
	ListByTenant(tenantID uint, offset, limit int) ([]models.ServiceRecord, error)
	ListPendingByTenant(tenantID uint) ([]models.ServiceRecord, error)
	CountByTenant(tenantID uint) (int64, error)
	MonthlyCompletedStats(tenantID uint, months int) ([]models.MonthlyServiceStats, error)
}

// PaymentRepository defines the interface for payment and transfer operations.
type PaymentRepository interface {
	// CreateIfAbsent inserts the payment unless one with the same external
	// payment id exists. The bool reports whether this call created the row.
	CreateIfAbsent(payment *models.Payment) (bool, *models.Payment, error)
	GetByExternalID(externalPaymentID string) (*models.Payment, error)
	ListByTenant(tenantID uint) ([]models.Payment, error)

	CreateTransferRequest(req *models.TransferRequest) error
	GetTransferRequest(id uint) (*models.TransferRequest, error)
	// ReviewTransferRequest moves a pending request to approved/rejected; the
	// bool reports whether the request was still pending.
	ReviewTransferRequest(id uint, status string, reviewerID uint, at time.Time) (bool, error)
	ListPendingTransferRequests() ([]models.TransferRequest, error)
}

// PlanRepository defines the interface for plan lookups.
type PlanRepository interface {
	GetByID(id uint) (*models.Plan, error)
	GetByCode(code string) (*models.Plan, error)
	ListActive() ([]models.Plan, error)
}

// LedgerAuditRepository records degraded ledger updates for later reconciliation.
type LedgerAuditRepository interface {
	Create(entry *models.LedgerAudit) error
	ListUnresolved(limit int) ([]models.LedgerAudit, error)
	MarkResolved(id uint, at time.Time) error
}

// Repositories contains all repository instances
type Repositories struct {
	Tenant      TenantRepository
	Service     ServiceRepository
	Payment     PaymentRepository
	Plan        PlanRepository
	LedgerAudit LedgerAuditRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:      NewTenantRepository(db),
		Service:     NewServiceRepository(db),
		Payment:     NewPaymentRepository(db),
		Plan:        NewPlanRepository(db),
		LedgerAudit: NewLedgerAuditRepository(db),
	}
}
