// Package lifecycle implements the service record state machine:
// pending -> completed -> delivered, with completed also reachable directly
// at creation. Every transition into completed charges the tenant's quota
// ledger exactly once, tracked by the record's QuotaCharged flag.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/lubritrack/lubritrack/app/models"
	"github.com/lubritrack/lubritrack/app/repository"
	"github.com/lubritrack/lubritrack/internal/pkg/quota"
)

// ServiceDetail carries the client/vehicle/service fields. They are opaque to
// the state machine and may be corrected any time before delivery.
type ServiceDetail struct {
	ClientName   string `json:"client_name" validate:"max=150"`
	ClientPhone  string `json:"client_phone" validate:"max=30"`
	VehiclePlate string `json:"vehicle_plate" validate:"max=15"`
	VehicleMake  string `json:"vehicle_make" validate:"max=50"`
	VehicleModel string `json:"vehicle_model" validate:"max=50"`
	Mileage      uint   `json:"mileage"`
	OilBrand     string `json:"oil_brand" validate:"max=50"`
	OilViscosity string `json:"oil_viscosity" validate:"max=20"`
	Notes        string `json:"notes"`
}

// CreateOptions selects how a record enters the lifecycle. AsCompleted records
// the work in one step (mechanic performed it already). Precharge creates a
// pending record that consumes quota at creation instead of at completion
// (the quick-intake flow).
type CreateOptions struct {
	AsCompleted bool
	Precharge   bool
}

// Service orchestrates service record transitions and keeps the quota ledger
// synchronized with them.
type Service struct {
	tenants  repository.TenantRepository
	services repository.ServiceRepository
	audits   repository.LedgerAuditRepository
	now      func() time.Time
}

// NewService creates a lifecycle service from injected repositories.
func NewService(tenants repository.TenantRepository, services repository.ServiceRepository, audits repository.LedgerAuditRepository) *Service {
	return &Service{
		tenants:  tenants,
		services: services,
		audits:   audits,
		now:      time.Now,
	}
}

// Create allocates a ticket number and inserts a new service record, after
// checking the tenant's quota. The ticket allocation and the insert run in one
// tenant-locked transaction, so concurrent creates cannot duplicate numbers.
func (s *Service) Create(ctx context.Context, tenantID, createdBy uint, detail ServiceDetail, opts CreateOptions) (*models.ServiceRecord, error) {
	_ = ctx
	tenant, plan, err := s.tenants.GetWithPlan(tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant %d: %w", tenantID, err)
	}

	avail := quota.Check(tenant, plan, s.now())
	if !avail.Allowed {
		if avail.Reason == quota.ReasonTenantInactive {
			return nil, ErrTenantInactive
		}
		return nil, &QuotaError{Availability: avail}
	}

	record := &models.ServiceRecord{
		TenantID:        tenantID,
		Status:          models.ServiceStatusPending,
		CreatedByUserID: createdBy,
	}
	applyDetail(record, detail)

	if opts.AsCompleted {
		now := s.now()
		record.Status = models.ServiceStatusCompleted
		record.CompletedAt = &now
		record.CompletedByUserID = &createdBy
		record.QuotaCharged = true
	} else if opts.Precharge {
		record.QuotaCharged = true
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("validate service record: %w", err)
	}

	degraded, err := s.services.CreateWithTicket(record, tenant.TicketPrefix)
	if err != nil {
		return nil, fmt.Errorf("create service for tenant %d: %w", tenantID, err)
	}
	if degraded {
		fiberlog.Warnf("degraded ticket allocation: tenant=%d prefix=%s ticket=%s", tenantID, tenant.TicketPrefix, record.TicketNumber)
	}

	// The record is durably written and customer-visible from here on. A
	// failed ledger update must not roll it back; it is captured for
	// reconciliation instead.
	if record.QuotaCharged {
		s.chargeQuota(tenantID, record.ID)
	}
	return record, nil
}

// Complete moves a pending record to completed, merging the provided service
// detail. It charges the quota ledger only if the record was not already
// charged at creation.
func (s *Service) Complete(ctx context.Context, serviceID, completedBy uint, detail ServiceDetail) (*models.ServiceRecord, error) {
	_ = ctx
	record, err := s.services.GetByID(serviceID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.ServiceStatusPending {
		return nil, fmt.Errorf("complete from %s: %w", record.Status, ErrInvalidStateTransition)
	}

	now := s.now()
	updates := detailUpdates(detail)
	updates["status"] = models.ServiceStatusCompleted
	updates["completed_at"] = now
	updates["completed_by_user_id"] = completedBy

	charge := !record.QuotaCharged
	if charge {
		updates["quota_charged"] = true
	}

	ok, err := s.services.UpdateStatusFrom(serviceID, models.ServiceStatusPending, updates)
	if err != nil {
		return nil, fmt.Errorf("complete service %d: %w", serviceID, err)
	}
	if !ok {
		// A concurrent caller won the transition.
		return nil, fmt.Errorf("complete service %d: %w", serviceID, ErrInvalidStateTransition)
	}

	if charge {
		s.chargeQuota(record.TenantID, serviceID)
	}
	return s.services.GetByID(serviceID)
}

// Deliver moves a completed record to delivered. Terminal; no quota effect.
func (s *Service) Deliver(ctx context.Context, serviceID, deliveredBy uint) (*models.ServiceRecord, error) {
	_ = ctx
	record, err := s.services.GetByID(serviceID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.ServiceStatusCompleted {
		return nil, fmt.Errorf("deliver from %s: %w", record.Status, ErrInvalidStateTransition)
	}

	now := s.now()
	ok, err := s.services.UpdateStatusFrom(serviceID, models.ServiceStatusCompleted, map[string]interface{}{
		"status":               models.ServiceStatusDelivered,
		"delivered_at":         now,
		"delivered_by_user_id": deliveredBy,
	})
	if err != nil {
		return nil, fmt.Errorf("deliver service %d: %w", serviceID, err)
	}
	if !ok {
		return nil, fmt.Errorf("deliver service %d: %w", serviceID, ErrInvalidStateTransition)
	}
	return s.services.GetByID(serviceID)
}

// UpdateDetail corrects the free-form fields of a record without touching its
// state, timestamps or counters. Forbidden once delivered.
func (s *Service) UpdateDetail(ctx context.Context, serviceID uint, detail ServiceDetail) (*models.ServiceRecord, error) {
	_ = ctx
	record, err := s.services.GetByID(serviceID)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, fmt.Errorf("edit delivered record: %w", ErrInvalidStateTransition)
	}

	updates := detailUpdates(detail)
	if len(updates) == 0 {
		return record, nil
	}
	ok, err := s.services.UpdateDetail(serviceID, updates)
	if err != nil {
		return nil, fmt.Errorf("update service %d: %w", serviceID, err)
	}
	if !ok {
		// Delivered concurrently since the read above.
		return nil, fmt.Errorf("edit delivered record: %w", ErrInvalidStateTransition)
	}
	return s.services.GetByID(serviceID)
}

// QuotaStatus reports whether the tenant may record one more service.
func (s *Service) QuotaStatus(ctx context.Context, tenantID uint) (quota.Availability, error) {
	_ = ctx
	tenant, plan, err := s.tenants.GetWithPlan(tenantID)
	if err != nil {
		return quota.Availability{}, fmt.Errorf("load tenant %d: %w", tenantID, err)
	}
	return quota.Check(tenant, plan, s.now()), nil
}

// chargeQuota applies one completed service to the tenant's ledger. Failures
// never propagate: the service record is the customer-visible source of truth
// and losing a counter update is preferable to losing a rendered service. The
// miss is logged and durably recorded for reconciliation.
func (s *Service) chargeQuota(tenantID, serviceID uint) {
	err := s.tenants.ApplyCompletion(tenantID)
	if err == nil {
		return
	}

	fiberlog.Errorf("ledger update degraded: tenant=%d service=%d delta=-1: %v", tenantID, serviceID, err)
	entry := &models.LedgerAudit{
		TenantID:        tenantID,
		ServiceRecordID: &serviceID,
		Delta:           -1,
		Reason:          fmt.Sprintf("apply completion failed: %v", err),
	}
	if auditErr := s.audits.Create(entry); auditErr != nil {
		fiberlog.Errorf("ledger audit write failed: tenant=%d service=%d: %v", tenantID, serviceID, auditErr)
	}
}

func applyDetail(record *models.ServiceRecord, detail ServiceDetail) {
	if detail.ClientName != "" {
		record.ClientName = detail.ClientName
	}
	if detail.ClientPhone != "" {
		record.ClientPhone = detail.ClientPhone
	}
	if detail.VehiclePlate != "" {
		record.VehiclePlate = detail.VehiclePlate
	}
	if detail.VehicleMake != "" {
		record.VehicleMake = detail.VehicleMake
	}
	if detail.VehicleModel != "" {
		record.VehicleModel = detail.VehicleModel
	}
	if detail.Mileage > 0 {
		record.Mileage = detail.Mileage
	}
	if detail.OilBrand != "" {
		record.OilBrand = detail.OilBrand
	}
	if detail.OilViscosity != "" {
		record.OilViscosity = detail.OilViscosity
	}
	if detail.Notes != "" {
		record.Notes = detail.Notes
	}
}

func detailUpdates(detail ServiceDetail) map[string]interface{} {
	updates := map[string]interface{}{}
	if detail.ClientName != "" {
		updates["client_name"] = detail.ClientName
	}
	if detail.ClientPhone != "" {
		updates["client_phone"] = detail.ClientPhone
	}
	if detail.VehiclePlate != "" {
		updates["vehicle_plate"] = detail.VehiclePlate
	}
	if detail.VehicleMake != "" {
		updates["vehicle_make"] = detail.VehicleMake
	}
	if detail.VehicleModel != "" {
		updates["vehicle_model"] = detail.VehicleModel
	}
	if detail.Mileage > 0 {
		updates["mileage"] = detail.Mileage
	}
	if detail.OilBrand != "" {
		updates["oil_brand"] = detail.OilBrand
	}
	if detail.OilViscosity != "" {
		updates["oil_viscosity"] = detail.OilViscosity
	}
	if detail.Notes != "" {
		updates["notes"] = detail.Notes
	}
	return updates
}
