package repository

import (
	"time"

	"github.com/lubritrack/lubritrack/app/models"
	"github.com/lubritrack/lubritrack/internal/pkg/ticket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// serviceRepository implements the ServiceRepository interface
type serviceRepository struct {
	db *gorm.DB
}

// NewServiceRepository creates a new service record repository instance
func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

// CreateWithTicket allocates the next ticket number and inserts the record in
// one transaction. The tenant row is locked FOR UPDATE first, which serializes
// allocation per tenant: two concurrent creates for the same tenant cannot
// read the same max suffix. Different tenants never contend on the lock.
func (r *serviceRepository) CreateWithTicket(record *models.ServiceRecord, prefix string) (bool, error) {
	degraded := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&tenant, record.TenantID).Error; err != nil {
			return err
		}

		var existing []string
		if err := tx.Model(&models.ServiceRecord{}).
			Where("tenant_id = ? AND ticket_number LIKE ?", record.TenantID, prefix+"-%").
			Pluck("ticket_number", &existing).Error; err != nil {
			return err
		}

		record.TicketNumber, degraded = ticket.Next(existing, prefix, time.Now())
		return tx.Create(record).Error
	})
	return degraded, err
}

// GetByID retrieves a service record by its ID
func (r *serviceRepository) GetByID(id uint) (*models.ServiceRecord, error) {
	var record models.ServiceRecord
	err := r.db.First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByTicket retrieves a service record by tenant and ticket number
func (r *serviceRepository) GetByTicket(tenantID uint, ticketNumber string) (*models.ServiceRecord, error) {
	var record models.ServiceRecord
	err := r.db.Where("tenant_id = ? AND ticket_number = ?", tenantID, ticketNumber).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateDetail applies detail-field corrections only while the record has not
// been delivered. The guard runs inside the UPDATE and the column set is
// limited to the passed updates, so a correction racing a concurrent
// transition can never write stale status or counter columns back.
func (r *serviceRepository) UpdateDetail(id uint, updates map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.ServiceRecord{}).
		Where("id = ? AND status <> ?", id, models.ServiceStatusDelivered).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// UpdateStatusFrom applies updates only while the record still is in
// expectedStatus. The guard runs inside the UPDATE itself, so a stale caller
// racing a concurrent transition simply matches zero rows.
func (r *serviceRepository) UpdateStatusFrom(id uint, expectedStatus string, updates map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.ServiceRecord{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListByTenant retrieves a tenant's service records with pagination
func (r *serviceRepository) ListByTenant(tenantID uint, offset, limit int) ([]models.ServiceRecord, error) {
	var records []models.ServiceRecord
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error
	return records, err
}

// ListPendingByTenant retrieves the mechanic work queue for a tenant
func (r *serviceRepository) ListPendingByTenant(tenantID uint) ([]models.ServiceRecord, error) {
	var records []models.ServiceRecord
	err := r.db.Where("tenant_id = ? AND status = ?", tenantID, models.ServiceStatusPending).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// CountByTenant returns the number of service records for a tenant
func (r *serviceRepository) CountByTenant(tenantID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ServiceRecord{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// MonthlyCompletedStats returns completed-service counts per month for the
// last N months, newest first.
func (r *serviceRepository) MonthlyCompletedStats(tenantID uint, months int) ([]models.MonthlyServiceStats, error) {
	var stats []models.MonthlyServiceStats
	err := r.db.Model(&models.ServiceRecord{}).
		Select("DATE_FORMAT(completed_at, '%Y-%m') AS month, COUNT(*) AS completed").
		Where("tenant_id = ? AND completed_at IS NOT NULL AND completed_at >= ?",
			tenantID, time.Now().AddDate(0, -months, 0)).
		Group("month").
		Order("month DESC").
		Scan(&stats).Error
	return stats, err
}
