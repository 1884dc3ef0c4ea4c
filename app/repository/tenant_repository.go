package repository

import (
	"time"

	"github.com/lubritrack/lubritrack/app/models"
	"gorm.io/gorm"
)

// tenantRepository implements the TenantRepository interface
type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create validates and creates a new tenant in the database
func (r *tenantRepository) Create(tenant *models.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	return r.db.Create(tenant).Error
}

// GetByID retrieves a tenant by its ID
func (r *tenantRepository) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetWithPlan retrieves a tenant together with its current plan, if any.
func (r *tenantRepository) GetWithPlan(id uint) (*models.Tenant, *models.Plan, error) {
	var tenant models.Tenant
	if err := r.db.Preload("Plan").First(&tenant, id).Error; err != nil {
		return nil, nil, err
	}
	return &tenant, tenant.Plan, nil
}

// Update saves tenant changes
func (r *tenantRepository) Update(tenant *models.Tenant) error {
	return r.db.Save(tenant).Error
}

// List retrieves tenants with pagination
func (r *tenantRepository) List(offset, limit int) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&tenants).Error
	return tenants, err
}

// Count returns the total number of tenants
func (r *tenantRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Count(&count).Error
	return count, err
}

// ApplyCompletion applies one completed service to the tenant's quota ledger
// as a single atomic UPDATE. The remaining counter is floored at 0 in SQL so
// concurrent completions can neither go negative nor lose a decrement.
func (r *tenantRepository) ApplyCompletion(tenantID uint) error {
	return r.db.Model(&models.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]interface{}{
			"services_used_total":      gorm.Expr("services_used_total + 1"),
			"services_used_this_month": gorm.Expr("services_used_this_month + 1"),
			"services_remaining":       gorm.Expr("CASE WHEN services_remaining IS NULL THEN NULL WHEN services_remaining > 0 THEN services_remaining - 1 ELSE 0 END"),
		}).Error
}

// ApplyTopUp applies a purchased plan to the tenant in a single atomic UPDATE.
// Service-count plans add to the remaining counter (NULL counts as zero);
// other plan types switch the plan reference and clear the counter. Trial and
// inactive accounts always come back active.
func (r *tenantRepository) ApplyTopUp(tenantID uint, plan *models.Plan) error {
	updates := map[string]interface{}{
		"plan_id":        plan.ID,
		"account_status": models.AccountStatusActive,
	}
	if plan.Type == models.PlanTypeServiceCount {
		updates["services_remaining"] = gorm.Expr("COALESCE(services_remaining, 0) + ?", plan.ServiceCount)
	} else {
		updates["services_remaining"] = gorm.Expr("NULL")
	}
	return r.db.Model(&models.Tenant{}).
		Where("id = ?", tenantID).
		Updates(updates).Error
}

// DeactivateExpiredTrials disables trial tenants whose trial window has passed.
func (r *tenantRepository) DeactivateExpiredTrials(now time.Time) (int64, error) {
	tx := r.db.Model(&models.Tenant{}).
		Where("account_status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?", models.AccountStatusTrial, now).
		Update("account_status", models.AccountStatusInactive)
	return tx.RowsAffected, tx.Error
}
