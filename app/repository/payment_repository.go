package repository

import (
	"time"

	"github.com/lubritrack/lubritrack/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateIfAbsent inserts the payment unless the external payment id was seen
// before. The conflict target is the unique index on external_payment_id, so
// concurrent reconciliation attempts for the same id resolve to exactly one
// created row; every other caller observes created=false.
func (r *paymentRepository) CreateIfAbsent(payment *models.Payment) (bool, *models.Payment, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_payment_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Payment
	if err := r.db.Where("external_payment_id = ?", payment.ExternalPaymentID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// GetByExternalID retrieves a payment by its external payment id
func (r *paymentRepository) GetByExternalID(externalPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("external_payment_id = ?", externalPaymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByTenant retrieves a tenant's applied payments, newest first
func (r *paymentRepository) ListByTenant(tenantID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("tenant_id = ?", tenantID).Order("applied_at DESC").Find(&payments).Error
	return payments, err
}

// CreateTransferRequest stores a new bank-transfer request
func (r *paymentRepository) CreateTransferRequest(req *models.TransferRequest) error {
	return r.db.Create(req).Error
}

// GetTransferRequest retrieves a transfer request by ID
func (r *paymentRepository) GetTransferRequest(id uint) (*models.TransferRequest, error) {
	var req models.TransferRequest
	err := r.db.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ReviewTransferRequest moves a pending request to the given status. The
// pending guard is part of the UPDATE, so two staff members reviewing the
// same request concurrently resolve to a single effective review.
func (r *paymentRepository) ReviewTransferRequest(id uint, status string, reviewerID uint, at time.Time) (bool, error) {
	tx := r.db.Model(&models.TransferRequest{}).
		Where("id = ? AND status = ?", id, models.TransferStatusPending).
		Updates(map[string]interface{}{
			"status":              status,
			"reviewed_by_user_id": reviewerID,
			"reviewed_at":         at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListPendingTransferRequests retrieves transfer requests awaiting review
func (r *paymentRepository) ListPendingTransferRequests() ([]models.TransferRequest, error) {
	var reqs []models.TransferRequest
	err := r.db.Where("status = ?", models.TransferStatusPending).Order("created_at ASC").Find(&reqs).Error
	return reqs, err
}
