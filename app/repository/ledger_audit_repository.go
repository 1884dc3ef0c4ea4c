package repository

import (
	"time"

	"github.com/lubritrack/lubritrack/app/models"
	"gorm.io/gorm"
)

// ledgerAuditRepository implements the LedgerAuditRepository interface
type ledgerAuditRepository struct {
	db *gorm.DB
}

// NewLedgerAuditRepository creates a new ledger audit repository instance
func NewLedgerAuditRepository(db *gorm.DB) LedgerAuditRepository {
	return &ledgerAuditRepository{db: db}
}

// Create stores a degraded ledger update for later reconciliation
func (r *ledgerAuditRepository) Create(entry *models.LedgerAudit) error {
	return r.db.Create(entry).Error
}

// ListUnresolved retrieves audit entries that still need reconciliation
func (r *ledgerAuditRepository) ListUnresolved(limit int) ([]models.LedgerAudit, error) {
	var entries []models.LedgerAudit
	err := r.db.Where("resolved_at IS NULL").Order("created_at ASC").Limit(limit).Find(&entries).Error
	return entries, err
}

// MarkResolved closes an audit entry after its delta has been replayed
func (r *ledgerAuditRepository) MarkResolved(id uint, at time.Time) error {
	return r.db.Model(&models.LedgerAudit{}).Where("id = ?", id).Update("resolved_at", at).Error
}
