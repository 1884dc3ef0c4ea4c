package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Service record lifecycle states. Transitions only move forward:
// pending -> completed -> delivered. A record may also be created directly
// as completed when the mechanic performs and records the work in one step.
const (
	ServiceStatusPending   = "pending"
	ServiceStatusCompleted = "completed"
	ServiceStatusDelivered = "delivered"
)

// ServiceRecord is one oil-change service tracked through its lifecycle.
// TicketNumber is unique per tenant and strictly increasing in its numeric
// suffix for the tenant's prefix.
type ServiceRecord struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	TenantID     uint   `gorm:"not null;index:ux_service_records_tenant_ticket,unique,priority:1" json:"tenant_id"`
	TicketNumber string `gorm:"type:varchar(20);not null;index:ux_service_records_tenant_ticket,unique,priority:2" json:"ticket_number"`
	Status       string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending completed delivered"`
	// QuotaCharged marks that this record has already consumed one unit of the
	// tenant's quota. Set at creation for direct-complete and precharged
	// records, otherwise set by the complete transition. Consulted exactly
	// once so no code path can charge the same record twice.
	QuotaCharged bool `gorm:"not null;default:false" json:"quota_charged"`

	CreatedByUserID   uint  `gorm:"not null" json:"created_by_user_id"`
	CompletedByUserID *uint `gorm:"default:null" json:"completed_by_user_id,omitempty"`
	DeliveredByUserID *uint `gorm:"default:null" json:"delivered_by_user_id,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	DeliveredAt *time.Time `gorm:"type:timestamp;default:null" json:"delivered_at,omitempty"`

	// Client / vehicle / service detail. Opaque to the lifecycle machinery and
	// carried through unchanged; may be corrected any time before delivery.
	ClientName   string `gorm:"type:varchar(150);not null;default:''" json:"client_name" validate:"max=150"`
	ClientPhone  string `gorm:"type:varchar(30);not null;default:''" json:"client_phone" validate:"max=30"`
	VehiclePlate string `gorm:"type:varchar(15);not null;default:'';index" json:"vehicle_plate" validate:"max=15"`
	VehicleMake  string `gorm:"type:varchar(50);not null;default:''" json:"vehicle_make" validate:"max=50"`
	VehicleModel string `gorm:"type:varchar(50);not null;default:''" json:"vehicle_model" validate:"max=50"`
	Mileage      uint   `gorm:"not null;default:0" json:"mileage"`
	OilBrand     string `gorm:"type:varchar(50);not null;default:''" json:"oil_brand" validate:"max=50"`
	OilViscosity string `gorm:"type:varchar(20);not null;default:''" json:"oil_viscosity" validate:"max=20"`
	Notes        string `gorm:"type:text" json:"notes"`

	// LookupCount tracks how often the ticket was looked up (reprints, status
	// checks). Buffered in Redis and flushed in batches; may lag reality.
	LookupCount uint64 `gorm:"not null;default:0" json:"lookup_count"`
}

func (s *ServiceRecord) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// IsTerminal reports whether the record reached its final state.
func (s *ServiceRecord) IsTerminal() bool {
	return s.Status == ServiceStatusDelivered
}
