package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorhive/workshop-backend/pkg/enums"
)

// Appointment is a scheduled visit that can be converted into a work order.
type Appointment struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	ClientID    uuid.UUID               `gorm:"column:client_id;type:uuid;not null"`
	VehicleID   uuid.UUID               `gorm:"column:vehicle_id;type:uuid;not null"`
	MechanicID  *uuid.UUID              `gorm:"column:mechanic_id;type:uuid"`
	Status      enums.AppointmentStatus `gorm:"column:status;type:text;not null;default:'scheduled'"`
	ScheduledAt time.Time               `gorm:"column:scheduled_at;not null"`
	Notes       *string                 `gorm:"column:notes"`
	Items       []AppointmentItem       `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// AppointmentItem is a planned line copied onto the work order at intake.
type AppointmentItem struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	AppointmentID uuid.UUID               `gorm:"column:appointment_id;type:uuid;not null;index"`
	Type          enums.WorkOrderItemType `gorm:"column:type;type:text;not null"`
	Description   string                  `gorm:"column:description;not null"`
	Quantity      int                     `gorm:"column:quantity;not null;default:1"`
	UnitPrice     decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	ServiceID     *uuid.UUID              `gorm:"column:service_id;type:uuid"`
	PartID        *uuid.UUID              `gorm:"column:part_id;type:uuid"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
