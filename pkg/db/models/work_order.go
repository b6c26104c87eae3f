package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorhive/workshop-backend/pkg/enums"
)

// WorkOrder is a single repair job tracked from intake to delivery.
//
// TotalLabor, TotalParts and TotalAmount are derived from the items and are
// recomputed on every item mutation; they are never written directly except
// to zero at creation.
type WorkOrder struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderNumber   int64                 `gorm:"column:order_number;not null"`
	Status        enums.WorkOrderStatus `gorm:"column:status;type:text;not null;default:'new'"`
	ClientID      uuid.UUID             `gorm:"column:client_id;type:uuid;not null"`
	VehicleID     uuid.UUID             `gorm:"column:vehicle_id;type:uuid;not null"`
	AdvisorID     *uuid.UUID            `gorm:"column:advisor_id;type:uuid"`
	MechanicID    *uuid.UUID            `gorm:"column:mechanic_id;type:uuid"`
	AppointmentID *uuid.UUID            `gorm:"column:appointment_id;type:uuid"`
	Complaints    *string               `gorm:"column:complaints"`
	Mileage       *int                  `gorm:"column:mileage"`
	FuelLevel     *string               `gorm:"column:fuel_level"`
	TotalLabor    decimal.Decimal       `gorm:"column:total_labor;type:numeric(12,2);not null"`
	TotalParts    decimal.Decimal       `gorm:"column:total_parts;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	FollowUpAt    *time.Time            `gorm:"column:follow_up_at"`
	Items         []WorkOrderItem       `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	WorkLogs      []WorkLog             `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	Activities    []WorkOrderActivity   `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// FormattedNumber renders the tenant-scoped order number as displayed to users.
func (w WorkOrder) FormattedNumber() string {
	return fmt.Sprintf("WO-%05d", w.OrderNumber)
}
