package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkLog is a mechanic-authored record of hours worked on a described task.
// The count of work logs gates the transition to completed.
type WorkLog struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	WorkOrderID uuid.UUID       `gorm:"column:work_order_id;type:uuid;not null;index"`
	MechanicID  uuid.UUID       `gorm:"column:mechanic_id;type:uuid;not null"`
	Description string          `gorm:"column:description;not null"`
	HoursWorked decimal.Decimal `gorm:"column:hours_worked;type:numeric(6,2);not null"`
	LogDate     time.Time       `gorm:"column:log_date;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
