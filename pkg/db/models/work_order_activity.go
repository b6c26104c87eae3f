package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/motorhive/workshop-backend/pkg/enums"
)

// WorkOrderActivity is one append-only entry in a work order's audit trail.
type WorkOrderActivity struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID                   `gorm:"column:tenant_id;type:uuid;not null;index"`
	WorkOrderID uuid.UUID                   `gorm:"column:work_order_id;type:uuid;not null;index"`
	Type        enums.WorkOrderActivityType `gorm:"column:type;type:text;not null"`
	Description string                      `gorm:"column:description;not null"`
	Metadata    json.RawMessage             `gorm:"column:metadata;type:jsonb"`
	UserID      *uuid.UUID                  `gorm:"column:user_id;type:uuid"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
