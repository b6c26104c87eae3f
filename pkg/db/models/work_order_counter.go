package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrderCounter holds the per-tenant monotonic order number. The next
// number is claimed with a single conditional upsert inside the order
// creation transaction so concurrent intakes never collide.
type WorkOrderCounter struct {
	TenantID   uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	LastNumber int64     `gorm:"column:last_number;not null;default:0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
