package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrderItemMechanic apportions credit for one labor item to one mechanic.
//
// For any item with at least one assignment the contribution percents sum to
// exactly 100. Position preserves insertion order so redistribution stays
// deterministic.
type WorkOrderItemMechanic struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID            uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	WorkOrderItemID     uuid.UUID `gorm:"column:work_order_item_id;type:uuid;not null;index"`
	MechanicID          uuid.UUID `gorm:"column:mechanic_id;type:uuid;not null"`
	ContributionPercent int       `gorm:"column:contribution_percent;not null"`
	Position            int       `gorm:"column:position;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
