package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/motorhive/workshop-backend/pkg/enums"
)

// StockMovement is an immutable fact in the reservation ledger. Rows are only
// ever appended; the effective reservation for an item is derived by folding
// its movements. ReferenceID points at the work order item that caused the
// movement and deliberately carries no foreign key: movements outlive item
// deletion as history.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	PartID      uuid.UUID               `gorm:"column:part_id;type:uuid;not null;index"`
	WarehouseID uuid.UUID               `gorm:"column:warehouse_id;type:uuid;not null"`
	Type        enums.StockMovementType `gorm:"column:type;type:text;not null"`
	Quantity    int                     `gorm:"column:quantity;not null"`
	Reference   string                  `gorm:"column:reference;not null"`
	ReferenceID *uuid.UUID              `gorm:"column:reference_id;type:uuid;index"`
	UserID      *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}
