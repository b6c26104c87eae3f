package models

import (
	"time"

	"github.com/google/uuid"
)

// WarehouseStock tracks quantity/reserved counts for one part in one
// warehouse. The columns are mutated only through the warehouse collaborator's
// AddMovement contract so they stay consistent with the movement ledger.
type WarehouseStock struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	WarehouseID uuid.UUID `gorm:"column:warehouse_id;type:uuid;not null;index:idx_warehouse_stocks_part,unique"`
	PartID      uuid.UUID `gorm:"column:part_id;type:uuid;not null;index:idx_warehouse_stocks_part,unique"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	Reserved    int       `gorm:"column:reserved;not null;default:0"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns how many units can still be reserved.
func (w WarehouseStock) Available() int {
	return w.Quantity - w.Reserved
}
