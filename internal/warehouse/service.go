// Package warehouse owns the quantity/reserved columns on warehouse stock
// rows. Every write goes through the single AddMovement contract so the
// columns never drift from the append-only movement ledger.
package warehouse

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

// ErrInsufficientStock is returned when a conditional stock update matches no
// row, either because the warehouse genuinely lacks the units or because a
// concurrent reservation won the race.
var ErrInsufficientStock = pkgerrors.New(pkgerrors.CodeConflict, "insufficient warehouse stock")

// MovementInput describes one stock movement to apply and record.
type MovementInput struct {
	PartID      uuid.UUID
	WarehouseID uuid.UUID
	Type        enums.StockMovementType
	Quantity    int
	Reference   string
	ReferenceID *uuid.UUID
	UserID      *uuid.UUID
}

// Mover is the write entry point the stock ledger calls. Implementations must
// keep the warehouse stock columns consistent with the movement type.
type Mover interface {
	AddMovement(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error)
}

type mover struct{}

// NewMover exposes the default warehouse mover implementation.
func NewMover() Mover {
	return mover{}
}

func (mover) AddMovement(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock movement")
	}
	if input.PartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id is required")
	}
	if input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement type")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement quantity must be positive")
	}

	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	if err := applyColumns(ctx, tx, tenantID, input); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PartID:      input.PartID,
		WarehouseID: input.WarehouseID,
		Type:        input.Type,
		Quantity:    input.Quantity,
		Reference:   input.Reference,
		ReferenceID: input.ReferenceID,
		UserID:      input.UserID,
	}
	if err := tx.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}
	return movement, nil
}

// applyColumns runs the conditional update matching the movement type. A zero
// row count means the guard failed, which callers treat as a lost race or a
// genuine shortage.
func applyColumns(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, input MovementInput) error {
	var res *gorm.DB
	switch input.Type {
	case enums.StockMovementTypeReserved:
		res = tx.WithContext(ctx).Exec(`
			UPDATE warehouse_stocks
			SET reserved = reserved + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND warehouse_id = ? AND part_id = ? AND quantity - reserved >= ?
		`, input.Quantity, tenantID, input.WarehouseID, input.PartID, input.Quantity)
	case enums.StockMovementTypeUnreserved:
		res = tx.WithContext(ctx).Exec(`
			UPDATE warehouse_stocks
			SET reserved = reserved - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND warehouse_id = ? AND part_id = ? AND reserved >= ?
		`, input.Quantity, tenantID, input.WarehouseID, input.PartID, input.Quantity)
	case enums.StockMovementTypeConsumption:
		res = tx.WithContext(ctx).Exec(`
			UPDATE warehouse_stocks
			SET reserved = reserved - ?,
				quantity = quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND warehouse_id = ? AND part_id = ? AND reserved >= ? AND quantity >= ?
		`, input.Quantity, input.Quantity, tenantID, input.WarehouseID, input.PartID, input.Quantity, input.Quantity)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update warehouse stock")
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}
