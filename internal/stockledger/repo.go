package stockledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

// Repository reads warehouse stock levels and the movement ledger. All writes
// go through the warehouse mover, never through this repository.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListStocksForPart(ctx context.Context, partID uuid.UUID) ([]models.WarehouseStock, error)
	ListMovements(ctx context.Context, referenceID uuid.UUID) ([]models.StockMovement, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository wires the ledger reads to a gorm handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

// ListStocksForPart returns the tenant's stock rows for a part, largest
// warehouse first, so greedy allocation drains the fullest warehouse before
// moving to the next one.
func (r *gormRepository) ListStocksForPart(ctx context.Context, partID uuid.UUID) ([]models.WarehouseStock, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var stocks []models.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND part_id = ?", tenantID, partID).
		Order("quantity DESC, warehouse_id ASC").
		Find(&stocks).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouse stocks")
	}
	return stocks, nil
}

// ListMovements returns every movement recorded for a reference in append
// order. Folding them yields the outstanding reservation per warehouse.
func (r *gormRepository) ListMovements(ctx context.Context, referenceID uuid.UUID) ([]models.StockMovement, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var movements []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_id = ?", tenantID, referenceID).
		Order("created_at ASC, id ASC").
		Find(&movements).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}
