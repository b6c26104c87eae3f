package activity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

// Repository manages persistence for work order activity entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.WorkOrderActivity) error
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderActivity, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.WorkOrderActivity) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	entry.TenantID = tenantID
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderActivity, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	var entries []models.WorkOrderActivity
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
