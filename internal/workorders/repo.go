package workorders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/pagination"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

// Repository is the tenant-scoped persistence surface for work orders and
// everything they own. Every method resolves the tenant from the context and
// refuses to run without one.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	NextOrderNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.WorkOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context, filter ListFilter) ([]models.WorkOrder, error)
	Save(ctx context.Context, order *models.WorkOrder) error
	Delete(ctx context.Context, order *models.WorkOrder) error

	FindItem(ctx context.Context, workOrderID, itemID uuid.UUID) (*models.WorkOrderItem, error)
	ListItems(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderItem, error)
	CreateItem(ctx context.Context, item *models.WorkOrderItem) error
	SaveItem(ctx context.Context, item *models.WorkOrderItem) error
	DeleteItem(ctx context.Context, item *models.WorkOrderItem) error

	FindAssignment(ctx context.Context, itemID, assignmentID uuid.UUID) (*models.WorkOrderItemMechanic, error)
	ListAssignments(ctx context.Context, itemID uuid.UUID) ([]models.WorkOrderItemMechanic, error)
	CreateAssignment(ctx context.Context, assignment *models.WorkOrderItemMechanic) error
	SaveAssignment(ctx context.Context, assignment *models.WorkOrderItemMechanic) error
	DeleteAssignment(ctx context.Context, assignment *models.WorkOrderItemMechanic) error

	CreateWorkLog(ctx context.Context, log *models.WorkLog) error
	CountWorkLogs(ctx context.Context, workOrderID uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

// NextOrderNumber claims the next per-tenant order number with a single
// conditional upsert so concurrent intakes never observe the same value.
func (r *gormRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return 0, err
	}

	var next int64
	err = r.db.WithContext(ctx).Raw(`
INSERT INTO work_order_counters (tenant_id, last_number, updated_at)
VALUES (?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (tenant_id)
DO UPDATE SET last_number = work_order_counters.last_number + 1, updated_at = CURRENT_TIMESTAMP
RETURNING last_number`, tenantID).Scan(&next).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order number")
	}
	return next, nil
}

func (r *gormRepository) Create(ctx context.Context, order *models.WorkOrder) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	order.TenantID = tenantID
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work order")
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var order models.WorkOrder
	err = r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Mechanics", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("WorkLogs", func(db *gorm.DB) *gorm.DB { return db.Order("log_date ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find work order")
	}
	return &order, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]models.WorkOrder, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(filter.Pagination.Limit))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.MechanicID != nil {
		query = query.Where("mechanic_id = ?", *filter.MechanicID)
	}
	if cursor, err := pagination.ParseCursor(filter.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.WorkOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work orders")
	}
	return orders, nil
}

func (r *gormRepository) Save(ctx context.Context, order *models.WorkOrder) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	if order.TenantID != tenantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "work order belongs to another tenant")
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save work order")
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, order *models.WorkOrder) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, order.ID).
		Delete(&models.WorkOrder{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete work order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
	}
	return nil
}

func (r *gormRepository) FindItem(ctx context.Context, workOrderID, itemID uuid.UUID) (*models.WorkOrderItem, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var item models.WorkOrderItem
	err = r.db.WithContext(ctx).
		Preload("Mechanics", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("tenant_id = ? AND work_order_id = ? AND id = ?", tenantID, workOrderID, itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find work order item")
	}
	return &item, nil
}

func (r *gormRepository) ListItems(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderItem, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var items []models.WorkOrderItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work order items")
	}
	return items, nil
}

func (r *gormRepository) CreateItem(ctx context.Context, item *models.WorkOrderItem) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	item.TenantID = tenantID
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work order item")
	}
	return nil
}

func (r *gormRepository) SaveItem(ctx context.Context, item *models.WorkOrderItem) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	if item.TenantID != tenantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another tenant")
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save work order item")
	}
	return nil
}

func (r *gormRepository) DeleteItem(ctx context.Context, item *models.WorkOrderItem) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, item.ID).
		Delete(&models.WorkOrderItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete work order item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "work order item not found")
	}
	return nil
}

func (r *gormRepository) FindAssignment(ctx context.Context, itemID, assignmentID uuid.UUID) (*models.WorkOrderItemMechanic, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var assignment models.WorkOrderItemMechanic
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_item_id = ? AND id = ?", tenantID, itemID, assignmentID).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "mechanic assignment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find mechanic assignment")
	}
	return &assignment, nil
}

func (r *gormRepository) ListAssignments(ctx context.Context, itemID uuid.UUID) ([]models.WorkOrderItemMechanic, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var assignments []models.WorkOrderItemMechanic
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND work_order_item_id = ?", tenantID, itemID).
		Order("position ASC").
		Find(&assignments).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mechanic assignments")
	}
	return assignments, nil
}

func (r *gormRepository) CreateAssignment(ctx context.Context, assignment *models.WorkOrderItemMechanic) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	assignment.TenantID = tenantID
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create mechanic assignment")
	}
	return nil
}

func (r *gormRepository) SaveAssignment(ctx context.Context, assignment *models.WorkOrderItemMechanic) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	if assignment.TenantID != tenantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another tenant")
	}

	if err := r.db.WithContext(ctx).Save(assignment).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save mechanic assignment")
	}
	return nil
}

func (r *gormRepository) DeleteAssignment(ctx context.Context, assignment *models.WorkOrderItemMechanic) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, assignment.ID).
		Delete(&models.WorkOrderItemMechanic{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete mechanic assignment")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "mechanic assignment not found")
	}
	return nil
}

func (r *gormRepository) CreateWorkLog(ctx context.Context, log *models.WorkLog) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	log.TenantID = tenantID
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work log")
	}
	return nil
}

func (r *gormRepository) CountWorkLogs(ctx context.Context, workOrderID uuid.UUID) (int64, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WorkLog{}).
		Where("tenant_id = ? AND work_order_id = ?", tenantID, workOrderID).
		Count(&count).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count work logs")
	}
	return count, nil
}
