package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

// Repository is the tenant-scoped read surface over catalog master data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPart(ctx context.Context, id uuid.UUID) (*models.Part, error)
	FindService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error)
	ListParts(ctx context.Context) ([]models.Part, error)
	ListServices(ctx context.Context) ([]models.CatalogService, error)
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

func (r *gormRepository) FindPart(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var part models.Part
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find part")
	}
	return &part, nil
}

func (r *gormRepository) FindService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var svc models.CatalogService
	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog service not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find catalog service")
	}
	return &svc, nil
}

func (r *gormRepository) ListParts(ctx context.Context) ([]models.Part, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var parts []models.Part
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&parts).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parts")
	}
	return parts, nil
}

func (r *gormRepository) ListServices(ctx context.Context) ([]models.CatalogService, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}

	var services []models.CatalogService
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&services).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog services")
	}
	return services, nil
}
