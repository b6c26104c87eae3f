package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
)

// Service exposes catalog lookups to the work order engine. Catalog rows feed
// default descriptions and prices when an item is created from a reference.
type Service interface {
	GetPart(ctx context.Context, id uuid.UUID) (*models.Part, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error)
	ListParts(ctx context.Context) ([]models.Part, error)
	ListServices(ctx context.Context) ([]models.CatalogService, error)
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) GetPart(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id is required")
	}
	return s.repo.FindPart(ctx, id)
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog service id is required")
	}
	return s.repo.FindService(ctx, id)
}

func (s *service) ListParts(ctx context.Context) ([]models.Part, error) {
	return s.repo.ListParts(ctx)
}

func (s *service) ListServices(ctx context.Context) ([]models.CatalogService, error) {
	return s.repo.ListServices(ctx)
}
