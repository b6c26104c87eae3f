package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogService is catalog master data for a labor service.
type CatalogService struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name      string           `gorm:"column:name;not null"`
	NormHours *decimal.Decimal `gorm:"column:norm_hours;type:numeric(6,2)"`
	UnitPrice decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's default pluralization.
func (CatalogService) TableName() string { return "catalog_services" }
