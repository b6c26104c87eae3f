package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorhive/workshop-backend/pkg/enums"
)

// WorkOrderItem is a billable line on a work order, either labor or a part.
//
// A recommended item is a suggestion that is not part of the committed scope
// until the client explicitly approves it. ApprovedByClient is tri-state:
// nil = pending, true = approved, false = rejected.
type WorkOrderItem struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	WorkOrderID      uuid.UUID               `gorm:"column:work_order_id;type:uuid;not null;index"`
	Type             enums.WorkOrderItemType `gorm:"column:type;type:text;not null"`
	Description      string                  `gorm:"column:description;not null"`
	Quantity         int                     `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice       decimal.Decimal         `gorm:"column:total_price;type:numeric(12,2);not null"`
	NormHours        *decimal.Decimal        `gorm:"column:norm_hours;type:numeric(6,2)"`
	ServiceID        *uuid.UUID              `gorm:"column:service_id;type:uuid"`
	PartID           *uuid.UUID              `gorm:"column:part_id;type:uuid"`
	Recommended      bool                    `gorm:"column:recommended;not null;default:false"`
	ApprovedByClient *bool                   `gorm:"column:approved_by_client"`
	Mechanics        []WorkOrderItemMechanic `gorm:"foreignKey:WorkOrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// Active reports whether the item is part of the committed scope and so
// contributes to order totals and inventory reservation.
func (i WorkOrderItem) Active() bool {
	if !i.Recommended {
		return true
	}
	return i.ApprovedByClient != nil && *i.ApprovedByClient
}
