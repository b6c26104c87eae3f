package workorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorhive/workshop-backend/pkg/enums"
	"github.com/motorhive/workshop-backend/pkg/pagination"
)

// CreateInput opens a work order directly from intake.
type CreateInput struct {
	ClientID   uuid.UUID
	VehicleID  uuid.UUID
	AdvisorID  *uuid.UUID
	MechanicID *uuid.UUID
	Complaints *string
	Mileage    *int
	FuelLevel  *string
	UserID     *uuid.UUID
}

// UpdateInput patches mutable header fields of a work order. Nil fields are
// left untouched.
type UpdateInput struct {
	AdvisorID  *uuid.UUID
	MechanicID *uuid.UUID
	Complaints *string
	Mileage    *int
	FuelLevel  *string
	UserID     *uuid.UUID
}

// ItemInput describes a new line item. Description and UnitPrice may be left
// zero when a catalog reference is supplied; they are then filled from the
// catalog record.
type ItemInput struct {
	Type        enums.WorkOrderItemType
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	NormHours   *decimal.Decimal
	ServiceID   *uuid.UUID
	PartID      *uuid.UUID
	Recommended bool
	MechanicID  *uuid.UUID
	UserID      *uuid.UUID
}

// UpdateItemInput patches an existing line item. Nil fields are untouched.
type UpdateItemInput struct {
	Description      *string
	Quantity         *int
	UnitPrice        *decimal.Decimal
	NormHours        *decimal.Decimal
	ApprovedByClient *bool
	UserID           *uuid.UUID
}

// WorkLogInput records hours a mechanic spent on a described task.
type WorkLogInput struct {
	MechanicID  uuid.UUID
	Description string
	HoursWorked decimal.Decimal
	LogDate     *time.Time
	UserID      *uuid.UUID
}

// ListFilter narrows the work order listing.
type ListFilter struct {
	Status     *enums.WorkOrderStatus
	ClientID   *uuid.UUID
	MechanicID *uuid.UUID
	Pagination pagination.Params
}

// Page is one cursor page of work orders.
type Page struct {
	Orders     []WorkOrderSummary
	NextCursor string
}

// WorkOrderSummary is the listing projection: header fields without the item,
// log and activity relations.
type WorkOrderSummary struct {
	ID          uuid.UUID
	OrderNumber string
	Status      enums.WorkOrderStatus
	ClientID    uuid.UUID
	VehicleID   uuid.UUID
	MechanicID  *uuid.UUID
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}
