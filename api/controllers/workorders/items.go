package workorders

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorhive/workshop-backend/api/responses"
	"github.com/motorhive/workshop-backend/api/validators"
	internalworkorders "github.com/motorhive/workshop-backend/internal/workorders"
	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/logger"
)

type itemRequest struct {
	Type        string           `json:"type" validate:"required"`
	Description string           `json:"description,omitempty"`
	Quantity    int              `json:"quantity" validate:"required,min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	NormHours   *decimal.Decimal `json:"norm_hours,omitempty"`
	ServiceID   *uuid.UUID       `json:"service_id,omitempty"`
	PartID      *uuid.UUID       `json:"part_id,omitempty"`
	Recommended bool             `json:"recommended,omitempty"`
	MechanicID  *uuid.UUID       `json:"mechanic_id,omitempty"`
}

// AddItem appends a labor or part line item to a work order.
func AddItem(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemType, err := enums.ParseWorkOrderItemType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalworkorders.ItemInput{
			Type:        itemType,
			Description: validators.SanitizeString(payload.Description, 500),
			Quantity:    payload.Quantity,
			NormHours:   payload.NormHours,
			ServiceID:   payload.ServiceID,
			PartID:      payload.PartID,
			Recommended: payload.Recommended,
			MechanicID:  payload.MechanicID,
			UserID:      userID,
		}
		if payload.UnitPrice != nil {
			input.UnitPrice = *payload.UnitPrice
		}

		item, err := svc.AddItem(r.Context(), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type updateItemRequest struct {
	Description      *string          `json:"description,omitempty" validate:"omitempty,min=1"`
	Quantity         *int             `json:"quantity,omitempty" validate:"omitempty,min=1"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	NormHours        *decimal.Decimal `json:"norm_hours,omitempty"`
	ApprovedByClient *bool            `json:"approved_by_client,omitempty"`
}

// UpdateItem patches a line item; an approval verdict may ride along.
func UpdateItem(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), orderID, itemID, internalworkorders.UpdateItemInput{
			Description:      payload.Description,
			Quantity:         payload.Quantity,
			UnitPrice:        payload.UnitPrice,
			NormHours:        payload.NormHours,
			ApprovedByClient: payload.ApprovedByClient,
			UserID:           userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// DeleteItem removes a line item and releases any stock it still holds.
func DeleteItem(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), orderID, itemID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type addMechanicRequest struct {
	MechanicID uuid.UUID `json:"mechanic_id" validate:"required"`
}

// AddItemMechanic assigns a mechanic to a labor item and rebalances the
// contribution split.
func AddItemMechanic(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addMechanicRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignments, err := svc.AddItemMechanic(r.Context(), orderID, itemID, payload.MechanicID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, assignments)
	}
}

type updateMechanicRequest struct {
	ContributionPercent int `json:"contribution_percent" validate:"required,min=1,max=100"`
}

// UpdateItemMechanic pins one mechanic's contribution and redistributes the
// remainder across the others.
func UpdateItemMechanic(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := parsePathID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMechanicRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignments, err := svc.UpdateItemMechanic(r.Context(), orderID, itemID, assignmentID, payload.ContributionPercent, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignments)
	}
}

// RemoveItemMechanic unassigns a mechanic and re-splits the remaining crew.
func RemoveItemMechanic(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parsePathID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := parsePathID(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignments, err := svc.RemoveItemMechanic(r.Context(), orderID, itemID, assignmentID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignments)
	}
}

type workLogRequest struct {
	MechanicID  uuid.UUID       `json:"mechanic_id" validate:"required"`
	Description string          `json:"description" validate:"required,min=1"`
	HoursWorked decimal.Decimal `json:"hours_worked" validate:"required"`
	LogDate     *time.Time      `json:"log_date,omitempty"`
}

// AddWorkLog records hours a mechanic spent on the order.
func AddWorkLog(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		orderID, err := parsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload workLogRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		log, err := svc.AddWorkLog(r.Context(), orderID, internalworkorders.WorkLogInput{
			MechanicID:  payload.MechanicID,
			Description: validators.SanitizeString(payload.Description, 500),
			HoursWorked: payload.HoursWorked,
			LogDate:     payload.LogDate,
			UserID:      userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, log)
	}
}
