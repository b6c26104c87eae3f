package workorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/internal/activity"
	"github.com/motorhive/workshop-backend/internal/appointments"
	"github.com/motorhive/workshop-backend/internal/catalog"
	"github.com/motorhive/workshop-backend/internal/stockledger"
	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/metrics"
	"github.com/motorhive/workshop-backend/pkg/pagination"
)

// followUpWindow is how far ahead the reminder is set when an order enters
// the diagnosed status.
const followUpWindow = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the work order engine. Every mutating operation runs inside one
// transaction covering its guards, persistence, stock movements and activity
// entry, so a failure never leaves the order half mutated.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.WorkOrder, error)
	CreateFromAppointment(ctx context.Context, appointmentID uuid.UUID, userID *uuid.UUID) (*models.WorkOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.WorkOrder, error)
	Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.WorkOrderStatus, userID *uuid.UUID) (*models.WorkOrder, error)

	AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput) (*models.WorkOrderItem, error)
	UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, input UpdateItemInput) (*models.WorkOrderItem, error)
	DeleteItem(ctx context.Context, orderID, itemID uuid.UUID, userID *uuid.UUID) error

	AddItemMechanic(ctx context.Context, orderID, itemID, mechanicID uuid.UUID, userID *uuid.UUID) ([]models.WorkOrderItemMechanic, error)
	UpdateItemMechanic(ctx context.Context, orderID, itemID, assignmentID uuid.UUID, percent int, userID *uuid.UUID) ([]models.WorkOrderItemMechanic, error)
	RemoveItemMechanic(ctx context.Context, orderID, itemID, assignmentID uuid.UUID, userID *uuid.UUID) ([]models.WorkOrderItemMechanic, error)

	AddWorkLog(ctx context.Context, orderID uuid.UUID, input WorkLogInput) (*models.WorkLog, error)
	ListActivity(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderActivity, error)
}

type service struct {
	runner       txRunner
	repo         Repository
	stock        stockledger.Service
	catalog      catalog.Service
	appointments appointments.Repository
	recorder     activity.Recorder
	metrics      *metrics.EngineMetrics
	log          zerolog.Logger
}

// NewService wires the work order engine with its collaborators.
func NewService(
	runner txRunner,
	repo Repository,
	stock stockledger.Service,
	cat catalog.Service,
	appts appointments.Repository,
	recorder activity.Recorder,
	engineMetrics *metrics.EngineMetrics,
	log zerolog.Logger,
) (Service, error) {
	if runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner is required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "work order repository is required")
	}
	if stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock ledger is required")
	}
	if cat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog is required")
	}
	if appts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "appointment repository is required")
	}
	if recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder is required")
	}
	return &service{
		runner:       runner,
		repo:         repo,
		stock:        stock,
		catalog:      cat,
		appointments: appts,
		recorder:     recorder,
		metrics:      engineMetrics,
		log:          log,
	}, nil
}

func (s *service) observe(operation string, started time.Time, err error) {
	if s.metrics != nil {
		s.metrics.Observe(operation, started, err)
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (order *models.WorkOrder, err error) {
	started := time.Now()
	defer func() { s.observe("create", started, err) }()

	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id is required")
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order = &models.WorkOrder{
			OrderNumber: number,
			Status:      enums.WorkOrderStatusNew,
			ClientID:    input.ClientID,
			VehicleID:   input.VehicleID,
			AdvisorID:   input.AdvisorID,
			MechanicID:  input.MechanicID,
			Complaints:  input.Complaints,
			Mileage:     input.Mileage,
			FuelLevel:   input.FuelLevel,
			TotalLabor:  decimal.Zero,
			TotalParts:  decimal.Zero,
			TotalAmount: decimal.Zero,
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeCreated,
			Description: fmt.Sprintf("Work order %s created", order.FormattedNumber()),
			UserID:      input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) CreateFromAppointment(ctx context.Context, appointmentID uuid.UUID, userID *uuid.UUID) (order *models.WorkOrder, err error) {
	started := time.Now()
	defer func() { s.observe("create_from_appointment", started, err) }()

	if appointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id is required")
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		appts := s.appointments.WithTx(tx)

		appointment, err := appts.FindByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		switch appointment.Status {
		case enums.AppointmentStatusScheduled, enums.AppointmentStatusConfirmed:
		default:
			// Already converted, finished or cancelled appointments are not
			// convertible again.
			return pkgerrors.New(pkgerrors.CodeNotFound, "appointment not available for conversion")
		}

		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		followUp := time.Now().Add(followUpWindow)
		order = &models.WorkOrder{
			OrderNumber:   number,
			Status:        enums.WorkOrderStatusDiagnosed,
			ClientID:      appointment.ClientID,
			VehicleID:     appointment.VehicleID,
			MechanicID:    appointment.MechanicID,
			AppointmentID: &appointment.ID,
			Complaints:    appointment.Notes,
			TotalLabor:    decimal.Zero,
			TotalParts:    decimal.Zero,
			TotalAmount:   decimal.Zero,
			FollowUpAt:    &followUp,
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		for _, planned := range appointment.Items {
			_, err := s.createItemTx(ctx, tx, order, ItemInput{
				Type:        planned.Type,
				Description: planned.Description,
				Quantity:    planned.Quantity,
				UnitPrice:   planned.UnitPrice,
				ServiceID:   planned.ServiceID,
				PartID:      planned.PartID,
				UserID:      userID,
			})
			if err != nil {
				return err
			}
		}
		if err := s.recomputeTotalsTx(ctx, tx, order); err != nil {
			return err
		}

		if err := appts.UpdateStatus(ctx, appointment.ID, enums.AppointmentStatusInService); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeCreated,
			Description: fmt.Sprintf("Work order %s created from appointment", order.FormattedNumber()),
			UserID:      userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(filter.Pagination.Limit)
	page := &Page{}
	if len(orders) > limit {
		last := orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		orders = orders[:limit]
	}
	for _, order := range orders {
		page.Orders = append(page.Orders, WorkOrderSummary{
			ID:          order.ID,
			OrderNumber: order.FormattedNumber(),
			Status:      order.Status,
			ClientID:    order.ClientID,
			VehicleID:   order.VehicleID,
			MechanicID:  order.MechanicID,
			TotalAmount: order.TotalAmount,
			CreatedAt:   order.CreatedAt,
		})
	}
	return page, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (order *models.WorkOrder, err error) {
	started := time.Now()
	defer func() { s.observe("update", started, err) }()

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err = repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "work order is closed to changes")
		}

		if input.AdvisorID != nil {
			order.AdvisorID = input.AdvisorID
		}
		if input.MechanicID != nil {
			order.MechanicID = input.MechanicID
		}
		if input.Complaints != nil {
			order.Complaints = input.Complaints
		}
		if input.Mileage != nil {
			order.Mileage = input.Mileage
		}
		if input.FuelLevel != nil {
			order.FuelLevel = input.FuelLevel
		}
		if err := repo.Save(ctx, order); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeUpdated,
			Description: fmt.Sprintf("Work order %s updated", order.FormattedNumber()),
			UserID:      input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes an order that never left intake. Outstanding part
// reservations are released first, and an order opened from an appointment
// puts the appointment back on the schedule.
func (s *service) Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (err error) {
	started := time.Now()
	defer func() { s.observe("delete", started, err) }()

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != enums.WorkOrderStatusNew {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only new work orders can be deleted").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.Type != enums.WorkOrderItemTypePart || item.PartID == nil {
				continue
			}
			if _, err := s.stock.Unreserve(ctx, tx, stockledger.ReleaseInput{
				PartID:      *item.PartID,
				Reference:   order.FormattedNumber(),
				ReferenceID: item.ID,
				UserID:      userID,
			}); err != nil {
				return err
			}
		}

		if order.AppointmentID != nil {
			if err := s.appointments.WithTx(tx).UpdateStatus(ctx, *order.AppointmentID, enums.AppointmentStatusScheduled); err != nil {
				return err
			}
		}

		return repo.Delete(ctx, order)
	})
}

// UpdateStatus validates and applies a lifecycle transition with its stock
// side effects. Guards run first so a rejected transition touches nothing.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.WorkOrderStatus, userID *uuid.UUID) (order *models.WorkOrder, err error) {
	started := time.Now()
	defer func() { s.observe("update_status", started, err) }()

	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order status")
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err = repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := order.Status

		if !transitionAllowed(from, target) {
			return errInvalidTransition(from, target)
		}
		if mechanicRequired(from, target) && order.MechanicID == nil {
			return errMechanicRequired(target)
		}
		if target == enums.WorkOrderStatusCompleted {
			required := 0
			for _, item := range order.Items {
				if item.Type == enums.WorkOrderItemTypeLabor && item.Active() {
					required++
				}
			}
			logged, err := repo.CountWorkLogs(ctx, order.ID)
			if err != nil {
				return err
			}
			if int(logged) < required {
				return errIncompleteWorkLogs(int(logged), required)
			}
		}

		switch {
		case target == enums.WorkOrderStatusDiagnosed:
			followUp := time.Now().Add(followUpWindow)
			order.FollowUpAt = &followUp
		case from == enums.WorkOrderStatusDiagnosed:
			order.FollowUpAt = nil
		}

		switch target {
		case enums.WorkOrderStatusCompleted:
			for i := range order.Items {
				item := &order.Items[i]
				if item.Type != enums.WorkOrderItemTypePart || item.PartID == nil || !item.Active() {
					continue
				}
				if _, err := s.stock.Consume(ctx, tx, stockledger.ReleaseInput{
					PartID:      *item.PartID,
					Reference:   order.FormattedNumber(),
					ReferenceID: item.ID,
					UserID:      userID,
				}); err != nil {
					return err
				}
			}
		case enums.WorkOrderStatusCancelled:
			for i := range order.Items {
				item := &order.Items[i]
				if item.Type != enums.WorkOrderItemTypePart || item.PartID == nil {
					continue
				}
				if _, err := s.stock.Unreserve(ctx, tx, stockledger.ReleaseInput{
					PartID:      *item.PartID,
					Reference:   order.FormattedNumber(),
					ReferenceID: item.ID,
					UserID:      userID,
				}); err != nil {
					return err
				}
			}
		}

		order.Status = target
		if err := repo.Save(ctx, order); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeStatusChange,
			Description: fmt.Sprintf("Status changed from %s to %s", from.Label(), target.Label()),
			UserID:      userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput) (item *models.WorkOrderItem, err error) {
	started := time.Now()
	defer func() { s.observe("add_item", started, err) }()

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "work order is closed to changes")
		}

		item, err = s.createItemTx(ctx, tx, order, input)
		if err != nil {
			return err
		}
		if err := s.recomputeTotalsTx(ctx, tx, order); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeItemAdded,
			Description: fmt.Sprintf("Item %q added", item.Description),
			UserID:      input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// createItemTx persists one line item with its catalog enrichment, initial
// stock reservation and optional single-mechanic assignment. Totals are the
// caller's responsibility.
func (s *service) createItemTx(ctx context.Context, tx *gorm.DB, order *models.WorkOrder, input ItemInput) (*models.WorkOrderItem, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
	}

	description := input.Description
	unitPrice := input.UnitPrice
	normHours := input.NormHours

	switch input.Type {
	case enums.WorkOrderItemTypeLabor:
		if input.ServiceID != nil {
			svc, err := s.catalog.WithTx(tx).GetService(ctx, *input.ServiceID)
			if err != nil {
				return nil, err
			}
			if description == "" {
				description = svc.Name
			}
			if unitPrice.IsZero() {
				unitPrice = svc.UnitPrice
			}
			if normHours == nil {
				normHours = svc.NormHours
			}
		}
	case enums.WorkOrderItemTypePart:
		if input.PartID != nil {
			part, err := s.catalog.WithTx(tx).GetPart(ctx, *input.PartID)
			if err != nil {
				return nil, err
			}
			if description == "" {
				description = part.Name
			}
			if unitPrice.IsZero() {
				unitPrice = part.UnitPrice
			}
		}
	}
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item description is required")
	}

	item := &models.WorkOrderItem{
		WorkOrderID: order.ID,
		Type:        input.Type,
		Description: description,
		Quantity:    input.Quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
		NormHours:   normHours,
		ServiceID:   input.ServiceID,
		PartID:      input.PartID,
		Recommended: input.Recommended,
	}
	if err := s.repo.WithTx(tx).CreateItem(ctx, item); err != nil {
		return nil, err
	}

	if item.Type == enums.WorkOrderItemTypePart && item.PartID != nil && item.Active() {
		if _, err := s.stock.Reserve(ctx, tx, stockledger.ReserveInput{
			PartID:      *item.PartID,
			Quantity:    item.Quantity,
			Reference:   order.FormattedNumber(),
			ReferenceID: item.ID,
			UserID:      input.UserID,
		}); err != nil {
			return nil, err
		}
	}

	if input.MechanicID != nil {
		assignment := &models.WorkOrderItemMechanic{
			WorkOrderItemID:     item.ID,
			MechanicID:          *input.MechanicID,
			ContributionPercent: 100,
			Position:            0,
		}
		if err := s.repo.WithTx(tx).CreateAssignment(ctx, assignment); err != nil {
			return nil, err
		}
		item.Mechanics = []models.WorkOrderItemMechanic{*assignment}
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, input UpdateItemInput) (item *models.WorkOrderItem, err error) {
	started := time.Now()
	defer func() { s.observe("update_item", started, err) }()

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		item, err = repo.FindItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}

		wasActive := item.Active()
		previousQuantity := item.Quantity
		approvalChanged := false

		if input.Description != nil {
			item.Description = *input.Description
		}
		if input.Quantity != nil {
			if *input.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
			}
			item.Quantity = *input.Quantity
		}
		if input.UnitPrice != nil {
			item.UnitPrice = *input.UnitPrice
		}
		if input.NormHours != nil {
			item.NormHours = input.NormHours
		}
		if input.ApprovedByClient != nil {
			approvalChanged = item.ApprovedByClient == nil || *item.ApprovedByClient != *input.ApprovedByClient
			item.ApprovedByClient = input.ApprovedByClient
		}
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		// Stock side effects. An approval flip fully reserves or releases;
		// a quantity change on a committed item cycles the reservation
		// rather than adjusting it in place.
		if item.Type == enums.WorkOrderItemTypePart && item.PartID != nil {
			nowActive := item.Active()
			release := stockledger.ReleaseInput{
				PartID:      *item.PartID,
				Reference:   order.FormattedNumber(),
				ReferenceID: item.ID,
				UserID:      input.UserID,
			}
			reserve := stockledger.ReserveInput{
				PartID:      *item.PartID,
				Quantity:    item.Quantity,
				Reference:   order.FormattedNumber(),
				ReferenceID: item.ID,
				UserID:      input.UserID,
			}
			switch {
			case !wasActive && nowActive:
				if _, err := s.stock.Reserve(ctx, tx, reserve); err != nil {
					return err
				}
			case wasActive && !nowActive:
				if _, err := s.stock.Unreserve(ctx, tx, release); err != nil {
					return err
				}
			case wasActive && nowActive && item.Quantity != previousQuantity:
				if _, err := s.stock.Unreserve(ctx, tx, release); err != nil {
					return err
				}
				if _, err := s.stock.Reserve(ctx, tx, reserve); err != nil {
					return err
				}
			}
		}

		if err := repo.SaveItem(ctx, item); err != nil {
			return err
		}
		if err := s.recomputeTotalsTx(ctx, tx, order); err != nil {
			return err
		}

		if approvalChanged {
			verdict := "rejected"
			if *input.ApprovedByClient {
				verdict = "approved"
			}
			if _, err := s.recorder.Record(ctx, tx, activity.RecordInput{
				WorkOrderID: order.ID,
				Type:        enums.WorkOrderActivityTypeItemUpdated,
				Description: fmt.Sprintf("Item %q %s by client", item.Description, verdict),
				UserID:      input.UserID,
			}); err != nil {
				return err
			}
		}
		if input.Description != nil || input.Quantity != nil || input.UnitPrice != nil || input.NormHours != nil {
			if _, err := s.recorder.Record(ctx, tx, activity.RecordInput{
				WorkOrderID: order.ID,
				Type:        enums.WorkOrderActivityTypeItemUpdated,
				Description: fmt.Sprintf("Item %q updated", item.Description),
				UserID:      input.UserID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID, userID *uuid.UUID) (err error) {
	started := time.Now()
	defer func() { s.observe("delete_item", started, err) }()

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		item, err := repo.FindItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}

		if item.Type == enums.WorkOrderItemTypePart && item.PartID != nil {
			if _, err := s.stock.Unreserve(ctx, tx, stockledger.ReleaseInput{
				PartID:      *item.PartID,
				Reference:   order.FormattedNumber(),
				ReferenceID: item.ID,
				UserID:      userID,
			}); err != nil {
				return err
			}
		}

		if err := repo.DeleteItem(ctx, item); err != nil {
			return err
		}
		if err := s.recomputeTotalsTx(ctx, tx, order); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeItemDeleted,
			Description: fmt.Sprintf("Item %q removed", item.Description),
			UserID:      userID,
		})
		return err
	})
}

func (s *service) AddItemMechanic(ctx context.Context, orderID, itemID, mechanicID uuid.UUID, userID *uuid.UUID) (assignments []models.WorkOrderItemMechanic, err error) {
	started := time.Now()
	defer func() { s.observe("add_item_mechanic", started, err) }()

	if mechanicID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mechanic id is required")
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}
		if item.Type != enums.WorkOrderItemTypeLabor {
			return pkgerrors.New(pkgerrors.CodeValidation, "mechanics are assigned to labor items only")
		}

		existing, err := repo.ListAssignments(ctx, itemID)
		if err != nil {
			return err
		}
		for _, assignment := range existing {
			if assignment.MechanicID == mechanicID {
				return pkgerrors.New(pkgerrors.CodeConflict, "mechanic already assigned to this item")
			}
		}

		added := &models.WorkOrderItemMechanic{
			WorkOrderItemID:     itemID,
			MechanicID:          mechanicID,
			ContributionPercent: 100,
			Position:            len(existing),
		}
		if err := repo.CreateAssignment(ctx, added); err != nil {
			return err
		}

		all := append(existing, *added)
		shares := splitEvenly(100, len(all))
		for i := range all {
			all[i].ContributionPercent = shares[i]
			if err := repo.SaveAssignment(ctx, &all[i]); err != nil {
				return err
			}
		}
		assignments = all

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: orderID,
			Type:        enums.WorkOrderActivityTypeItemUpdated,
			Description: fmt.Sprintf("Mechanic assigned to item %q", item.Description),
			UserID:      userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *service) UpdateItemMechanic(ctx context.Context, orderID, itemID, assignmentID uuid.UUID, percent int, userID *uuid.UUID) (assignments []models.WorkOrderItemMechanic, err error) {
	started := time.Now()
	defer func() { s.observe("update_item_mechanic", started, err) }()

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}
		all, err := repo.ListAssignments(ctx, itemID)
		if err != nil {
			return err
		}

		edited := -1
		for i := range all {
			if all[i].ID == assignmentID {
				edited = i
				break
			}
		}
		if edited < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "mechanic assignment not found")
		}

		clamped := clampPercent(percent)
		if len(all) == 1 {
			// A lone mechanic always carries the whole item.
			clamped = 100
		}
		all[edited].ContributionPercent = clamped

		others := len(all) - 1
		if others > 0 {
			shares := splitEvenly(100-clamped, others)
			next := 0
			for i := range all {
				if i == edited {
					continue
				}
				all[i].ContributionPercent = shares[next]
				next++
			}
		}

		for i := range all {
			if err := repo.SaveAssignment(ctx, &all[i]); err != nil {
				return err
			}
		}
		assignments = all

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: orderID,
			Type:        enums.WorkOrderActivityTypeItemUpdated,
			Description: fmt.Sprintf("Mechanic contribution updated on item %q", item.Description),
			UserID:      userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *service) RemoveItemMechanic(ctx context.Context, orderID, itemID, assignmentID uuid.UUID, userID *uuid.UUID) (assignments []models.WorkOrderItemMechanic, err error) {
	started := time.Now()
	defer func() { s.observe("remove_item_mechanic", started, err) }()

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, orderID, itemID)
		if err != nil {
			return err
		}
		removed, err := repo.FindAssignment(ctx, itemID, assignmentID)
		if err != nil {
			return err
		}
		if err := repo.DeleteAssignment(ctx, removed); err != nil {
			return err
		}

		remaining, err := repo.ListAssignments(ctx, itemID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			shares := splitEvenly(100, len(remaining))
			for i := range remaining {
				remaining[i].ContributionPercent = shares[i]
				remaining[i].Position = i
				if err := repo.SaveAssignment(ctx, &remaining[i]); err != nil {
					return err
				}
			}
		}
		assignments = remaining

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: orderID,
			Type:        enums.WorkOrderActivityTypeItemUpdated,
			Description: fmt.Sprintf("Mechanic removed from item %q", item.Description),
			UserID:      userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *service) AddWorkLog(ctx context.Context, orderID uuid.UUID, input WorkLogInput) (log *models.WorkLog, err error) {
	started := time.Now()
	defer func() { s.observe("add_work_log", started, err) }()

	if input.MechanicID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mechanic id is required")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.HoursWorked.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hours worked must be positive")
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		logDate := time.Now()
		if input.LogDate != nil {
			logDate = *input.LogDate
		}
		log = &models.WorkLog{
			WorkOrderID: order.ID,
			MechanicID:  input.MechanicID,
			Description: input.Description,
			HoursWorked: input.HoursWorked,
			LogDate:     logDate,
		}
		if err := repo.CreateWorkLog(ctx, log); err != nil {
			return err
		}

		_, err = s.recorder.Record(ctx, tx, activity.RecordInput{
			WorkOrderID: order.ID,
			Type:        enums.WorkOrderActivityTypeWorkLog,
			Description: fmt.Sprintf("Work log added: %s", input.Description),
			UserID:      input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (s *service) ListActivity(ctx context.Context, orderID uuid.UUID) ([]models.WorkOrderActivity, error) {
	return s.recorder.ListByWorkOrder(ctx, orderID)
}

// recomputeTotalsTx rescans every item on the order and rewrites the derived
// totals. Recommended items count only once approved by the client.
func (s *service) recomputeTotalsTx(ctx context.Context, tx *gorm.DB, order *models.WorkOrder) error {
	items, err := s.repo.WithTx(tx).ListItems(ctx, order.ID)
	if err != nil {
		return err
	}

	labor := decimal.Zero
	parts := decimal.Zero
	for _, item := range items {
		if !item.Active() {
			continue
		}
		switch item.Type {
		case enums.WorkOrderItemTypeLabor:
			labor = labor.Add(item.TotalPrice)
		case enums.WorkOrderItemTypePart:
			parts = parts.Add(item.TotalPrice)
		}
	}

	order.TotalLabor = labor
	order.TotalParts = parts
	order.TotalAmount = labor.Add(parts)
	return s.repo.WithTx(tx).Save(ctx, order)
}
