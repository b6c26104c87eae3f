package stockledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/internal/warehouse"
	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
)

// ReserveInput asks the ledger to put units of a part on hold for a reference,
// typically a work order item.
type ReserveInput struct {
	PartID      uuid.UUID
	Quantity    int
	Reference   string
	ReferenceID uuid.UUID
	UserID      *uuid.UUID
}

// ReserveResult reports how much of the request could actually be reserved.
// A shortfall is not an error: the caller decides whether to surface it.
type ReserveResult struct {
	Requested int
	Reserved  int
	Shortfall int
	Movements []models.StockMovement
}

// ReleaseInput unwinds the outstanding reservation held under a reference,
// either returning the units to the shelf or consuming them.
type ReleaseInput struct {
	PartID      uuid.UUID
	Reference   string
	ReferenceID uuid.UUID
	UserID      *uuid.UUID
}

// Service is the only place reservation state is derived. Stock is never
// mutated directly: every change is a movement appended through the warehouse
// mover, and the current hold for a reference is the fold of its movements.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, input ReserveInput) (*ReserveResult, error)
	Unreserve(ctx context.Context, tx *gorm.DB, input ReleaseInput) ([]models.StockMovement, error)
	Consume(ctx context.Context, tx *gorm.DB, input ReleaseInput) ([]models.StockMovement, error)
	EffectiveReservation(ctx context.Context, referenceID uuid.UUID) (int, error)
}

type service struct {
	repo    Repository
	mover   warehouse.Mover
	retries int
	log     zerolog.Logger
}

// NewService wires the stock ledger. retries bounds how many times a reserve
// pass re-reads stock levels after losing a conditional update race.
func NewService(repo Repository, mover warehouse.Mover, retries int, log zerolog.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stockledger repository is required")
	}
	if mover == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "warehouse mover is required")
	}
	if retries < 0 {
		retries = 0
	}
	return &service{repo: repo, mover: mover, retries: retries, log: log}, nil
}

// Reserve greedily allocates across the tenant's warehouses, fullest first.
// Under-allocation is reported in the result, not returned as an error.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, input ReserveInput) (*ReserveResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for reservation")
	}
	if input.PartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id is required")
	}
	if input.ReferenceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	result := &ReserveResult{Requested: input.Quantity}
	remaining := input.Quantity

	for attempt := 0; attempt <= s.retries && remaining > 0; attempt++ {
		stocks, err := s.repo.WithTx(tx).ListStocksForPart(ctx, input.PartID)
		if err != nil {
			return nil, err
		}

		raced := false
		for _, stock := range stocks {
			if remaining == 0 {
				break
			}
			take := stock.Available()
			if take <= 0 {
				continue
			}
			if take > remaining {
				take = remaining
			}

			refID := input.ReferenceID
			movement, err := s.mover.AddMovement(ctx, tx, warehouse.MovementInput{
				PartID:      input.PartID,
				WarehouseID: stock.WarehouseID,
				Type:        enums.StockMovementTypeReserved,
				Quantity:    take,
				Reference:   input.Reference,
				ReferenceID: &refID,
				UserID:      input.UserID,
			})
			if errors.Is(err, warehouse.ErrInsufficientStock) {
				// Lost a race against a concurrent reservation. Skip the
				// warehouse for now and re-read levels on the next pass.
				raced = true
				continue
			}
			if err != nil {
				return nil, err
			}

			result.Movements = append(result.Movements, *movement)
			remaining -= take
		}

		if !raced {
			break
		}
	}

	result.Reserved = input.Quantity - remaining
	result.Shortfall = remaining
	if result.Shortfall > 0 {
		s.log.Warn().
			Str("part_id", input.PartID.String()).
			Str("reference", input.Reference).
			Int("requested", result.Requested).
			Int("reserved", result.Reserved).
			Int("shortfall", result.Shortfall).
			Msg("partial stock reservation")
	}
	return result, nil
}

// Unreserve returns everything still held under a reference to the shelf.
// Calling it with nothing outstanding is a no-op.
func (s *service) Unreserve(ctx context.Context, tx *gorm.DB, input ReleaseInput) ([]models.StockMovement, error) {
	return s.unwind(ctx, tx, input, enums.StockMovementTypeUnreserved)
}

// Consume converts the outstanding hold for a reference into a stock
// decrement, one movement per warehouse holding part of it.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, input ReleaseInput) ([]models.StockMovement, error) {
	return s.unwind(ctx, tx, input, enums.StockMovementTypeConsumption)
}

func (s *service) unwind(ctx context.Context, tx *gorm.DB, input ReleaseInput, movementType enums.StockMovementType) ([]models.StockMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for release")
	}
	if input.ReferenceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}

	history, err := s.repo.WithTx(tx).ListMovements(ctx, input.ReferenceID)
	if err != nil {
		return nil, err
	}
	balances, order := foldByWarehouse(history)

	var emitted []models.StockMovement
	for _, warehouseID := range order {
		balance := balances[warehouseID]
		if balance <= 0 {
			continue
		}

		refID := input.ReferenceID
		movement, err := s.mover.AddMovement(ctx, tx, warehouse.MovementInput{
			PartID:      input.PartID,
			WarehouseID: warehouseID,
			Type:        movementType,
			Quantity:    balance,
			Reference:   input.Reference,
			ReferenceID: &refID,
			UserID:      input.UserID,
		})
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, *movement)
	}
	return emitted, nil
}

// EffectiveReservation folds the full movement history of a reference into
// the number of units currently on hold.
func (s *service) EffectiveReservation(ctx context.Context, referenceID uuid.UUID) (int, error) {
	if referenceID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}

	history, err := s.repo.ListMovements(ctx, referenceID)
	if err != nil {
		return 0, err
	}
	balances, _ := foldByWarehouse(history)

	total := 0
	for _, balance := range balances {
		// A non-positive balance means no active reservation in that
		// warehouse; it must not offset holds elsewhere.
		if balance <= 0 {
			continue
		}
		total += balance
	}
	return total, nil
}

// foldByWarehouse replays a movement history into the outstanding balance per
// warehouse. The returned order is first appearance in the history, so
// repeated folds of the same ledger release in the same sequence.
func foldByWarehouse(history []models.StockMovement) (map[uuid.UUID]int, []uuid.UUID) {
	balances := make(map[uuid.UUID]int, len(history))
	var order []uuid.UUID

	for _, movement := range history {
		if _, seen := balances[movement.WarehouseID]; !seen {
			order = append(order, movement.WarehouseID)
		}
		switch movement.Type {
		case enums.StockMovementTypeReserved:
			balances[movement.WarehouseID] += movement.Quantity
		case enums.StockMovementTypeUnreserved, enums.StockMovementTypeConsumption:
			balances[movement.WarehouseID] -= movement.Quantity
		}
	}
	return balances, order
}
