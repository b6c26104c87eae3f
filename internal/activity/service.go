package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/enums"
)

// Recorder appends entries to a work order's audit trail. The trail is a pure
// append-only sink: recording has no side effects beyond durable insertion.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.WorkOrderActivity, error)
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderActivity, error)
}

type recorder struct {
	repo Repository
}

// RecordInput captures one audit fact.
type RecordInput struct {
	WorkOrderID uuid.UUID
	Type        enums.WorkOrderActivityType
	Description string
	UserID      *uuid.UUID
	Metadata    json.RawMessage
}

// NewRecorder wires an activity recorder with the provided repository.
func NewRecorder(repo Repository) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &recorder{repo: repo}, nil
}

func (r *recorder) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.WorkOrderActivity, error) {
	if input.WorkOrderID == uuid.Nil {
		return nil, fmt.Errorf("work order id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid activity type %q", input.Type)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("description is required")
	}

	entry := &models.WorkOrderActivity{
		WorkOrderID: input.WorkOrderID,
		Type:        input.Type,
		Description: input.Description,
		Metadata:    input.Metadata,
		UserID:      input.UserID,
	}

	if err := r.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *recorder) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderActivity, error) {
	if workOrderID == uuid.Nil {
		return nil, fmt.Errorf("work order id is required")
	}
	return r.repo.ListByWorkOrder(ctx, workOrderID)
}
