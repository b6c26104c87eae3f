package workorders

import (
	"fmt"

	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
)

// Reason values carried in error details so callers can tell the state
// conflicts apart without string matching on messages.
const (
	ReasonInvalidTransition  = "INVALID_TRANSITION"
	ReasonMechanicRequired   = "MECHANIC_REQUIRED"
	ReasonIncompleteWorkLogs = "INCOMPLETE_WORK_LOGS"
)

func errInvalidTransition(from, to enums.WorkOrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot transition work order from %s to %s", from, to)).
		WithDetails(map[string]any{
			"reason": ReasonInvalidTransition,
			"from":   from.String(),
			"to":     to.String(),
		})
}

func errMechanicRequired(to enums.WorkOrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		"a mechanic must be assigned before this status change").
		WithDetails(map[string]any{
			"reason": ReasonMechanicRequired,
			"to":     to.String(),
		})
}

func errIncompleteWorkLogs(logged, required int) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		"every active labor item needs a work log before completion").
		WithDetails(map[string]any{
			"reason":   ReasonIncompleteWorkLogs,
			"logged":   logged,
			"required": required,
		})
}

// StateConflictReason extracts the reason detail from a state conflict error,
// or "" when the error is something else. Used by tests and controllers.
func StateConflictReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		return ""
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return ""
	}
	reason, _ := details["reason"].(string)
	return reason
}
