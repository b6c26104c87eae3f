package workorders

import "github.com/motorhive/workshop-backend/pkg/enums"

// allowedTransitions is the full lifecycle table. A status missing from the
// map (closed, cancelled) is terminal.
var allowedTransitions = map[enums.WorkOrderStatus][]enums.WorkOrderStatus{
	enums.WorkOrderStatusNew:        {enums.WorkOrderStatusDiagnosed, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusDiagnosed:  {enums.WorkOrderStatusApproved, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusApproved:   {enums.WorkOrderStatusInProgress, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusInProgress: {enums.WorkOrderStatusPaused, enums.WorkOrderStatusCompleted, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusPaused:     {enums.WorkOrderStatusInProgress, enums.WorkOrderStatusCancelled},
	enums.WorkOrderStatusCompleted:  {enums.WorkOrderStatusInvoiced},
	enums.WorkOrderStatusInvoiced:   {enums.WorkOrderStatusPaid},
	enums.WorkOrderStatusPaid:       {enums.WorkOrderStatusClosed},
}

func transitionAllowed(from, to enums.WorkOrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// mechanicRequired reports whether a transition commits the shop to doing
// work and so needs an assigned mechanic. Cancelling never requires one, and
// neither does recording a diagnosis.
func mechanicRequired(from, to enums.WorkOrderStatus) bool {
	if to == enums.WorkOrderStatusCancelled || to == enums.WorkOrderStatusDiagnosed {
		return false
	}
	switch from {
	case enums.WorkOrderStatusNew,
		enums.WorkOrderStatusDiagnosed,
		enums.WorkOrderStatusApproved,
		enums.WorkOrderStatusInProgress,
		enums.WorkOrderStatusPaused:
		return true
	}
	return false
}
