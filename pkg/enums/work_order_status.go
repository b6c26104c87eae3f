package enums

import "fmt"

// WorkOrderStatus tracks the lifecycle of a repair order.
type WorkOrderStatus string

const (
	WorkOrderStatusNew        WorkOrderStatus = "new"
	WorkOrderStatusDiagnosed  WorkOrderStatus = "diagnosed"
	WorkOrderStatusApproved   WorkOrderStatus = "approved"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusPaused     WorkOrderStatus = "paused"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusInvoiced   WorkOrderStatus = "invoiced"
	WorkOrderStatusPaid       WorkOrderStatus = "paid"
	WorkOrderStatusClosed     WorkOrderStatus = "closed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

var validWorkOrderStatuses = []WorkOrderStatus{
	WorkOrderStatusNew,
	WorkOrderStatusDiagnosed,
	WorkOrderStatusApproved,
	WorkOrderStatusInProgress,
	WorkOrderStatusPaused,
	WorkOrderStatusCompleted,
	WorkOrderStatusInvoiced,
	WorkOrderStatusPaid,
	WorkOrderStatusClosed,
	WorkOrderStatusCancelled,
}

var workOrderStatusLabels = map[WorkOrderStatus]string{
	WorkOrderStatusNew:        "New",
	WorkOrderStatusDiagnosed:  "Diagnosed",
	WorkOrderStatusApproved:   "Approved",
	WorkOrderStatusInProgress: "In Progress",
	WorkOrderStatusPaused:     "Paused",
	WorkOrderStatusCompleted:  "Completed",
	WorkOrderStatusInvoiced:   "Invoiced",
	WorkOrderStatusPaid:       "Paid",
	WorkOrderStatusClosed:     "Closed",
	WorkOrderStatusCancelled:  "Cancelled",
}

// String implements fmt.Stringer.
func (w WorkOrderStatus) String() string {
	return string(w)
}

// Label returns the human-readable form used in activity entries.
func (w WorkOrderStatus) Label() string {
	if label, ok := workOrderStatusLabels[w]; ok {
		return label
	}
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderStatus.
func (w WorkOrderStatus) IsValid() bool {
	for _, candidate := range validWorkOrderStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (w WorkOrderStatus) IsTerminal() bool {
	return w == WorkOrderStatusClosed || w == WorkOrderStatusCancelled
}

// ParseWorkOrderStatus converts raw input into a WorkOrderStatus.
func ParseWorkOrderStatus(value string) (WorkOrderStatus, error) {
	for _, candidate := range validWorkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order status %q", value)
}
