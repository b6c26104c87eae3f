package enums

import "fmt"

// WorkOrderActivityType classifies entries in a work order's audit trail.
type WorkOrderActivityType string

const (
	WorkOrderActivityTypeCreated      WorkOrderActivityType = "created"
	WorkOrderActivityTypeStatusChange WorkOrderActivityType = "status_change"
	WorkOrderActivityTypeItemAdded    WorkOrderActivityType = "item_added"
	WorkOrderActivityTypeItemUpdated  WorkOrderActivityType = "item_updated"
	WorkOrderActivityTypeItemDeleted  WorkOrderActivityType = "item_deleted"
	WorkOrderActivityTypeUpdated      WorkOrderActivityType = "updated"
	WorkOrderActivityTypeWorkLog      WorkOrderActivityType = "work_log"
)

var validWorkOrderActivityTypes = []WorkOrderActivityType{
	WorkOrderActivityTypeCreated,
	WorkOrderActivityTypeStatusChange,
	WorkOrderActivityTypeItemAdded,
	WorkOrderActivityTypeItemUpdated,
	WorkOrderActivityTypeItemDeleted,
	WorkOrderActivityTypeUpdated,
	WorkOrderActivityTypeWorkLog,
}

// String implements fmt.Stringer.
func (w WorkOrderActivityType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderActivityType.
func (w WorkOrderActivityType) IsValid() bool {
	for _, candidate := range validWorkOrderActivityTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkOrderActivityType converts raw input into a WorkOrderActivityType.
func ParseWorkOrderActivityType(value string) (WorkOrderActivityType, error) {
	for _, candidate := range validWorkOrderActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order activity type %q", value)
}
