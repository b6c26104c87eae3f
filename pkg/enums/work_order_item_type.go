package enums

import "fmt"

// WorkOrderItemType distinguishes labor lines from part lines.
type WorkOrderItemType string

const (
	WorkOrderItemTypeLabor WorkOrderItemType = "labor"
	WorkOrderItemTypePart  WorkOrderItemType = "part"
)

var validWorkOrderItemTypes = []WorkOrderItemType{
	WorkOrderItemTypeLabor,
	WorkOrderItemTypePart,
}

// String implements fmt.Stringer.
func (w WorkOrderItemType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkOrderItemType.
func (w WorkOrderItemType) IsValid() bool {
	for _, candidate := range validWorkOrderItemTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkOrderItemType converts raw input into a WorkOrderItemType.
func ParseWorkOrderItemType(value string) (WorkOrderItemType, error) {
	for _, candidate := range validWorkOrderItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order item type %q", value)
}
