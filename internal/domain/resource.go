package domain

import "time"

// ResourceStatus enumerates catalog states.
type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "available"
	ResourceStatusInUse       ResourceStatus = "in-use"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
	ResourceStatusRetired     ResourceStatus = "retired"
)

// ResourceCategory is the fixed catalog taxonomy.
type ResourceCategory string

const (
	CategoryHardware  ResourceCategory = "hardware"
	CategorySoftware  ResourceCategory = "software"
	CategoryLicense   ResourceCategory = "license"
	CategoryEquipment ResourceCategory = "equipment"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c ResourceCategory) bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryLicense, CategoryEquipment:
		return true
	}
	return false
}

// Resource is a shareable catalog item with quantity bookkeeping.
// Invariant: 0 <= AvailableQty <= Quantity.
type Resource struct {
	ID           string
	Name         string
	Description  string
	Category     ResourceCategory
	Status       ResourceStatus
	Quantity     int
	AvailableQty int
	CostPerUnit  float64
	AssignedTo   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
