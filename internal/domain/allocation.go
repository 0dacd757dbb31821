package domain

import "time"

// AllocationStatus tracks an active loan through return.
type AllocationStatus string

const (
	AllocationStatusActive   AllocationStatus = "active"
	AllocationStatusReturned AllocationStatus = "returned"
	AllocationStatusOverdue  AllocationStatus = "overdue"
)

// Outstanding reports whether the allocation still consumes a resource unit.
func (s AllocationStatus) Outstanding() bool {
	return s == AllocationStatusActive || s == AllocationStatusOverdue
}

// Allocation records a resource checked out to a user following an approval.
type Allocation struct {
	ID           string
	UserID       string
	ResourceID   string
	RequestID    *string
	AssignedDate time.Time
	ReturnDue    *time.Time
	ReturnedDate *time.Time
	Status       AllocationStatus
	CreatedAt    time.Time

	// Denormalized for listings.
	ResourceName     string
	ResourceCategory ResourceCategory
	UserName         string
}
