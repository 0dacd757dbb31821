package domain

import "time"

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether the status accepts no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCancelled
}

// RequestPriority is inert metadata carried on a request.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// Request is a user's ask to use a resource, subject to review.
type Request struct {
	ID         string
	UserID     string
	ResourceID string
	Reason     string
	Priority   RequestPriority
	NeededBy   *time.Time
	Status     RequestStatus
	AdminNote  string
	ReviewedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Denormalized for listings; populated by joins, never written back.
	ResourceName     string
	ResourceCategory ResourceCategory
	UserName         string
	UserEmail        string
	ReviewerName     *string
}

// RequestCounts aggregates request totals by status.
type RequestCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
