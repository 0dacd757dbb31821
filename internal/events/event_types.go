package events

import (
	"time"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated    EventType = "request_created"
	EventRequestApproved   EventType = "request_approved"
	EventRequestRejected   EventType = "request_rejected"
	EventRequestCancelled  EventType = "request_cancelled"
	EventResourceReturned  EventType = "resource_returned"
	EventAllocationOverdue EventType = "allocation_overdue"
	EventUserBlocked       EventType = "user_blocked"
	EventUserDeleted       EventType = "user_deleted"
)

// Event represents a domain event emitted by services. ActorID is nil for
// system-originated events such as the overdue sweep.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestEventPayload accompanies request lifecycle events.
type RequestEventPayload struct {
	RequestID    string                 `json:"request_id"`
	ResourceID   string                 `json:"resource_id"`
	ResourceName string                 `json:"resource_name"`
	RequesterID  string                 `json:"requester_id"`
	Status       domain.RequestStatus   `json:"status"`
	Priority     domain.RequestPriority `json:"priority,omitempty"`
	AdminNote    string                 `json:"admin_note,omitempty"`
}

// AllocationEventPayload accompanies allocation events.
type AllocationEventPayload struct {
	AllocationID string     `json:"allocation_id"`
	ResourceID   string     `json:"resource_id"`
	HolderID     string     `json:"holder_id"`
	ReturnDue    *time.Time `json:"return_due,omitempty"`
}

// UserEventPayload accompanies account administration events.
type UserEventPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}
