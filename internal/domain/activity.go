package domain

import "time"

// ActivityAction tags audit entries.
type ActivityAction string

const (
	ActionUserRegistered     ActivityAction = "user_registered"
	ActionUserCreatedByAdmin ActivityAction = "user_created_by_admin"
	ActionUserUpdated        ActivityAction = "user_updated"
	ActionUserBlocked        ActivityAction = "user_blocked"
	ActionUserDeleted        ActivityAction = "user_deleted"
	ActionResourceCreated    ActivityAction = "resource_created"
	ActionResourceUpdated    ActivityAction = "resource_updated"
	ActionResourceDeleted    ActivityAction = "resource_deleted"
	ActionRequestCreated     ActivityAction = "request_created"
	ActionRequestApproved    ActivityAction = "request_approved"
	ActionRequestRejected    ActivityAction = "request_rejected"
	ActionRequestCancelled   ActivityAction = "request_cancelled"
	ActionResourceReturned   ActivityAction = "resource_returned"
	ActionAllocationOverdue  ActivityAction = "allocation_overdue"
)

// Activity is an immutable audit record. UserID is nil for system actions.
type Activity struct {
	ID         string
	UserID     *string
	Action     ActivityAction
	Details    string
	EntityType string
	EntityID   *string
	CreatedAt  time.Time

	UserName *string
}
