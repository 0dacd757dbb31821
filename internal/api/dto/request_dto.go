package dto

import (
	"time"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// CreateRequestRequest payload for a new booking request.
type CreateRequestRequest struct {
	ResourceID string                 `json:"resource_id"`
	Reason     string                 `json:"reason"`
	Priority   domain.RequestPriority `json:"priority"`
	NeededBy   *time.Time             `json:"needed_by"`
}

// DecisionRequest accompanies approve and reject calls.
type DecisionRequest struct {
	AdminNote string `json:"admin_note"`
}

// RequestResponse is the booking request shape, joined names included so
// listings render without extra lookups.
type RequestResponse struct {
	ID               string                  `json:"id"`
	UserID           string                  `json:"user_id"`
	ResourceID       string                  `json:"resource_id"`
	ResourceName     string                  `json:"resource_name,omitempty"`
	ResourceCategory domain.ResourceCategory `json:"resource_category,omitempty"`
	UserName         string                  `json:"user_name,omitempty"`
	UserEmail        string                  `json:"user_email,omitempty"`
	Reason           string                  `json:"reason"`
	Priority         domain.RequestPriority  `json:"priority"`
	NeededBy         *time.Time              `json:"needed_by"`
	Status           domain.RequestStatus    `json:"status"`
	AdminNote        string                  `json:"admin_note,omitempty"`
	ReviewedBy       *string                 `json:"reviewed_by"`
	ReviewerName     *string                 `json:"reviewer_name,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}
