package dto

import (
	"time"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// AllocationResponse is the holding shape.
type AllocationResponse struct {
	ID               string                  `json:"id"`
	UserID           string                  `json:"user_id"`
	UserName         string                  `json:"user_name,omitempty"`
	ResourceID       string                  `json:"resource_id"`
	ResourceName     string                  `json:"resource_name,omitempty"`
	ResourceCategory domain.ResourceCategory `json:"resource_category,omitempty"`
	RequestID        *string                 `json:"request_id"`
	AssignedDate     time.Time               `json:"assigned_date"`
	ReturnDue        *time.Time              `json:"return_due"`
	ReturnedDate     *time.Time              `json:"returned_date"`
	Status           domain.AllocationStatus `json:"status"`
}
