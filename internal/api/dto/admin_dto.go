package dto

import (
	"time"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// AdminCreateUserRequest payload for admin account creation.
type AdminCreateUserRequest struct {
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Company    string      `json:"company"`
	Phone      string      `json:"phone"`
	Department string      `json:"department"`
	Role       domain.Role `json:"role"`
}

// AdminUpdateUserRequest carries allow-listed admin edits.
type AdminUpdateUserRequest struct {
	FirstName  *string            `json:"first_name"`
	LastName   *string            `json:"last_name"`
	Email      *string            `json:"email"`
	Company    *string            `json:"company"`
	Phone      *string            `json:"phone"`
	Department *string            `json:"department"`
	Role       *domain.Role       `json:"role"`
	Status     *domain.UserStatus `json:"status"`
	Password   *string            `json:"password"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID         string                `json:"id"`
	UserID     *string               `json:"user_id"`
	UserName   *string               `json:"user_name,omitempty"`
	Action     domain.ActivityAction `json:"action"`
	Details    string                `json:"details"`
	EntityType string                `json:"entity_type,omitempty"`
	EntityID   *string               `json:"entity_id,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// PageMeta accompanies paged listings.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}
