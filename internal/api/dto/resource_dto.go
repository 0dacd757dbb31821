package dto

import (
	"time"

	"github.com/spec-kit/resource-hub/internal/domain"
)

// CreateResourceRequest payload.
type CreateResourceRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Category    domain.ResourceCategory `json:"category"`
	Status      domain.ResourceStatus   `json:"status"`
	Quantity    int                     `json:"quantity"`
	CostPerUnit float64                 `json:"cost_per_unit"`
}

// UpdateResourceRequest carries allow-listed edits.
type UpdateResourceRequest struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Category    *domain.ResourceCategory `json:"category"`
	Status      *domain.ResourceStatus   `json:"status"`
	Quantity    *int                     `json:"quantity"`
	CostPerUnit *float64                 `json:"cost_per_unit"`
}

// ResourceResponse is the catalog entry shape.
type ResourceResponse struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Category     domain.ResourceCategory `json:"category"`
	Status       domain.ResourceStatus   `json:"status"`
	Quantity     int                     `json:"quantity"`
	AvailableQty int                     `json:"available_qty"`
	CostPerUnit  float64                 `json:"cost_per_unit"`
	AssignedTo   *string                 `json:"assigned_to"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}
