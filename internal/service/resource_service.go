package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// ResourceService manages the catalog. Quantity counters are only ever moved
// by the request lifecycle engine; the update path here rejects attempts to
// edit them directly while allocations are outstanding.
type ResourceService struct {
	resources   repository.ResourceRepository
	allocations repository.AllocationRepository
	activity    ActivityRecorder
}

// ResourceCreateInput describes catalog creation payload.
type ResourceCreateInput struct {
	Name        string
	Description string
	Category    domain.ResourceCategory
	Status      domain.ResourceStatus
	Quantity    int
	CostPerUnit float64
}

// ResourceUpdateInput carries the allow-listed editable fields.
type ResourceUpdateInput struct {
	Name        *string
	Description *string
	Category    *domain.ResourceCategory
	Status      *domain.ResourceStatus
	Quantity    *int
	CostPerUnit *float64
}

// NewResourceService constructs the service.
func NewResourceService(resources repository.ResourceRepository, allocations repository.AllocationRepository, activity ActivityRecorder) *ResourceService {
	return &ResourceService{resources: resources, allocations: allocations, activity: activity}
}

// Create adds a catalog entry. Admin only.
func (s *ResourceService) Create(ctx context.Context, actor *domain.User, input ResourceCreateInput) (*domain.Resource, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can create resources")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	if input.Status == "" {
		input.Status = domain.ResourceStatusAvailable
	}

	resource := &domain.Resource{
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Category:     input.Category,
		Status:       input.Status,
		Quantity:     input.Quantity,
		AvailableQty: input.Quantity,
		CostPerUnit:  input.CostPerUnit,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.activity.Record(ctx, &actor.ID, domain.ActionResourceCreated, "resource", &resource.ID,
		fmt.Sprintf("Created resource: %s", resource.Name))
	return resource, nil
}

// Get returns a catalog entry.
func (s *ResourceService) Get(ctx context.Context, id string) (*domain.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("resource", map[string]any{"resource_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return resource, nil
}

// List searches the catalog.
func (s *ResourceService) List(ctx context.Context, filter repository.ResourceFilter) ([]domain.Resource, int, error) {
	items, total, err := s.resources.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// Update applies allow-listed edits. Admin only. Quantity edits are refused
// while the resource has outstanding allocations, because the lifecycle
// engine owns the counter then.
func (s *ResourceService) Update(ctx context.Context, actor *domain.User, id string, input ResourceUpdateInput) (*domain.Resource, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can update resources")
	}

	resource, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Quantity != nil && *input.Quantity != resource.Quantity {
		outstanding := resource.Quantity - resource.AvailableQty
		if outstanding > 0 {
			return nil, apperrors.NewConflict("cannot change quantity while units are allocated", map[string]any{
				"outstanding": outstanding,
			})
		}
		if *input.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", nil)
		}
		resource.Quantity = *input.Quantity
		resource.AvailableQty = *input.Quantity
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		resource.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		resource.Description = *input.Description
	}
	if input.Category != nil {
		if !domain.ValidCategory(*input.Category) {
			return nil, apperrors.NewValidationError("invalid category", nil)
		}
		resource.Category = *input.Category
	}
	if input.Status != nil {
		resource.Status = *input.Status
	}
	if input.CostPerUnit != nil {
		resource.CostPerUnit = *input.CostPerUnit
	}

	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.activity.Record(ctx, &actor.ID, domain.ActionResourceUpdated, "resource", &resource.ID,
		fmt.Sprintf("Updated resource: %s", resource.Name))
	return resource, nil
}

// Delete removes a catalog entry; dependent requests and allocations cascade
// per schema. Admin only.
func (s *ResourceService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("only admins can delete resources")
	}

	resource, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}

	s.activity.Record(ctx, &actor.ID, domain.ActionResourceDeleted, "resource", &id,
		fmt.Sprintf("Deleted resource: %s", resource.Name))
	return nil
}
