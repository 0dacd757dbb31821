package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/events"
	"github.com/spec-kit/resource-hub/internal/observability"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// AllocationService manages outstanding loans: listing, returning and the
// overdue sweep.
type AllocationService struct {
	allocations repository.AllocationRepository
	activity    ActivityRecorder
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
}

// NewAllocationService constructs the service.
func NewAllocationService(allocations repository.AllocationRepository, activity ActivityRecorder, dispatcher events.Dispatcher, metrics *observability.Metrics) *AllocationService {
	return &AllocationService{
		allocations: allocations,
		activity:    activity,
		dispatcher:  dispatcher,
		metrics:     metrics,
	}
}

// ListMine returns the caller's outstanding allocations.
func (s *AllocationService) ListMine(ctx context.Context, actor *domain.User) ([]domain.Allocation, error) {
	items, err := s.allocations.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListAll returns every allocation. Admin only.
func (s *AllocationService) ListAll(ctx context.Context, actor *domain.User) ([]domain.Allocation, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	items, err := s.allocations.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Return closes an outstanding allocation. Permitted to the holder or an
// admin; the repository restores resource availability transactionally.
func (s *AllocationService) Return(ctx context.Context, actor *domain.User, allocationID string) (*domain.Allocation, error) {
	existing, err := s.allocations.GetByID(ctx, allocationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("allocation", map[string]any{"allocation_id": allocationID})
		}
		return nil, apperrors.MapError(err)
	}
	if existing.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("you can only return your own allocations")
	}

	allocation, err := s.allocations.Return(ctx, allocationID)
	if err != nil {
		if errors.Is(err, repository.ErrAllocationInactive) {
			return nil, apperrors.NewConflict("allocation has already been returned", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordLifecycleOperation("return")
	s.activity.Record(ctx, &actor.ID, domain.ActionResourceReturned, "allocation", &allocation.ID,
		fmt.Sprintf("Returned resource: %s", allocation.ResourceName))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventResourceReturned,
			ActorID:   &actor.ID,
			Timestamp: time.Now(),
			Payload: events.AllocationEventPayload{
				AllocationID: allocation.ID,
				ResourceID:   allocation.ResourceID,
				HolderID:     allocation.UserID,
				ReturnDue:    allocation.ReturnDue,
			},
		})
	}
	return allocation, nil
}

// SweepOverdue flips active allocations past their due date to overdue and
// records one audit entry per allocation. Invoked by the background worker.
func (s *AllocationService) SweepOverdue(ctx context.Context, asOf time.Time) (int, error) {
	swept, err := s.allocations.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for i := range swept {
		allocation := &swept[i]
		s.activity.Record(ctx, nil, domain.ActionAllocationOverdue, "allocation", &allocation.ID,
			"Allocation passed its return due date")
		if s.dispatcher != nil {
			_ = s.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventAllocationOverdue,
				Timestamp: time.Now(),
				Payload: events.AllocationEventPayload{
					AllocationID: allocation.ID,
					ResourceID:   allocation.ResourceID,
					HolderID:     allocation.UserID,
					ReturnDue:    allocation.ReturnDue,
				},
			})
		}
	}
	s.metrics.RecordOverdue(len(swept))
	return len(swept), nil
}
