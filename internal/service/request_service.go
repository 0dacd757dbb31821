package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resource-hub/internal/config"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/events"
	"github.com/spec-kit/resource-hub/internal/observability"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// RequestService is the request lifecycle engine. It owns every legal state
// transition and keeps resource availability consistent with them.
type RequestService struct {
	requests     repository.RequestRepository
	resources    repository.ResourceRepository
	allocations  repository.AllocationRepository
	activity     ActivityRecorder
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	returnWindow time.Duration
}

// RequestDependencies bundles collaborators for the lifecycle engine.
type RequestDependencies struct {
	RequestRepo    repository.RequestRepository
	ResourceRepo   repository.ResourceRepository
	AllocationRepo repository.AllocationRepository
	Activity       ActivityRecorder
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	ResourceID string
	Reason     string
	Priority   domain.RequestPriority
	NeededBy   *time.Time
}

// RequestListFilter describes listing filters.
type RequestListFilter struct {
	Status *domain.RequestStatus
	Limit  int
	Offset int
}

// NewRequestService constructs the service.
func NewRequestService(cfg config.AllocationConfig, deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:     deps.RequestRepo,
		resources:    deps.ResourceRepo,
		allocations:  deps.AllocationRepo,
		activity:     deps.Activity,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		returnWindow: cfg.ReturnWindow(),
	}
}

// Create validates and files a new pending request. The availability check
// here is advisory; the partial unique index on pending requests and the
// conditional decrement at approval are the authoritative guards.
func (s *RequestService) Create(ctx context.Context, requester *domain.User, input RequestCreateInput) (*domain.Request, error) {
	if input.ResourceID == "" {
		return nil, apperrors.NewValidationError("resource_id is required", nil)
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.NewValidationError("reason is required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}

	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("resource", map[string]any{"resource_id": input.ResourceID})
		}
		return nil, apperrors.MapError(err)
	}
	if resource.AvailableQty <= 0 {
		return nil, apperrors.NewConflict("resource is currently not available", nil)
	}

	request := &domain.Request{
		UserID:     requester.ID,
		ResourceID: resource.ID,
		Reason:     strings.TrimSpace(input.Reason),
		Priority:   input.Priority,
		NeededBy:   input.NeededBy,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("you already have a pending request for this resource", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordLifecycleOperation("create")
	s.activity.Record(ctx, &requester.ID, domain.ActionRequestCreated, "request", &request.ID,
		fmt.Sprintf("Requested resource: %s", resource.Name))
	s.publish(ctx, events.EventRequestCreated, &requester.ID, requestPayload(request))

	return s.requests.GetByID(ctx, request.ID)
}

// Approve moves a pending request to approved, consumes one resource unit and
// opens an allocation. Admin only. The repository performs the transition in a
// single transaction so the availability recheck and the decrement are atomic.
func (s *RequestService) Approve(ctx context.Context, actor *domain.User, requestID, adminNote string) (*domain.Request, *domain.Allocation, error) {
	if !actor.IsAdmin() {
		return nil, nil, apperrors.NewForbidden("only admins can approve requests")
	}

	returnDue := time.Now().Add(s.returnWindow)
	request, allocation, err := s.requests.Approve(ctx, requestID, actor.ID, adminNote, returnDue)
	if err != nil {
		return nil, nil, s.translateLifecycleError(err, requestID)
	}

	s.metrics.RecordLifecycleOperation("approve")
	s.activity.Record(ctx, &actor.ID, domain.ActionRequestApproved, "request", &request.ID,
		fmt.Sprintf("Approved request for resource: %s", request.ResourceName))
	s.publish(ctx, events.EventRequestApproved, &actor.ID, requestPayload(request))

	return request, allocation, nil
}

// Reject moves a pending request to rejected. Admin only; no resource change.
func (s *RequestService) Reject(ctx context.Context, actor *domain.User, requestID, adminNote string) (*domain.Request, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can reject requests")
	}

	request, err := s.requests.Reject(ctx, requestID, actor.ID, adminNote)
	if err != nil {
		return nil, s.translateLifecycleError(err, requestID)
	}

	s.metrics.RecordLifecycleOperation("reject")
	s.activity.Record(ctx, &actor.ID, domain.ActionRequestRejected, "request", &request.ID,
		fmt.Sprintf("Rejected request for resource: %s", request.ResourceName))
	s.publish(ctx, events.EventRequestRejected, &actor.ID, requestPayload(request))

	return request, nil
}

// Cancel soft-cancels the caller's own pending request. The row is kept so the
// audit trail stays intact.
func (s *RequestService) Cancel(ctx context.Context, actor *domain.User, requestID string) (*domain.Request, error) {
	existing, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, s.translateLifecycleError(err, requestID)
	}
	if existing.UserID != actor.ID {
		return nil, apperrors.NewForbidden("you can only cancel your own requests")
	}
	if existing.Status.Terminal() {
		return nil, apperrors.NewConflict("request is already closed", nil)
	}

	request, err := s.requests.Cancel(ctx, requestID)
	if err != nil {
		return nil, s.translateLifecycleError(err, requestID)
	}

	s.metrics.RecordLifecycleOperation("cancel")
	s.activity.Record(ctx, &actor.ID, domain.ActionRequestCancelled, "request", &request.ID,
		fmt.Sprintf("Cancelled request for resource: %s", request.ResourceName))
	s.publish(ctx, events.EventRequestCancelled, &actor.ID, requestPayload(request))

	return request, nil
}

// Get returns a single request; non-admin callers only see their own.
func (s *RequestService) Get(ctx context.Context, actor *domain.User, requestID string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, s.translateLifecycleError(err, requestID)
	}
	if !actor.IsAdmin() && request.UserID != actor.ID {
		return nil, apperrors.NewNotFound("request", nil)
	}
	return request, nil
}

// ListAll returns the admin view over every request.
func (s *RequestService) ListAll(ctx context.Context, actor *domain.User, filter RequestListFilter) ([]domain.Request, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.NewForbidden("admin role required")
	}
	items, total, err := s.requests.List(ctx, repository.RequestFilter{
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// ListMine returns the caller's own requests.
func (s *RequestService) ListMine(ctx context.Context, actor *domain.User, filter RequestListFilter) ([]domain.Request, int, error) {
	items, total, err := s.requests.List(ctx, repository.RequestFilter{
		UserID: &actor.ID,
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// Counts aggregates request totals; admins see global numbers, customers their own.
func (s *RequestService) Counts(ctx context.Context, actor *domain.User) (*domain.RequestCounts, error) {
	var userID *string
	if !actor.IsAdmin() {
		userID = &actor.ID
	}
	counts, err := s.requests.Counts(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

func (s *RequestService) translateLifecycleError(err error, requestID string) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	case errors.Is(err, repository.ErrRequestNotPending):
		return apperrors.NewConflict("request is no longer pending", nil)
	case errors.Is(err, repository.ErrResourceExhausted):
		return apperrors.NewConflict("resource has no available units", nil)
	default:
		return apperrors.MapError(err)
	}
}

func (s *RequestService) publish(ctx context.Context, eventType events.EventType, actorID *string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func requestPayload(request *domain.Request) events.RequestEventPayload {
	return events.RequestEventPayload{
		RequestID:    request.ID,
		ResourceID:   request.ResourceID,
		ResourceName: request.ResourceName,
		RequesterID:  request.UserID,
		Status:       request.Status,
		Priority:     request.Priority,
		AdminNote:    request.AdminNote,
	}
}
