package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/events"
	"github.com/spec-kit/resource-hub/internal/repository"
)

// The fakes below mimic the observable behavior of the Postgres
// repositories, including the sentinel errors the transactional paths
// surface, so the services can be exercised without a database.

type recordedActivity struct {
	userID *string
	action domain.ActivityAction
	entity string
	id     *string
}

type fakeActivityRecorder struct {
	entries []recordedActivity
}

func (f *fakeActivityRecorder) Record(_ context.Context, userID *string, action domain.ActivityAction, entityType string, entityID *string, _ string) {
	f.entries = append(f.entries, recordedActivity{userID: userID, action: action, entity: entityType, id: entityID})
}

func (f *fakeActivityRecorder) actions() []domain.ActivityAction {
	out := make([]domain.ActivityAction, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.action)
	}
	return out
}

type fakeDispatcher struct {
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (f *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	f.published = append(f.published, event)
	for _, h := range f.handlers[event.Type] {
		_ = h(ctx, event)
	}
	return nil
}

func (f *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	f.handlers[eventType] = append(f.handlers[eventType], handler)
}

func (f *fakeDispatcher) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "requests_one_pending_idx"}
}

type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return uniqueViolation()
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, u := range f.users {
		if u.Email == user.Email && u.ID != user.ID {
			return uniqueViolation()
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, int, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Counts(_ context.Context) (*repository.UserCounts, error) {
	counts := &repository.UserCounts{}
	for _, u := range f.users {
		counts.Total++
		if u.Status == domain.UserStatusActive {
			counts.Active++
		} else {
			counts.Inactive++
		}
	}
	return counts, nil
}

type fakeResourceRepo struct {
	resources map[string]*domain.Resource
	nextID    int
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: map[string]*domain.Resource{}}
}

func (f *fakeResourceRepo) add(resource *domain.Resource) *domain.Resource {
	f.nextID++
	if resource.ID == "" {
		resource.ID = fmt.Sprintf("res-%d", f.nextID)
	}
	cp := *resource
	f.resources[resource.ID] = &cp
	return f.resources[resource.ID]
}

func (f *fakeResourceRepo) Create(_ context.Context, resource *domain.Resource) error {
	f.add(resource)
	return nil
}

func (f *fakeResourceRepo) Update(_ context.Context, resource *domain.Resource) error {
	if _, ok := f.resources[resource.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *resource
	f.resources[resource.ID] = &cp
	return nil
}

func (f *fakeResourceRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.resources[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.resources, id)
	return nil
}

func (f *fakeResourceRepo) GetByID(_ context.Context, id string) (*domain.Resource, error) {
	r, ok := f.resources[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResourceRepo) List(_ context.Context, _ repository.ResourceFilter) ([]domain.Resource, int, error) {
	out := make([]domain.Resource, 0, len(f.resources))
	for _, r := range f.resources {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeResourceRepo) Stats(_ context.Context) (*repository.ResourceStats, error) {
	stats := &repository.ResourceStats{Categories: map[string]int{}}
	for _, r := range f.resources {
		stats.Total++
		stats.Categories[string(r.Category)]++
		switch r.Status {
		case domain.ResourceStatusAvailable:
			stats.Available++
		case domain.ResourceStatusInUse:
			stats.InUse++
		case domain.ResourceStatusMaintenance:
			stats.Maintenance++
		case domain.ResourceStatusRetired:
			stats.Retired++
		}
	}
	return stats, nil
}

func (f *fakeResourceRepo) CostOverview(_ context.Context) ([]repository.CategoryCost, error) {
	byCategory := map[domain.ResourceCategory]*repository.CategoryCost{}
	for _, r := range f.resources {
		entry, ok := byCategory[r.Category]
		if !ok {
			entry = &repository.CategoryCost{Category: r.Category}
			byCategory[r.Category] = entry
		}
		entry.TotalCost += r.CostPerUnit * float64(r.Quantity)
		entry.Count++
	}
	out := make([]repository.CategoryCost, 0, len(byCategory))
	for _, e := range byCategory {
		out = append(out, *e)
	}
	return out, nil
}

// fakeRequestRepo shares the resource map so approvals mutate availability
// the way the transactional SQL does.
type fakeRequestRepo struct {
	requests    map[string]*domain.Request
	resources   *fakeResourceRepo
	allocations *fakeAllocationRepo
	nextID      int
}

func newFakeRequestRepo(resources *fakeResourceRepo, allocations *fakeAllocationRepo) *fakeRequestRepo {
	return &fakeRequestRepo{
		requests:    map[string]*domain.Request{},
		resources:   resources,
		allocations: allocations,
	}
}

func (f *fakeRequestRepo) Create(_ context.Context, request *domain.Request) error {
	for _, r := range f.requests {
		if r.UserID == request.UserID && r.ResourceID == request.ResourceID && r.Status == domain.RequestStatusPending {
			return uniqueViolation()
		}
	}
	f.nextID++
	request.ID = fmt.Sprintf("req-%d", f.nextID)
	request.Status = domain.RequestStatusPending
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	if res, ok := f.resources.resources[request.ResourceID]; ok {
		request.ResourceName = res.Name
		request.ResourceCategory = res.Category
	}
	cp := *request
	f.requests[request.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]domain.Request, int, error) {
	out := make([]domain.Request, 0, len(f.requests))
	for _, r := range f.requests {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeRequestRepo) Counts(_ context.Context, userID *string) (*domain.RequestCounts, error) {
	counts := &domain.RequestCounts{}
	for _, r := range f.requests {
		if userID != nil && r.UserID != *userID {
			continue
		}
		counts.Total++
		switch r.Status {
		case domain.RequestStatusPending:
			counts.Pending++
		case domain.RequestStatusApproved:
			counts.Approved++
		case domain.RequestStatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (f *fakeRequestRepo) Approve(_ context.Context, id, reviewerID, adminNote string, returnDue time.Time) (*domain.Request, *domain.Allocation, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	if request.Status != domain.RequestStatusPending {
		return nil, nil, repository.ErrRequestNotPending
	}
	resource, ok := f.resources.resources[request.ResourceID]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	if resource.AvailableQty <= 0 {
		return nil, nil, repository.ErrResourceExhausted
	}
	resource.AvailableQty--
	if resource.AvailableQty == 0 {
		resource.Status = domain.ResourceStatusInUse
	}

	request.Status = domain.RequestStatusApproved
	request.ReviewedBy = &reviewerID
	request.AdminNote = adminNote
	request.UpdatedAt = time.Now()

	due := returnDue
	allocation := f.allocations.add(&domain.Allocation{
		UserID:       request.UserID,
		ResourceID:   request.ResourceID,
		RequestID:    &request.ID,
		AssignedDate: time.Now(),
		ReturnDue:    &due,
		Status:       domain.AllocationStatusActive,
		ResourceName: request.ResourceName,
	})

	reqCopy := *request
	allocCopy := *allocation
	return &reqCopy, &allocCopy, nil
}

func (f *fakeRequestRepo) Reject(_ context.Context, id, reviewerID, adminNote string) (*domain.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if request.Status != domain.RequestStatusPending {
		return nil, repository.ErrRequestNotPending
	}
	request.Status = domain.RequestStatusRejected
	request.ReviewedBy = &reviewerID
	request.AdminNote = adminNote
	cp := *request
	return &cp, nil
}

func (f *fakeRequestRepo) Cancel(_ context.Context, id string) (*domain.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if request.Status != domain.RequestStatusPending {
		return nil, repository.ErrRequestNotPending
	}
	request.Status = domain.RequestStatusCancelled
	cp := *request
	return &cp, nil
}

type fakeAllocationRepo struct {
	allocations map[string]*domain.Allocation
	resources   *fakeResourceRepo
	nextID      int
}

func newFakeAllocationRepo(resources *fakeResourceRepo) *fakeAllocationRepo {
	return &fakeAllocationRepo{allocations: map[string]*domain.Allocation{}, resources: resources}
}

func (f *fakeAllocationRepo) add(allocation *domain.Allocation) *domain.Allocation {
	f.nextID++
	allocation.ID = fmt.Sprintf("alloc-%d", f.nextID)
	allocation.CreatedAt = time.Now()
	cp := *allocation
	f.allocations[allocation.ID] = &cp
	return f.allocations[allocation.ID]
}

func (f *fakeAllocationRepo) GetByID(_ context.Context, id string) (*domain.Allocation, error) {
	a, ok := f.allocations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAllocationRepo) ListByUser(_ context.Context, userID string) ([]domain.Allocation, error) {
	out := []domain.Allocation{}
	for _, a := range f.allocations {
		if a.UserID == userID && a.Status != domain.AllocationStatusReturned {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAllocationRepo) ListAll(_ context.Context) ([]domain.Allocation, error) {
	out := []domain.Allocation{}
	for _, a := range f.allocations {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAllocationRepo) Return(_ context.Context, id string) (*domain.Allocation, error) {
	allocation, ok := f.allocations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !allocation.Status.Outstanding() {
		return nil, repository.ErrAllocationInactive
	}
	now := time.Now()
	allocation.Status = domain.AllocationStatusReturned
	allocation.ReturnedDate = &now

	if resource, ok := f.resources.resources[allocation.ResourceID]; ok {
		if resource.AvailableQty < resource.Quantity {
			resource.AvailableQty++
		}
		outstanding := 0
		for _, a := range f.allocations {
			if a.ResourceID == resource.ID && a.Status.Outstanding() {
				outstanding++
			}
		}
		if outstanding == 0 && resource.Status == domain.ResourceStatusInUse {
			resource.Status = domain.ResourceStatusAvailable
			resource.AssignedTo = nil
		}
	}

	cp := *allocation
	return &cp, nil
}

func (f *fakeAllocationRepo) MarkOverdue(_ context.Context, asOf time.Time) ([]domain.Allocation, error) {
	out := []domain.Allocation{}
	for _, a := range f.allocations {
		if a.Status == domain.AllocationStatusActive && a.ReturnDue != nil && a.ReturnDue.Before(asOf) {
			a.Status = domain.AllocationStatusOverdue
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAllocationRepo) CountActiveByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, a := range f.allocations {
		if a.UserID == userID && a.Status.Outstanding() {
			count++
		}
	}
	return count, nil
}

func (f *fakeAllocationRepo) NearestReturnDue(_ context.Context, userID string) (*time.Time, error) {
	var nearest *time.Time
	for _, a := range f.allocations {
		if a.UserID != userID || !a.Status.Outstanding() || a.ReturnDue == nil {
			continue
		}
		if nearest == nil || a.ReturnDue.Before(*nearest) {
			due := *a.ReturnDue
			nearest = &due
		}
	}
	return nearest, nil
}

type fakeActivityRepo struct {
	entries []domain.Activity
	nextID  int
}

func (f *fakeActivityRepo) Insert(_ context.Context, activity *domain.Activity) error {
	f.nextID++
	activity.ID = fmt.Sprintf("act-%d", f.nextID)
	f.entries = append(f.entries, *activity)
	return nil
}

func (f *fakeActivityRepo) Recent(_ context.Context, limit int) ([]domain.Activity, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]domain.Activity, limit)
	copy(out, f.entries[len(f.entries)-limit:])
	return out, nil
}

func (f *fakeActivityRepo) List(_ context.Context, filter repository.ActivityFilter) ([]domain.Activity, int, error) {
	out := []domain.Activity{}
	for _, e := range f.entries {
		if filter.UserID != nil && (e.UserID == nil || *e.UserID != *filter.UserID) {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}
