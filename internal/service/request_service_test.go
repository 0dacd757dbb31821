package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/resource-hub/internal/config"
	"github.com/spec-kit/resource-hub/internal/domain"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

type lifecycleFixture struct {
	service     *RequestService
	resources   *fakeResourceRepo
	requests    *fakeRequestRepo
	allocations *fakeAllocationRepo
	activity    *fakeActivityRecorder
	dispatcher  *fakeDispatcher
}

func newLifecycleFixture() *lifecycleFixture {
	resources := newFakeResourceRepo()
	allocations := newFakeAllocationRepo(resources)
	requests := newFakeRequestRepo(resources, allocations)
	activity := &fakeActivityRecorder{}
	dispatcher := newFakeDispatcher()

	svc := NewRequestService(config.AllocationConfig{ReturnWindowDays: 30}, RequestDependencies{
		RequestRepo:    requests,
		ResourceRepo:   resources,
		AllocationRepo: allocations,
		Activity:       activity,
		Dispatcher:     dispatcher,
	})
	return &lifecycleFixture{
		service:     svc,
		resources:   resources,
		requests:    requests,
		allocations: allocations,
		activity:    activity,
		dispatcher:  dispatcher,
	}
}

func (f *lifecycleFixture) addResource(name string, quantity int) *domain.Resource {
	return f.resources.add(&domain.Resource{
		Name:         name,
		Category:     domain.CategoryHardware,
		Status:       domain.ResourceStatusAvailable,
		Quantity:     quantity,
		AvailableQty: quantity,
	})
}

func adminUser() *domain.User {
	return &domain.User{ID: "admin-1", Role: domain.RoleAdmin, Status: domain.UserStatusActive}
}

func customerUser(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleCustomer, Status: domain.UserStatusActive}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	got := apperrors.ToDomainError(err).HTTPStatus
	if got != want {
		t.Fatalf("expected HTTP status %d, got %d (%v)", want, got, err)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	requester := customerUser("cust-1")

	cases := []struct {
		name  string
		input RequestCreateInput
	}{
		{"missing resource", RequestCreateInput{Reason: "need it"}},
		{"missing reason", RequestCreateInput{ResourceID: "res-1"}},
		{"blank reason", RequestCreateInput{ResourceID: "res-1", Reason: "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, requester, tc.input)
			assertStatus(t, err, 400)
		})
	}
}

func TestCreateRequestUnknownResource(t *testing.T) {
	f := newLifecycleFixture()
	_, err := f.service.Create(context.Background(), customerUser("cust-1"), RequestCreateInput{
		ResourceID: "missing", Reason: "need it",
	})
	assertStatus(t, err, 404)
}

func TestCreateRequestExhaustedResource(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 1)
	resource.AvailableQty = 0

	_, err := f.service.Create(context.Background(), customerUser("cust-1"), RequestCreateInput{
		ResourceID: resource.ID, Reason: "need it",
	})
	assertStatus(t, err, 409)
}

func TestCreateRequestDefaultsPriorityAndRecordsActivity(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 2)
	ctx := context.Background()

	request, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{
		ResourceID: resource.ID, Reason: "  field work  ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if request.Status != domain.RequestStatusPending {
		t.Fatalf("expected pending, got %s", request.Status)
	}
	if request.Priority != domain.PriorityMedium {
		t.Fatalf("expected default medium priority, got %s", request.Priority)
	}
	if request.Reason != "field work" {
		t.Fatalf("expected trimmed reason, got %q", request.Reason)
	}
	if len(f.activity.entries) != 1 || f.activity.entries[0].action != domain.ActionRequestCreated {
		t.Fatalf("expected one request_created activity entry, got %v", f.activity.actions())
	}
	if len(f.dispatcher.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(f.dispatcher.published))
	}
}

func TestCreateRequestDuplicatePending(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 5)
	ctx := context.Background()
	requester := customerUser("cust-1")

	if _, err := f.service.Create(ctx, requester, RequestCreateInput{ResourceID: resource.ID, Reason: "first"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.service.Create(ctx, requester, RequestCreateInput{ResourceID: resource.ID, Reason: "second"})
	assertStatus(t, err, 409)

	// A different user is not blocked by the first request.
	if _, err := f.service.Create(ctx, customerUser("cust-2"), RequestCreateInput{ResourceID: resource.ID, Reason: "other"}); err != nil {
		t.Fatalf("second user create: %v", err)
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newLifecycleFixture()
	_, _, err := f.service.Approve(context.Background(), customerUser("cust-1"), "req-1", "")
	assertStatus(t, err, 403)
}

func TestApproveConsumesUnitAndOpensAllocation(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 1)
	ctx := context.Background()
	requester := customerUser("cust-1")
	admin := adminUser()

	created, err := f.service.Create(ctx, requester, RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before := time.Now()
	request, allocation, err := f.service.Approve(ctx, admin, created.ID, "go ahead")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if request.Status != domain.RequestStatusApproved {
		t.Fatalf("expected approved, got %s", request.Status)
	}
	if request.ReviewedBy == nil || *request.ReviewedBy != admin.ID {
		t.Fatalf("expected reviewer %s, got %v", admin.ID, request.ReviewedBy)
	}
	if allocation.Status != domain.AllocationStatusActive {
		t.Fatalf("expected active allocation, got %s", allocation.Status)
	}
	if allocation.ReturnDue == nil {
		t.Fatal("expected a return due date")
	}
	wantDue := before.Add(30 * 24 * time.Hour)
	if diff := allocation.ReturnDue.Sub(wantDue); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expected return due ~30 days out, got %v", allocation.ReturnDue)
	}

	updated := f.resources.resources[resource.ID]
	if updated.AvailableQty != 0 {
		t.Fatalf("expected available qty 0, got %d", updated.AvailableQty)
	}
	if updated.Status != domain.ResourceStatusInUse {
		t.Fatalf("expected in-use once exhausted, got %s", updated.Status)
	}
}

func TestApproveTwiceConflicts(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 2)
	ctx := context.Background()
	admin := adminUser()

	created, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := f.service.Approve(ctx, admin, created.ID, ""); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, _, err = f.service.Approve(ctx, admin, created.ID, "")
	assertStatus(t, err, 409)

	// Only one unit was consumed.
	if got := f.resources.resources[resource.ID].AvailableQty; got != 1 {
		t.Fatalf("expected available qty 1, got %d", got)
	}
}

func TestApproveExhaustedResourceConflicts(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 1)
	ctx := context.Background()
	admin := adminUser()

	first, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{ResourceID: resource.ID, Reason: "a"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := f.service.Create(ctx, customerUser("cust-2"), RequestCreateInput{ResourceID: resource.ID, Reason: "b"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, _, err := f.service.Approve(ctx, admin, first.ID, ""); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	_, _, err = f.service.Approve(ctx, admin, second.ID, "")
	assertStatus(t, err, 409)

	// The losing request stays pending for a later retry.
	got, _ := f.requests.GetByID(ctx, second.ID)
	if got.Status != domain.RequestStatusPending {
		t.Fatalf("expected second request still pending, got %s", got.Status)
	}
}

func TestRejectLeavesAvailabilityUntouched(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 3)
	ctx := context.Background()

	created, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	request, err := f.service.Reject(ctx, adminUser(), created.ID, "no budget")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if request.Status != domain.RequestStatusRejected {
		t.Fatalf("expected rejected, got %s", request.Status)
	}
	if request.AdminNote != "no budget" {
		t.Fatalf("expected admin note kept, got %q", request.AdminNote)
	}
	if got := f.resources.resources[resource.ID].AvailableQty; got != 3 {
		t.Fatalf("expected untouched availability, got %d", got)
	}
}

func TestRejectRequiresAdmin(t *testing.T) {
	f := newLifecycleFixture()
	_, err := f.service.Reject(context.Background(), customerUser("cust-1"), "req-1", "")
	assertStatus(t, err, 403)
}

func TestCancelOwnRequestOnly(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 3)
	ctx := context.Background()

	created, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.service.Cancel(ctx, customerUser("cust-2"), created.ID)
	assertStatus(t, err, 403)

	request, err := f.service.Cancel(ctx, customerUser("cust-1"), created.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if request.Status != domain.RequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", request.Status)
	}

	// The row survives as a soft cancel.
	if _, err := f.requests.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("expected cancelled request kept: %v", err)
	}
}

func TestCancelNonPendingConflicts(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 3)
	ctx := context.Background()
	requester := customerUser("cust-1")

	created, err := f.service.Create(ctx, requester, RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := f.service.Approve(ctx, adminUser(), created.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err = f.service.Cancel(ctx, requester, created.ID)
	assertStatus(t, err, 409)
}

func TestCancelClosedRequestConflicts(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 3)
	ctx := context.Background()
	requester := customerUser("cust-1")

	created, err := f.service.Create(ctx, requester, RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Cancel(ctx, requester, created.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err = f.service.Cancel(ctx, requester, created.ID)
	assertStatus(t, err, 409)
	if msg := apperrors.ToDomainError(err).Message; msg != "request is already closed" {
		t.Fatalf("unexpected conflict message %q", msg)
	}
}

func TestGetHidesForeignRequests(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 3)
	ctx := context.Background()

	created, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{ResourceID: resource.ID, Reason: "need it"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.service.Get(ctx, customerUser("cust-2"), created.ID)
	assertStatus(t, err, 404)

	if _, err := f.service.Get(ctx, adminUser(), created.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	f := newLifecycleFixture()
	_, _, err := f.service.ListAll(context.Background(), customerUser("cust-1"), RequestListFilter{})
	assertStatus(t, err, 403)
}

func TestCountsScopedByRole(t *testing.T) {
	f := newLifecycleFixture()
	resource := f.addResource("Laptop", 5)
	ctx := context.Background()

	if _, err := f.service.Create(ctx, customerUser("cust-1"), RequestCreateInput{ResourceID: resource.ID, Reason: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Create(ctx, customerUser("cust-2"), RequestCreateInput{ResourceID: resource.ID, Reason: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := f.service.Counts(ctx, customerUser("cust-1"))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if mine.Total != 1 || mine.Pending != 1 {
		t.Fatalf("expected own counts 1/1, got %+v", mine)
	}

	global, err := f.service.Counts(ctx, adminUser())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if global.Total != 2 {
		t.Fatalf("expected global total 2, got %+v", global)
	}
}
