package service

import (
	"context"
	"testing"

	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/events"
)

func newUserAdminFixture() (*UserAdminService, *fakeUserRepo, *fakeActivityRecorder, *fakeDispatcher) {
	users := newFakeUserRepo()
	activity := &fakeActivityRecorder{}
	dispatcher := newFakeDispatcher()
	svc := NewUserAdminService(testAuthConfig(""), users, activity, dispatcher)
	return svc, users, activity, dispatcher
}

func seedUser(t *testing.T, users *fakeUserRepo, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAdminCreateUser(t *testing.T) {
	svc, _, activity, _ := newUserAdminFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, adminUser(), AdminUserCreateInput{
		FirstName: "New",
		LastName:  "Hire",
		Email:     "Hire@Example.com",
		Password:  "secret1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Email != "hire@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("expected default customer role, got %s", user.Role)
	}
	if len(activity.entries) != 1 || activity.entries[0].action != domain.ActionUserCreatedByAdmin {
		t.Fatalf("expected user_created_by_admin activity, got %v", activity.actions())
	}
}

func TestAdminCreateUserGuards(t *testing.T) {
	svc, users, _, _ := newUserAdminFixture()
	ctx := context.Background()
	seedUser(t, users, "taken@example.com", domain.RoleCustomer)

	_, err := svc.Create(ctx, customerUser("cust-1"), AdminUserCreateInput{
		FirstName: "A", LastName: "B", Email: "x@y.com", Password: "p",
	})
	assertStatus(t, err, 403)

	_, err = svc.Create(ctx, adminUser(), AdminUserCreateInput{Email: "x@y.com"})
	assertStatus(t, err, 400)

	_, err = svc.Create(ctx, adminUser(), AdminUserCreateInput{
		FirstName: "A", LastName: "B", Email: "x@y.com", Password: "p", Role: "superuser",
	})
	assertStatus(t, err, 400)

	_, err = svc.Create(ctx, adminUser(), AdminUserCreateInput{
		FirstName: "A", LastName: "B", Email: "taken@example.com", Password: "p",
	})
	assertStatus(t, err, 409)
}

func TestAdminBlockUserEmitsEvent(t *testing.T) {
	svc, users, activity, dispatcher := newUserAdminFixture()
	ctx := context.Background()
	target := seedUser(t, users, "victim@example.com", domain.RoleCustomer)

	inactive := domain.UserStatusInactive
	updated, err := svc.Update(ctx, adminUser(), target.ID, AdminUserUpdateInput{Status: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.UserStatusInactive {
		t.Fatalf("expected inactive, got %s", updated.Status)
	}

	found := false
	for _, e := range activity.entries {
		if e.action == domain.ActionUserBlocked {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected user_blocked activity, got %v", activity.actions())
	}
	if len(dispatcher.published) != 1 || dispatcher.published[0].Type != events.EventUserBlocked {
		t.Fatalf("expected user_blocked event, got %v", dispatcher.eventTypes())
	}
}

func TestAdminDeleteUser(t *testing.T) {
	svc, users, _, dispatcher := newUserAdminFixture()
	ctx := context.Background()
	admin := adminUser()
	target := seedUser(t, users, "victim@example.com", domain.RoleCustomer)

	// Self deletion is refused.
	self := seedUser(t, users, "me@example.com", domain.RoleAdmin)
	err := svc.Delete(ctx, self, self.ID)
	assertStatus(t, err, 400)

	err = svc.Delete(ctx, customerUser("cust-1"), target.ID)
	assertStatus(t, err, 403)

	if err := svc.Delete(ctx, admin, target.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := users.users[target.ID]; ok {
		t.Fatal("expected user removed")
	}
	if len(dispatcher.published) != 1 || dispatcher.published[0].Type != events.EventUserDeleted {
		t.Fatalf("expected user_deleted event, got %v", dispatcher.eventTypes())
	}

	err = svc.Delete(ctx, admin, "missing")
	assertStatus(t, err, 404)
}

func TestAdminUpdateUserRoleValidation(t *testing.T) {
	svc, users, _, _ := newUserAdminFixture()
	ctx := context.Background()
	target := seedUser(t, users, "victim@example.com", domain.RoleCustomer)

	bad := domain.Role("superuser")
	_, err := svc.Update(ctx, adminUser(), target.ID, AdminUserUpdateInput{Role: &bad})
	assertStatus(t, err, 400)

	promote := domain.RoleAdmin
	updated, err := svc.Update(ctx, adminUser(), target.ID, AdminUserUpdateInput{Role: &promote})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("expected promoted role, got %s", updated.Role)
	}
}
