package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/config"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/events"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// UserAdminService covers the admin-only user management surface.
type UserAdminService struct {
	users      repository.UserRepository
	activity   ActivityRecorder
	dispatcher events.Dispatcher
	bcryptCost int
}

// AdminUserCreateInput describes an admin-created account.
type AdminUserCreateInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Company    string
	Phone      string
	Department string
	Role       domain.Role
}

// AdminUserUpdateInput carries allow-listed admin edits.
type AdminUserUpdateInput struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Company    *string
	Phone      *string
	Department *string
	Role       *domain.Role
	Status     *domain.UserStatus
	Password   *string
}

// NewUserAdminService constructs the service.
func NewUserAdminService(cfg config.Config, users repository.UserRepository, activity ActivityRecorder, dispatcher events.Dispatcher) *UserAdminService {
	return &UserAdminService{
		users:      users,
		activity:   activity,
		dispatcher: dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// List returns accounts matching the filter. Admin only.
func (s *UserAdminService) List(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.NewForbidden("admin role required")
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return users, total, nil
}

// Create adds an account on behalf of an admin.
func (s *UserAdminService) Create(ctx context.Context, actor *domain.User, input AdminUserCreateInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.FirstName == "" || input.LastName == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("first_name, last_name, email, password required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		Company:      input.Company,
		Phone:        input.Phone,
		Department:   input.Department,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.activity.Record(ctx, &actor.ID, domain.ActionUserCreatedByAdmin, "user", &user.ID,
		"Admin created user: "+user.FullName())
	return user, nil
}

// Update applies allow-listed edits to an account. Admin only. Flipping
// status to inactive blocks the account at the next token check.
func (s *UserAdminService) Update(ctx context.Context, actor *domain.User, id string, input AdminUserUpdateInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	blocked := false
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Company != nil {
		user.Company = *input.Company
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.Role != nil {
		if *input.Role != domain.RoleAdmin && *input.Role != domain.RoleCustomer {
			return nil, apperrors.NewValidationError("invalid role", nil)
		}
		user.Role = *input.Role
	}
	if input.Status != nil {
		blocked = *input.Status == domain.UserStatusInactive && user.Status == domain.UserStatusActive
		user.Status = *input.Status
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if blocked {
		s.activity.Record(ctx, &actor.ID, domain.ActionUserBlocked, "user", &user.ID,
			"Blocked user: "+user.FullName())
		s.publishUserEvent(ctx, events.EventUserBlocked, actor.ID, user)
	} else {
		s.activity.Record(ctx, &actor.ID, domain.ActionUserUpdated, "user", &user.ID,
			"Admin updated user: "+user.FullName())
	}
	return user, nil
}

// Delete removes an account. Self-deletion is forbidden; dependent requests
// and allocations cascade and audit rows keep a nulled actor per schema.
func (s *UserAdminService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if actor.ID == id {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return apperrors.MapError(err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}

	s.activity.Record(ctx, &actor.ID, domain.ActionUserDeleted, "user", &id,
		"Deleted user: "+user.FullName())
	s.publishUserEvent(ctx, events.EventUserDeleted, actor.ID, user)
	return nil
}

func (s *UserAdminService) publishUserEvent(ctx context.Context, eventType events.EventType, actorID string, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   &actorID,
		Timestamp: time.Now(),
		Payload:   events.UserEventPayload{UserID: user.ID, Email: user.Email},
	})
}
