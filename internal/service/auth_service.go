package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/config"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users          repository.UserRepository
	activity       ActivityRecorder
	tokenMgr       *auth.TokenManager
	bcryptCost     int
	bootstrapAdmin string
}

// RegisterInput describes self-service registration payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Company   string
	Phone     string
}

// ProfileUpdateInput carries the allow-listed profile fields.
type ProfileUpdateInput struct {
	FirstName  *string
	LastName   *string
	Company    *string
	Phone      *string
	Department *string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, activity ActivityRecorder) *AuthService {
	return &AuthService{
		users:          users,
		activity:       activity,
		tokenMgr:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLHours),
		bcryptCost:     cfg.Auth.BcryptCost,
		bootstrapAdmin: strings.ToLower(cfg.Auth.BootstrapAdminEmail),
	}
}

// Register creates a customer account and issues a token. A registration
// matching the configured bootstrap email is promoted to admin so a fresh
// deployment has an administrator without manual SQL.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.FirstName == "" || input.LastName == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("first_name, last_name, email, password required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	role := domain.RoleCustomer
	if s.bootstrapAdmin != "" && email == s.bootstrapAdmin {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		Company:      input.Company,
		Phone:        input.Phone,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	s.activity.Record(ctx, &user.ID, domain.ActionUserRegistered, "user", &user.ID,
		"Registered: "+user.FullName())

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates an account and issues a token. Blocked accounts are
// refused before the password check result is revealed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, apperrors.NewForbidden("account disabled")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// UpdateProfile applies allow-listed fields to the caller's own account.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
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
	if user.FirstName == "" || user.LastName == "" {
		return nil, apperrors.NewValidationError("first_name and last_name cannot be empty", nil)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.activity.Record(ctx, &actor.ID, domain.ActionUserUpdated, "user", &user.ID, "Profile updated")
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperrors.NewValidationError("new password must be at least 6 characters", nil)
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
