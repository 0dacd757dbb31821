package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

// ActivityRecorder is the write side of the audit trail. Recording is
// best-effort: a failed insert never fails the business operation.
type ActivityRecorder interface {
	Record(ctx context.Context, userID *string, action domain.ActivityAction, entityType string, entityID *string, details string)
}

// ActivityService records and queries the audit trail.
type ActivityService struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(repo repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

// Record appends an audit entry. Failures are logged and swallowed.
func (s *ActivityService) Record(ctx context.Context, userID *string, action domain.ActivityAction, entityType string, entityID *string, details string) {
	entry := &domain.Activity{
		UserID:     userID,
		Action:     action,
		Details:    details,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed",
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// Recent returns the newest audit entries.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// List returns filtered audit entries with a total count.
func (s *ActivityService) List(ctx context.Context, filter repository.ActivityFilter) ([]domain.Activity, int, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return entries, total, nil
}
