package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/resource-hub/internal/config"
	"github.com/spec-kit/resource-hub/internal/domain"
	"github.com/spec-kit/resource-hub/internal/persistence"
	"github.com/spec-kit/resource-hub/internal/repository"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

const adminStatsCacheKey = "dashboard:admin:stats"

// AdminDashboard aggregates the numbers behind the admin landing page.
type AdminDashboard struct {
	Users          *repository.UserCounts    `json:"users"`
	Resources      *repository.ResourceStats `json:"resources"`
	Requests       *domain.RequestCounts     `json:"requests"`
	CostOverview   []repository.CategoryCost `json:"cost_overview"`
	RecentActivity []domain.Activity         `json:"recent_activity"`
}

// CustomerDashboard summarises a customer's own holdings.
type CustomerDashboard struct {
	ActiveAllocations int                   `json:"active_allocations"`
	Requests          *domain.RequestCounts `json:"requests"`
	NextReturnDue     *time.Time            `json:"next_return_due,omitempty"`
	Allocations       []domain.Allocation   `json:"allocations"`
}

// DashboardService assembles aggregate views. Admin stats are cached in
// Redis under a short TTL since every aggregate query hits several tables.
type DashboardService struct {
	users       repository.UserRepository
	resources   repository.ResourceRepository
	requests    repository.RequestRepository
	allocations repository.AllocationRepository
	activity    repository.ActivityRepository
	cache       *persistence.Redis
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs the service. cache may be nil, in which
// case every call recomputes.
func NewDashboardService(
	cfg config.AllocationConfig,
	users repository.UserRepository,
	resources repository.ResourceRepository,
	requests repository.RequestRepository,
	allocations repository.AllocationRepository,
	activity repository.ActivityRepository,
	cache *persistence.Redis,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		users:       users,
		resources:   resources,
		requests:    requests,
		allocations: allocations,
		activity:    activity,
		cache:       cache,
		cacheTTL:    cfg.StatsCacheTTL(),
		logger:      logger,
	}
}

// Admin returns the admin dashboard, served from cache when fresh.
func (s *DashboardService) Admin(ctx context.Context, actor *domain.User) (*AdminDashboard, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	userCounts, err := s.users.Counts(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	resourceStats, err := s.resources.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	requestCounts, err := s.requests.Counts(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	costs, err := s.resources.CostOverview(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	recent, err := s.activity.Recent(ctx, 10)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dashboard := &AdminDashboard{
		Users:          userCounts,
		Resources:      resourceStats,
		Requests:       requestCounts,
		CostOverview:   costs,
		RecentActivity: recent,
	}
	s.toCache(ctx, dashboard)
	return dashboard, nil
}

// Customer returns the caller's own dashboard. No caching, the queries are
// narrow and per-user keys would churn.
func (s *DashboardService) Customer(ctx context.Context, actor *domain.User) (*CustomerDashboard, error) {
	active, err := s.allocations.CountActiveByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	counts, err := s.requests.Counts(ctx, &actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	nextDue, err := s.allocations.NearestReturnDue(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	allocations, err := s.allocations.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &CustomerDashboard{
		ActiveAllocations: active,
		Requests:          counts,
		NextReturnDue:     nextDue,
		Allocations:       allocations,
	}, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *AdminDashboard {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	var dashboard AdminDashboard
	err := s.cache.FetchJSON(ctx, adminStatsCacheKey, &dashboard)
	if err != nil {
		if !errors.Is(err, persistence.ErrCacheMiss) {
			s.logger.Warn("dashboard cache lookup failed", zap.Error(err))
		}
		return nil
	}
	return &dashboard
}

func (s *DashboardService) toCache(ctx context.Context, dashboard *AdminDashboard) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.CacheJSON(ctx, adminStatsCacheKey, dashboard, s.cacheTTL); err != nil {
		s.logger.Warn("unable to cache dashboard stats", zap.Error(err))
	}
}
