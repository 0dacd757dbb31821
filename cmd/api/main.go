package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/resource-hub/internal/api/http"
	"github.com/spec-kit/resource-hub/internal/api/http/handlers"
	"github.com/spec-kit/resource-hub/internal/auth"
	"github.com/spec-kit/resource-hub/internal/config"
	"github.com/spec-kit/resource-hub/internal/events"
	"github.com/spec-kit/resource-hub/internal/observability"
	"github.com/spec-kit/resource-hub/internal/persistence"
	"github.com/spec-kit/resource-hub/internal/repository"
	"github.com/spec-kit/resource-hub/internal/service"
	"github.com/spec-kit/resource-hub/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("")
	dispatcher := events.NewInMemoryDispatcher(logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	allocationRepo := repository.NewAllocationRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(*cfg, userRepo, activityService)
	resourceService := service.NewResourceService(resourceRepo, allocationRepo, activityService)
	requestService := service.NewRequestService(cfg.Allocation, service.RequestDependencies{
		RequestRepo:    requestRepo,
		ResourceRepo:   resourceRepo,
		AllocationRepo: allocationRepo,
		Activity:       activityService,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
	})
	allocationService := service.NewAllocationService(allocationRepo, activityService, dispatcher, metrics)
	userAdminService := service.NewUserAdminService(*cfg, userRepo, activityService, dispatcher)
	dashboardService := service.NewDashboardService(cfg.Allocation, userRepo, resourceRepo, requestRepo, allocationRepo, activityRepo, redis, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Resources:      handlers.NewResourcesHandler(resourceService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Allocations:    handlers.NewAllocationsHandler(allocationService),
		Admin:          handlers.NewAdminHandler(userAdminService, activityService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware,
	})

	worker.StartNotificationWorker(notificationService)
	worker.StartOverdueWorker(ctx, allocationService, cfg.Allocation.OverdueSweepInterval(), logger)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
