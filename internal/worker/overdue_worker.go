package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/resource-hub/internal/service"
)

// StartOverdueWorker runs the overdue allocation sweep on a fixed interval
// until the context is cancelled. The first sweep runs immediately so a
// freshly started instance does not wait a full interval to catch up.
func StartOverdueWorker(ctx context.Context, allocations *service.AllocationService, interval time.Duration, logger *zap.Logger) {
	if allocations == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sweep(ctx, allocations, logger)
		for {
			select {
			case <-ctx.Done():
				logger.Info("overdue worker stopped")
				return
			case <-ticker.C:
				sweep(ctx, allocations, logger)
			}
		}
	}()
}

func sweep(ctx context.Context, allocations *service.AllocationService, logger *zap.Logger) {
	marked, err := allocations.SweepOverdue(ctx, time.Now())
	if err != nil {
		logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if marked > 0 {
		logger.Info("overdue sweep complete", zap.Int("marked", marked))
	}
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
