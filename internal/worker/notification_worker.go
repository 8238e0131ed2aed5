package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/mq"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// StartNotificationWorker registers notification handlers and closes publisher once ctx
// is done. The returned channel is closed after the publisher has shut down.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, publisher mq.Publisher, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	go func() {
		defer close(done)
		<-ctx.Done()
		if publisher == nil {
			return
		}
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", zap.Error(err))
		}
	}()
	return done
}
