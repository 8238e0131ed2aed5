package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/mq"
)

// NotificationService logs domain events and forwards them to a broker when one is
// configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  mq.Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher mq.Publisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every event the services emit.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("entity_id", event.EntityID),
		zap.Any("payload", event.Payload))
	if n.publisher == nil {
		return nil
	}
	if err := n.publisher.Publish(ctx, string(event.Type), event); err != nil {
		n.logger.Error("forward event", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}
