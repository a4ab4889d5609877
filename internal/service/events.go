package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/observability"
	"github.com/influencelytic/marketplace/internal/queue"
	"go.uber.org/zap"
)

// Actor is the authenticated caller, resolved upstream and carried on every
// request.
type Actor struct {
	UserID string
	Role   domain.Role
}

// eventFanout publishes notification events to the in-app and email queues.
// Publishing happens after the state change is committed; a broker outage
// loses the notification, never the money movement, so failures are logged
// and swallowed.
type eventFanout struct {
	publisher queue.Publisher
	logger    *zap.Logger
}

func newEventFanout(publisher queue.Publisher, logger *zap.Logger) *eventFanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventFanout{publisher: publisher, logger: logger}
}

func (f *eventFanout) Dispatch(ctx context.Context, events ...domain.NotificationEvent) {
	if f == nil || f.publisher == nil {
		return
	}

	correlationID, _ := observability.CorrelationIDFromContext(ctx)

	for _, event := range events {
		msg := queue.NotificationMessage{
			EventID:       uuid.NewString(),
			CorrelationID: correlationID,
			UserID:        event.UserID,
			Type:          event.Type,
			Title:         event.Title,
			Message:       event.Message,
			Data:          event.Data,
		}

		for _, queueName := range queue.FanoutQueueNames() {
			if err := f.publisher.Publish(ctx, queueName, msg); err != nil {
				f.logger.Error("failed to publish notification event",
					zap.String("queue", queueName),
					zap.String("userId", event.UserID),
					zap.String("type", event.Type.String()),
					zap.Error(err),
				)
			}
		}
	}
}
