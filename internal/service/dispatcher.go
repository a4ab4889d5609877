package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/observability"
	"github.com/influencelytic/marketplace/internal/provider"
	"github.com/influencelytic/marketplace/internal/queue"
	"github.com/influencelytic/marketplace/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minDispatcherConcurrency = 1

// Email templates by notification type. SendGrid dynamic template ids are
// resolved at deploy time; these are the logical names.
var emailTemplates = map[domain.NotificationType]string{
	domain.NotificationApplicationStatus: "application-status",
	domain.NotificationPaymentReceived:   "payment-received",
	domain.NotificationPaymentProcessed:  "payment-processed",
	domain.NotificationPaymentFailed:     "payment-failed",
	domain.NotificationPayoutFailed:      "payout-failed",
}

// DispatchWorker drains the notification fan-out queues: the in-app queue
// persists notification rows, the email queue sends templated mail.
type DispatchWorker struct {
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	consumer      queue.Consumer
	mailer        provider.Mailer
	metrics       *observability.Metrics
	logger        *zap.Logger
	concurrency   int
}

func NewDispatchWorker(
	notifications repository.NotificationRepository,
	profiles repository.ProfileRepository,
	consumer queue.Consumer,
	mailer provider.Mailer,
	metrics *observability.Metrics,
	concurrency int,
	logger *zap.Logger,
) (*DispatchWorker, error) {
	if concurrency < minDispatcherConcurrency {
		concurrency = minDispatcherConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchWorker{
		notifications: notifications,
		profiles:      profiles,
		consumer:      consumer,
		mailer:        mailer,
		metrics:       metrics,
		logger:        logger,
		concurrency:   concurrency,
	}, nil
}

// Start consumes the fan-out queues until context cancellation.
func (w *DispatchWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.FanoutQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no fan-out queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("dispatcher started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			handler := w.handlerFor(queueName)
			err := w.consumer.Consume(groupCtx, queueName, handler)
			if err != nil {
				w.logger.Error("dispatcher stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("dispatcher stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (w *DispatchWorker) handlerFor(queueName string) queue.MessageHandler {
	var deliver queue.MessageHandler
	switch queueName {
	case queue.EmailQueue:
		deliver = w.deliverEmail
	default:
		deliver = w.deliverInApp
	}

	return func(ctx context.Context, msg queue.NotificationMessage) error {
		if w.metrics != nil {
			w.metrics.IncDispatcherInFlight(queueName)
			defer w.metrics.DecDispatcherInFlight(queueName)
		}

		err := deliver(ctx, msg)
		if w.metrics != nil {
			outcome := "delivered"
			if err != nil {
				outcome = "failed"
			}
			w.metrics.IncNotificationDispatched(queueName, outcome)
		}
		return err
	}
}

func (w *DispatchWorker) deliverInApp(ctx context.Context, msg queue.NotificationMessage) error {
	notification := &domain.Notification{
		ID:      uuid.NewString(),
		UserID:  msg.UserID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Message,
		Data:    msg.Data,
	}
	if err := w.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}
	return nil
}

func (w *DispatchWorker) deliverEmail(ctx context.Context, msg queue.NotificationMessage) error {
	if w.mailer == nil {
		// Email delivery is optional; without a mailer the message is
		// acknowledged, not dead-lettered.
		w.logger.Debug("no mailer configured, dropping email notification",
			zap.String("eventId", msg.EventID),
		)
		return nil
	}

	profile, err := w.profiles.GetByID(ctx, msg.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.logger.Warn("email recipient profile not found, skipping",
				zap.String("userId", msg.UserID),
			)
			return nil
		}
		return fmt.Errorf("failed to load recipient profile: %w", err)
	}

	email := provider.Email{
		To:         profile.Email,
		Subject:    msg.Title,
		TemplateID: emailTemplates[msg.Type],
		Data:       msg.Data,
	}
	if err := w.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}
