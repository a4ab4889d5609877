package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/observability"
	"github.com/influencelytic/marketplace/internal/queue"
	"github.com/influencelytic/marketplace/internal/repository"
	"go.uber.org/zap"
)

// PaymentSettler is the slice of the payment orchestrator the webhook
// reconciler drives.
type PaymentSettler interface {
	HandlePaymentSuccess(ctx context.Context, paymentIntentID string) error
	HandlePaymentFailure(ctx context.Context, paymentIntentID string) error
}

// EventDeduper records processor event ids so replayed deliveries are
// processed once. A claim taken for a delivery that then fails must be
// released: the processor retries with the same event id, and that retry is
// the only convergence path for a stranded pending transaction.
type EventDeduper interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// webhookEnvelope is the subset of the processor's event payload the
// reconciler reads. Account is only set on Connect events.
type webhookEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Account string `json:"account"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type intentObject struct {
	ID string `json:"id"`
}

type accountObject struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

type payoutObject struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// WebhookService reconciles processor events with local state. Signature
// verification happens in the handler before the body reaches this service.
type WebhookService struct {
	payments PaymentSettler
	profiles repository.ProfileRepository
	dedup    EventDeduper
	fanout   *eventFanout
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewWebhookService(
	payments PaymentSettler,
	profiles repository.ProfileRepository,
	dedup EventDeduper,
	publisher queue.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*WebhookService, error) {
	if payments == nil {
		return nil, fmt.Errorf("payment settler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookService{
		payments: payments,
		profiles: profiles,
		dedup:    dedup,
		fanout:   newEventFanout(publisher, logger),
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// ProcessEvent parses a verified webhook body, drops duplicate deliveries,
// and dispatches by event kind. Unknown kinds are acknowledged so the
// processor stops retrying them.
func (s *WebhookService) ProcessEvent(ctx context.Context, body []byte) error {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: malformed webhook payload: %v", domain.ErrValidation, err)
	}
	if envelope.ID == "" || envelope.Type == "" {
		return fmt.Errorf("%w: webhook event id and type are required", domain.ErrValidation)
	}

	if s.dedup != nil {
		first, err := s.dedup.FirstDelivery(ctx, envelope.ID)
		if err != nil {
			return fmt.Errorf("failed to check event delivery: %w", err)
		}
		if !first {
			s.recordEvent(envelope.Type, "duplicate")
			s.logger.Info("duplicate webhook delivery skipped",
				zap.String("eventId", envelope.ID),
				zap.String("type", envelope.Type),
			)
			return nil
		}
	}

	err := s.dispatch(ctx, envelope)
	if err != nil {
		s.recordEvent(envelope.Type, "error")
		if s.dedup != nil {
			if releaseErr := s.dedup.Release(ctx, envelope.ID); releaseErr != nil {
				s.logger.Error("failed to release webhook event claim",
					zap.String("eventId", envelope.ID),
					zap.String("type", envelope.Type),
					zap.Error(releaseErr),
				)
			}
		}
		return err
	}
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, envelope webhookEnvelope) error {
	switch envelope.Type {
	case "payment_intent.succeeded":
		var intent intentObject
		if err := json.Unmarshal(envelope.Data.Object, &intent); err != nil {
			return fmt.Errorf("%w: malformed payment intent object: %v", domain.ErrValidation, err)
		}
		if err := s.payments.HandlePaymentSuccess(ctx, intent.ID); err != nil {
			return err
		}
		s.recordEvent(envelope.Type, "processed")
		return nil

	case "payment_intent.payment_failed":
		var intent intentObject
		if err := json.Unmarshal(envelope.Data.Object, &intent); err != nil {
			return fmt.Errorf("%w: malformed payment intent object: %v", domain.ErrValidation, err)
		}
		if err := s.payments.HandlePaymentFailure(ctx, intent.ID); err != nil {
			return err
		}
		s.recordEvent(envelope.Type, "processed")
		return nil

	case "account.updated":
		return s.handleAccountUpdated(ctx, envelope)

	case "payout.paid":
		var payout payoutObject
		if err := json.Unmarshal(envelope.Data.Object, &payout); err != nil {
			return fmt.Errorf("%w: malformed payout object: %v", domain.ErrValidation, err)
		}
		s.logger.Info("payout paid",
			zap.String("payoutId", payout.ID),
			zap.String("account", envelope.Account),
			zap.Int64("amount", payout.Amount),
		)
		s.recordEvent(envelope.Type, "processed")
		return nil

	case "payout.failed":
		return s.handlePayoutFailed(ctx, envelope)

	default:
		s.logger.Info("ignoring unhandled webhook event",
			zap.String("eventId", envelope.ID),
			zap.String("type", envelope.Type),
		)
		s.recordEvent(envelope.Type, "ignored")
		return nil
	}
}

func (s *WebhookService) handleAccountUpdated(ctx context.Context, envelope webhookEnvelope) error {
	var account accountObject
	if err := json.Unmarshal(envelope.Data.Object, &account); err != nil {
		return fmt.Errorf("%w: malformed account object: %v", domain.ErrValidation, err)
	}
	if account.ID == "" {
		return fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}

	if err := s.profiles.UpdateCapabilities(ctx, account.ID, account.ChargesEnabled, account.PayoutsEnabled); err != nil {
		return fmt.Errorf("failed to mirror account capabilities: %w", err)
	}

	s.logger.Info("account capabilities updated",
		zap.String("stripeAccountId", account.ID),
		zap.Bool("chargesEnabled", account.ChargesEnabled),
		zap.Bool("payoutsEnabled", account.PayoutsEnabled),
	)
	s.recordEvent(envelope.Type, "processed")
	return nil
}

func (s *WebhookService) handlePayoutFailed(ctx context.Context, envelope webhookEnvelope) error {
	var payout payoutObject
	if err := json.Unmarshal(envelope.Data.Object, &payout); err != nil {
		return fmt.Errorf("%w: malformed payout object: %v", domain.ErrValidation, err)
	}

	s.logger.Warn("payout failed",
		zap.String("payoutId", payout.ID),
		zap.String("account", envelope.Account),
		zap.Int64("amount", payout.Amount),
	)

	if envelope.Account != "" && s.profiles != nil {
		profile, err := s.profiles.GetByStripeAccount(ctx, envelope.Account)
		if err != nil {
			s.logger.Error("failed to resolve payout account owner",
				zap.String("account", envelope.Account),
				zap.Error(err),
			)
		} else {
			s.fanout.Dispatch(ctx, domain.NotificationEvent{
				UserID:  profile.ID,
				Type:    domain.NotificationPayoutFailed,
				Title:   "Payout Failed",
				Message: "A payout to your bank account failed. Check your payout details.",
				Data: map[string]any{
					"payoutId": payout.ID,
					"amount":   payout.Amount,
					"currency": payout.Currency,
				},
			})
		}
	}

	s.recordEvent(envelope.Type, "processed")
	return nil
}

func (s *WebhookService) recordEvent(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(kind, outcome)
	}
}
