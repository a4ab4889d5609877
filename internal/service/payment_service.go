package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/observability"
	"github.com/influencelytic/marketplace/internal/provider"
	"github.com/influencelytic/marketplace/internal/queue"
	"github.com/influencelytic/marketplace/internal/ratelimit"
	"github.com/influencelytic/marketplace/internal/repository"
	"go.uber.org/zap"
)

// PaymentService orchestrates the money flow: intent creation, settlement
// on processor confirmation, refunds, and the Connect account lifecycle.
type PaymentService struct {
	transactions repository.TransactionRepository
	applications repository.ApplicationRepository
	campaigns    repository.CampaignRepository
	profiles     repository.ProfileRepository
	processor    provider.PaymentProcessor
	rateLimiter  ratelimit.RateLimiter
	fanout       *eventFanout
	metrics      *observability.Metrics
	logger       *zap.Logger
	frontendURL  string
	now          func() time.Time
}

func NewPaymentService(
	transactions repository.TransactionRepository,
	applications repository.ApplicationRepository,
	campaigns repository.CampaignRepository,
	profiles repository.ProfileRepository,
	processor provider.PaymentProcessor,
	rateLimiter ratelimit.RateLimiter,
	publisher queue.Publisher,
	metrics *observability.Metrics,
	frontendURL string,
	logger *zap.Logger,
) (*PaymentService, error) {
	if processor == nil {
		return nil, fmt.Errorf("payment processor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PaymentService{
		transactions: transactions,
		applications: applications,
		campaigns:    campaigns,
		profiles:     profiles,
		processor:    processor,
		rateLimiter:  rateLimiter,
		fanout:       newEventFanout(publisher, logger),
		metrics:      metrics,
		logger:       logger,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		now:          time.Now,
	}, nil
}

// PaymentResult is what the brand's client needs to confirm the charge,
// plus the fee breakdown.
type PaymentResult struct {
	TransactionID    string
	PaymentIntentID  string
	ClientSecret     string
	Amount           int64
	PlatformFee      int64
	InfluencerPayout int64
	Currency         string
	Status           domain.TransactionStatus
}

// CreateCampaignPayment initiates a payment for an accepted application.
// The processor idempotency key is derived from the application so a
// double submit converges on one intent, and the unique application index
// guarantees at most one transaction row.
func (s *PaymentService) CreateCampaignPayment(ctx context.Context, actor Actor, campaignID, applicationID string, amount int64, currency string) (*PaymentResult, error) {
	if err := requireRole(actor, domain.RoleBrand); err != nil {
		return nil, err
	}
	if err := s.allowPayment(ctx, actor.UserID); err != nil {
		return nil, err
	}

	currency = strings.ToLower(strings.TrimSpace(currency))

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.CampaignID != campaignID {
		return nil, fmt.Errorf("%w: application does not belong to campaign", domain.ErrValidation)
	}
	if application.Status != domain.ApplicationAccepted {
		return nil, fmt.Errorf("%w: status is %s", domain.ErrApplicationNotAcceptable, application.Status)
	}

	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, campaign.BrandID); err != nil {
		return nil, err
	}

	fee, payout, err := domain.SplitAmount(amount)
	if err != nil {
		return nil, err
	}
	if !domain.SupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: unsupported currency %q", domain.ErrValidation, currency)
	}

	params := provider.CreateIntentParams{
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: "app:" + application.ID,
		ApplicationFee: fee,
		Metadata: map[string]string{
			"campaign_id":    campaign.ID,
			"application_id": application.ID,
			"brand_id":       actor.UserID,
			"influencer_id":  application.InfluencerID,
		},
	}

	// Transfer directly when the influencer's account can receive payouts;
	// otherwise the funds stay on the platform until onboarding finishes.
	influencer, err := s.profiles.GetByID(ctx, application.InfluencerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if influencer != nil && influencer.PayoutReady() {
		params.TransferDestination = *influencer.StripeAccountID
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	tx, err := domain.NewTransaction(campaign.ID, application.ID, actor.UserID, application.InfluencerID, amount, currency, intent.ID)
	if err != nil {
		return nil, err
	}
	tx.ID = uuid.NewString()

	result := &PaymentResult{
		TransactionID:    tx.ID,
		PaymentIntentID:  intent.ID,
		ClientSecret:     intent.ClientSecret,
		Amount:           amount,
		PlatformFee:      fee,
		InfluencerPayout: payout,
		Currency:         currency,
		Status:           domain.TransactionPending,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			existing, getErr := s.transactions.GetByApplicationID(ctx, application.ID)
			if getErr != nil {
				return nil, getErr
			}
			result.TransactionID = existing.ID
			result.Status = existing.Status
			return result, nil
		}

		// The intent exists on the processor side; return the handle so the
		// client can proceed and the webhook reconciler converges the record
		// on the same idempotency key.
		s.logger.Error("payment intent created but transaction persistence failed",
			zap.String("paymentIntentId", intent.ID),
			zap.String("applicationId", application.ID),
			zap.Error(err),
		)
		result.TransactionID = ""
		return result, nil
	}

	if s.metrics != nil {
		s.metrics.IncPaymentInitiated(currency)
	}
	s.logger.Info("campaign payment initiated",
		zap.String("transactionId", tx.ID),
		zap.String("campaignId", campaign.ID),
		zap.String("applicationId", application.ID),
		zap.Int64("amount", amount),
	)
	return result, nil
}

// HandlePaymentSuccess settles the transaction tied to a confirmed intent.
// Replayed deliveries are no-ops; the intent status is re-verified with the
// processor before any state moves.
func (s *PaymentService) HandlePaymentSuccess(ctx context.Context, paymentIntentID string) error {
	tx, err := s.transactions.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if tx.Status == domain.TransactionCompleted {
		return nil
	}

	intent, err := s.processor.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("failed to verify payment intent: %w", err)
	}
	if !intent.Succeeded() {
		return fmt.Errorf("%w: intent %s reports status %s", domain.ErrConflict, paymentIntentID, intent.Status)
	}

	now := s.now().UTC()
	events, err := tx.Complete(now)
	if err != nil {
		return err
	}
	if err := s.transactions.CompletePending(ctx, tx.ID, now); err != nil {
		return err
	}
	if err := s.applications.CompleteAccepted(ctx, tx.ApplicationID, now); err != nil {
		// The money moved; an application row out of step is repairable and
		// must not fail the settlement.
		s.logger.Error("failed to complete application after settlement",
			zap.String("applicationId", tx.ApplicationID),
			zap.Error(err),
		)
	}

	s.fanout.Dispatch(ctx, events...)
	if s.metrics != nil {
		s.metrics.IncPaymentSettled("completed")
	}
	s.logger.Info("payment settled",
		zap.String("transactionId", tx.ID),
		zap.String("paymentIntentId", paymentIntentID),
	)
	return nil
}

// HandlePaymentFailure marks the transaction failed and notifies the brand.
// The application stays accepted so payment can be retried.
func (s *PaymentService) HandlePaymentFailure(ctx context.Context, paymentIntentID string) error {
	tx, err := s.transactions.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if tx.Status == domain.TransactionFailed {
		return nil
	}

	event, err := tx.Fail()
	if err != nil {
		return err
	}
	if err := s.transactions.FailPending(ctx, tx.ID); err != nil {
		return err
	}

	s.fanout.Dispatch(ctx, *event)
	if s.metrics != nil {
		s.metrics.IncPaymentSettled("failed")
	}
	s.logger.Warn("payment failed",
		zap.String("transactionId", tx.ID),
		zap.String("paymentIntentId", paymentIntentID),
	)
	return nil
}

// CreateRefund refunds a completed transaction through the processor. A
// zero amount refunds in full.
func (s *PaymentService) CreateRefund(ctx context.Context, actor Actor, transactionID string, amount int64, reason string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, tx.BrandID); err != nil {
		return nil, err
	}

	if err := tx.Refund(amount, reason); err != nil {
		return nil, err
	}

	// Keyed on the transaction so a retry after a partial failure reuses the
	// processor's original refund instead of issuing a second one.
	refundAmount := *tx.RefundAmount
	if _, err := s.processor.CreateRefund(ctx, provider.RefundParams{
		PaymentIntentID: tx.PaymentIntentID,
		Amount:          refundAmount,
		Reason:          reason,
		IdempotencyKey:  "refund:" + tx.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	if err := s.transactions.MarkRefunded(ctx, tx.ID, refundAmount, reason); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPaymentSettled("refunded")
	}
	s.logger.Info("transaction refunded",
		zap.String("transactionId", tx.ID),
		zap.Int64("refundAmount", refundAmount),
	)
	return tx, nil
}

// ConnectAccount ensures the influencer has a Connect account and returns a
// fresh onboarding link.
func (s *PaymentService) ConnectAccount(ctx context.Context, actor Actor) (string, error) {
	if err := requireRole(actor, domain.RoleInfluencer); err != nil {
		return "", err
	}

	profile, err := s.profiles.GetByID(ctx, actor.UserID)
	if err != nil {
		return "", err
	}

	accountID := ""
	if profile.StripeAccountID != nil {
		accountID = *profile.StripeAccountID
	}
	if accountID == "" {
		account, err := s.processor.CreateAccount(ctx, profile.Email, "US", profile.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create connect account: %w", err)
		}
		if err := s.profiles.SetStripeAccount(ctx, profile.ID, account.ID); err != nil {
			return "", err
		}
		accountID = account.ID
	}

	link, err := s.processor.CreateAccountLink(ctx, accountID,
		s.frontendURL+"/settings/payments?refresh=true",
		s.frontendURL+"/settings/payments?connected=true",
	)
	if err != nil {
		return "", fmt.Errorf("failed to create onboarding link: %w", err)
	}
	return link.URL, nil
}

// AccountStatus reports the influencer's Connect onboarding state and
// mirrors the processor's capability flags onto the profile.
type AccountStatus struct {
	HasAccount       bool
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

func (s *PaymentService) AccountStatus(ctx context.Context, actor Actor) (*AccountStatus, error) {
	if err := requireRole(actor, domain.RoleInfluencer); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if profile.StripeAccountID == nil || *profile.StripeAccountID == "" {
		return &AccountStatus{}, nil
	}

	account, err := s.processor.GetAccount(ctx, *profile.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connect account: %w", err)
	}

	if account.ChargesEnabled != profile.ChargesEnabled || account.PayoutsEnabled != profile.PayoutsEnabled {
		if err := s.profiles.UpdateCapabilities(ctx, account.ID, account.ChargesEnabled, account.PayoutsEnabled); err != nil {
			s.logger.Error("failed to mirror account capabilities",
				zap.String("stripeAccountId", account.ID),
				zap.Error(err),
			)
		}
	}

	return &AccountStatus{
		HasAccount:       true,
		AccountID:        account.ID,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
	}, nil
}

// GetBalance returns the influencer's connected-account balance.
func (s *PaymentService) GetBalance(ctx context.Context, actor Actor) (*provider.Balance, error) {
	if err := requireRole(actor, domain.RoleInfluencer); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if profile.StripeAccountID == nil || *profile.StripeAccountID == "" {
		return nil, fmt.Errorf("%w: no connect account", domain.ErrValidation)
	}
	return s.processor.GetBalance(ctx, *profile.StripeAccountID)
}

// CreatePayout triggers a manual payout from the influencer's connected
// account balance.
func (s *PaymentService) CreatePayout(ctx context.Context, actor Actor, amount int64, currency string) (*provider.Payout, error) {
	if err := requireRole(actor, domain.RoleInfluencer); err != nil {
		return nil, err
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if !domain.SupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: unsupported currency %q", domain.ErrValidation, currency)
	}

	profile, err := s.profiles.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !profile.PayoutReady() {
		return nil, fmt.Errorf("%w: payouts are not enabled for this account", domain.ErrValidation)
	}
	return s.processor.CreatePayout(ctx, *profile.StripeAccountID, amount, currency)
}

// TransactionHistory is a page of the actor's transactions with summary
// stats for their side of the ledger.
type TransactionHistory struct {
	Transactions []domain.Transaction
	Total        int64
	Summary      *repository.TransactionSummary
}

func (s *PaymentService) History(ctx context.Context, actor Actor, status *domain.TransactionStatus, page, pageSize int) (*TransactionHistory, error) {
	if !actor.Role.IsParty() {
		return nil, fmt.Errorf("%w: history is scoped to a transaction party", domain.ErrForbidden)
	}

	transactions, total, err := s.transactions.List(ctx, repository.TransactionListParams{
		UserID:   actor.UserID,
		Role:     actor.Role,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	summary, err := s.transactions.Summary(ctx, actor.UserID, actor.Role)
	if err != nil {
		return nil, err
	}

	return &TransactionHistory{
		Transactions: transactions,
		Total:        total,
		Summary:      summary,
	}, nil
}

// GetTransaction returns a transaction to one of its parties.
func (s *PaymentService) GetTransaction(ctx context.Context, actor Actor, id string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != tx.BrandID && actor.UserID != tx.InfluencerID {
		return nil, fmt.Errorf("%w: not a transaction party", domain.ErrForbidden)
	}
	return tx, nil
}

// PlatformRevenue aggregates completed platform fees over a date range.
// Operator-only.
func (s *PaymentService) PlatformRevenue(ctx context.Context, actor Actor, from, to time.Time) (*repository.PlatformRevenue, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date range end precedes start", domain.ErrValidation)
	}
	return s.transactions.Revenue(ctx, from, to)
}

func (s *PaymentService) allowPayment(ctx context.Context, subject string) error {
	if s.rateLimiter == nil {
		return nil
	}
	allowed, err := s.rateLimiter.Allow(ctx, "brand:"+subject)
	if err != nil {
		// Fail open when the limiter backend is unreachable.
		s.logger.Warn("payment rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: too many payment attempts", domain.ErrRateLimited)
	}
	return nil
}
