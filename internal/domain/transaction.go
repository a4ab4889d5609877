package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionStatus is the payment transaction lifecycle state.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionFailed, TransactionRefunded:
		return true
	}
	return false
}

// Transaction records one campaign payment from brand to influencer. All
// amounts are minor units; PlatformFeeRate is basis points captured at
// creation so later rate changes never rewrite history.
type Transaction struct {
	ID               string
	CampaignID       string
	ApplicationID    string
	BrandID          string
	InfluencerID     string
	Amount           int64
	Currency         string
	PlatformFeeRate  int64
	PlatformFee      int64
	InfluencerPayout int64
	PaymentIntentID  string
	Status           TransactionStatus
	RefundAmount     *int64
	RefundReason     *string
	ProcessedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransaction builds a pending transaction with the fee breakdown
// applied.
func NewTransaction(campaignID, applicationID, brandID, influencerID string, amount int64, currency, paymentIntentID string) (*Transaction, error) {
	if strings.TrimSpace(campaignID) == "" || strings.TrimSpace(applicationID) == "" {
		return nil, fmt.Errorf("%w: campaign and application ids are required", ErrValidation)
	}
	if strings.TrimSpace(brandID) == "" || strings.TrimSpace(influencerID) == "" {
		return nil, fmt.Errorf("%w: brand and influencer ids are required", ErrValidation)
	}
	if !SupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: unsupported currency %q", ErrValidation, currency)
	}

	fee, payout, err := SplitAmount(amount)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		CampaignID:       campaignID,
		ApplicationID:    applicationID,
		BrandID:          brandID,
		InfluencerID:     influencerID,
		Amount:           amount,
		Currency:         currency,
		PlatformFeeRate:  PlatformFeeBasisPoints,
		PlatformFee:      fee,
		InfluencerPayout: payout,
		PaymentIntentID:  paymentIntentID,
		Status:           TransactionPending,
	}, nil
}

// Complete settles a pending transaction and returns the notification
// events for both parties: payout to the influencer, receipt to the brand.
func (t *Transaction) Complete(now time.Time) ([]NotificationEvent, error) {
	if t.Status != TransactionPending {
		return nil, fmt.Errorf("%w: transaction cannot move from %s to completed", ErrInvalidStateTransition, t.Status)
	}
	t.Status = TransactionCompleted
	t.ProcessedAt = &now

	return []NotificationEvent{
		{
			UserID:  t.InfluencerID,
			Type:    NotificationPaymentReceived,
			Title:   "Payment Received",
			Message: fmt.Sprintf("You received %s for a completed campaign.", formatAmount(t.InfluencerPayout, t.Currency)),
			Data:    t.eventData(),
		},
		{
			UserID:  t.BrandID,
			Type:    NotificationPaymentProcessed,
			Title:   "Payment Processed",
			Message: fmt.Sprintf("Your payment of %s was processed.", formatAmount(t.Amount, t.Currency)),
			Data:    t.eventData(),
		},
	}, nil
}

// Fail marks a pending transaction as failed and returns the notification
// event for the brand. The application stays accepted so payment can be
// retried.
func (t *Transaction) Fail() (*NotificationEvent, error) {
	if t.Status != TransactionPending {
		return nil, fmt.Errorf("%w: transaction cannot move from %s to failed", ErrInvalidStateTransition, t.Status)
	}
	t.Status = TransactionFailed

	return &NotificationEvent{
		UserID:  t.BrandID,
		Type:    NotificationPaymentFailed,
		Title:   "Payment Failed",
		Message: fmt.Sprintf("Your payment of %s could not be processed.", formatAmount(t.Amount, t.Currency)),
		Data:    t.eventData(),
	}, nil
}

// Refund marks a completed transaction as refunded. A zero amount means a
// full refund. The original Amount is never rewritten.
func (t *Transaction) Refund(amount int64, reason string) error {
	if t.Status != TransactionCompleted {
		return fmt.Errorf("%w: status is %s", ErrTransactionNotRefundable, t.Status)
	}
	if amount < 0 || amount > t.Amount {
		return fmt.Errorf("%w: refund amount %d out of range for %d", ErrValidation, amount, t.Amount)
	}
	if amount == 0 {
		amount = t.Amount
	}

	t.Status = TransactionRefunded
	t.RefundAmount = &amount
	if reason != "" {
		t.RefundReason = &reason
	}
	return nil
}

func (t *Transaction) eventData() map[string]any {
	return map[string]any{
		"transactionId": t.ID,
		"campaignId":    t.CampaignID,
		"applicationId": t.ApplicationID,
		"amount":        t.Amount,
		"currency":      t.Currency,
	}
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, strings.ToUpper(currency))
}
