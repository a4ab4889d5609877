package provider

import "context"

// PaymentIntent is the processor's handle for an in-progress charge.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Succeeded reports whether the charge is confirmed on the processor side.
func (p *PaymentIntent) Succeeded() bool {
	return p != nil && p.Status == "succeeded"
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Account is a Connect-style sub-account for influencer payouts.
type Account struct {
	ID               string `json:"id"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

type AccountLink struct {
	URL string `json:"url"`
}

type BalanceAmount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Balance struct {
	Available []BalanceAmount `json:"available"`
	Pending   []BalanceAmount `json:"pending"`
}

type Payout struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// CreateIntentParams carries everything the orchestrator attaches to a new
// payment intent. Amounts are minor currency units.
type CreateIntentParams struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
	// TransferDestination is the influencer's connected account; empty
	// defers the transfer (no destination set).
	TransferDestination string
	ApplicationFee      int64
	Metadata            map[string]string
}

// RefundParams parameterizes a refund against a captured payment intent.
// Amount zero refunds the full charge. IdempotencyKey keeps a retried
// submission from refunding the charge twice.
type RefundParams struct {
	PaymentIntentID string
	Amount          int64
	Reason          string
	IdempotencyKey  string
}

// PaymentProcessor is the outbound payments port.
type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)
	CreateAccount(ctx context.Context, email, country, userID string) (*Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	GetBalance(ctx context.Context, accountID string) (*Balance, error)
	CreatePayout(ctx context.Context, accountID string, amount int64, currency string) (*Payout, error)
}
