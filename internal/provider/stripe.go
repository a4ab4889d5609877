package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	stripeBaseURL        = "https://api.stripe.com"
	defaultStripeTimeout = 15 * time.Second
)

var _ PaymentProcessor = (*StripeClient)(nil)

// StripeClient talks to the Stripe REST API with form-encoded requests, the
// same thin-resty-client shape used for every outbound provider here.
type StripeClient struct {
	client *resty.Client
}

func NewStripeClient(apiKey string) (*StripeClient, error) {
	client := resty.New()
	client.SetBaseURL(stripeBaseURL)
	client.SetTimeout(defaultStripeTimeout)
	client.SetRetryCount(0)

	return NewStripeClientWithClient(apiKey, client)
}

func NewStripeClientWithClient(apiKey string, client *resty.Client) (*StripeClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("stripe api key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultStripeTimeout)
	}
	client.SetRetryCount(0)
	client.SetAuthToken(apiKey)

	return &StripeClient{client: client}, nil
}

func (s *StripeClient) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("intent amount must be positive")
	}

	form := map[string]string{
		"amount":                 strconv.FormatInt(params.Amount, 10),
		"currency":               params.Currency,
		"payment_method_types[]": "card",
	}
	if params.ApplicationFee > 0 {
		form["application_fee_amount"] = strconv.FormatInt(params.ApplicationFee, 10)
	}
	if params.TransferDestination != "" {
		form["transfer_data[destination]"] = params.TransferDestination
	}
	for key, value := range params.Metadata {
		form[fmt.Sprintf("metadata[%s]", key)] = value
	}

	req := s.client.R().SetContext(ctx).SetFormData(form)
	if key := strings.TrimSpace(params.IdempotencyKey); key != "" {
		req.SetHeader("Idempotency-Key", key)
	}

	var intent PaymentIntent
	if err := s.do(req, http.MethodPost, "/v1/payment_intents", &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (s *StripeClient) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}

	var intent PaymentIntent
	req := s.client.R().SetContext(ctx)
	if err := s.do(req, http.MethodGet, "/v1/payment_intents/"+id, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (s *StripeClient) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	if strings.TrimSpace(params.PaymentIntentID) == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}

	form := map[string]string{
		"payment_intent": params.PaymentIntentID,
	}
	if params.Amount > 0 {
		form["amount"] = strconv.FormatInt(params.Amount, 10)
	}
	if params.Reason != "" {
		form["reason"] = params.Reason
	}

	req := s.client.R().SetContext(ctx).SetFormData(form)
	if key := strings.TrimSpace(params.IdempotencyKey); key != "" {
		req.SetHeader("Idempotency-Key", key)
	}

	var refund Refund
	if err := s.do(req, http.MethodPost, "/v1/refunds", &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (s *StripeClient) CreateAccount(ctx context.Context, email, country, userID string) (*Account, error) {
	form := map[string]string{
		"type":    "express",
		"country": country,
		"email":   email,
		"capabilities[card_payments][requested]": "true",
		"capabilities[transfers][requested]":     "true",
		"metadata[user_id]":                      userID,
	}

	var account Account
	req := s.client.R().SetContext(ctx).SetFormData(form)
	if err := s.do(req, http.MethodPost, "/v1/accounts", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *StripeClient) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	form := map[string]string{
		"account":     accountID,
		"refresh_url": refreshURL,
		"return_url":  returnURL,
		"type":        "account_onboarding",
	}

	var link AccountLink
	req := s.client.R().SetContext(ctx).SetFormData(form)
	if err := s.do(req, http.MethodPost, "/v1/account_links", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *StripeClient) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("account id is required")
	}

	var account Account
	req := s.client.R().SetContext(ctx)
	if err := s.do(req, http.MethodGet, "/v1/accounts/"+accountID, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *StripeClient) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	req := s.client.R().SetContext(ctx)
	if accountID != "" {
		req.SetHeader("Stripe-Account", accountID)
	}

	var balance Balance
	if err := s.do(req, http.MethodGet, "/v1/balance", &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *StripeClient) CreatePayout(ctx context.Context, accountID string, amount int64, currency string) (*Payout, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("account id is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("payout amount must be positive")
	}

	form := map[string]string{
		"amount":   strconv.FormatInt(amount, 10),
		"currency": currency,
		"method":   "instant",
	}

	var payout Payout
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Stripe-Account", accountID).
		SetFormData(form)
	if err := s.do(req, http.MethodPost, "/v1/payouts", &payout); err != nil {
		return nil, err
	}
	return &payout, nil
}

func (s *StripeClient) do(req *resty.Request, method, path string, out any) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("stripe client is not initialized")
	}

	response, err := req.Execute(method, path)
	if err != nil {
		return &ProviderError{
			Message:   "stripe request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return &ProviderError{
			Message:   "stripe returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	body := response.Body()

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &ProviderError{
				StatusCode: statusCode,
				Message:    "failed to decode stripe response",
				Cause:      err,
			}
		}
		return nil
	}

	return &ProviderError{
		StatusCode: statusCode,
		Message:    stripeErrorMessage(statusCode, body),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func stripeErrorMessage(statusCode int, body []byte) string {
	base := fmt.Sprintf("stripe returned status %d", statusCode)

	var wrapper struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return fmt.Sprintf("%s: %s", base, wrapper.Error.Message)
	}
	return base
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
