package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func newTestStripeClient(t *testing.T, serverURL string) *StripeClient {
	t.Helper()

	client := resty.New()
	client.SetBaseURL(serverURL)
	client.SetTimeout(2 * time.Second)

	s, err := NewStripeClientWithClient("sk_test_123", client)
	if err != nil {
		t.Fatalf("NewStripeClientWithClient() error = %v", err)
	}
	return s
}

func TestStripeClientCreatePaymentIntent(t *testing.T) {
	t.Parallel()

	var gotForm url.Values
	var gotIdempotencyKey, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("path = %s, want /v1/payment_intents", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":100000,"currency":"usd"}`))
	}))
	defer server.Close()

	s := newTestStripeClient(t, server.URL)

	intent, err := s.CreatePaymentIntent(context.Background(), CreateIntentParams{
		Amount:              100000,
		Currency:            "usd",
		IdempotencyKey:      "app:app-1",
		TransferDestination: "acct_inf",
		ApplicationFee:      5000,
		Metadata:            map[string]string{"campaign_id": "camp-1"},
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent() unexpected error: %v", err)
	}

	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("intent = %+v", intent)
	}
	if intent.Succeeded() {
		t.Fatal("unconfirmed intent must not report success")
	}

	if gotAuth != "Bearer sk_test_123" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotIdempotencyKey != "app:app-1" {
		t.Fatalf("Idempotency-Key = %q, want app:app-1", gotIdempotencyKey)
	}

	wantForm := map[string]string{
		"amount":                     "100000",
		"currency":                   "usd",
		"payment_method_types[]":     "card",
		"application_fee_amount":     "5000",
		"transfer_data[destination]": "acct_inf",
		"metadata[campaign_id]":      "camp-1",
	}
	for key, want := range wantForm {
		if got := gotForm.Get(key); got != want {
			t.Fatalf("form[%s] = %q, want %q", key, got, want)
		}
	}
}

func TestStripeClientCreatePaymentIntentOmitsDeferredTransfer(t *testing.T) {
	t.Parallel()

	var gotForm url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_2","status":"requires_payment_method"}`))
	}))
	defer server.Close()

	s := newTestStripeClient(t, server.URL)

	if _, err := s.CreatePaymentIntent(context.Background(), CreateIntentParams{
		Amount:   5000,
		Currency: "usd",
	}); err != nil {
		t.Fatalf("CreatePaymentIntent() unexpected error: %v", err)
	}

	if _, ok := gotForm["transfer_data[destination]"]; ok {
		t.Fatal("deferred transfer must not set a destination")
	}
	if _, ok := gotForm["application_fee_amount"]; ok {
		t.Fatal("zero application fee must be omitted")
	}
}

func TestStripeClientCreateRefund(t *testing.T) {
	t.Parallel()

	var gotForm url.Values
	var gotIdempotencyKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/refunds" {
			t.Errorf("path = %s, want /v1/refunds", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_1","amount":30000,"status":"succeeded"}`))
	}))
	defer server.Close()

	s := newTestStripeClient(t, server.URL)

	refund, err := s.CreateRefund(context.Background(), RefundParams{
		PaymentIntentID: "pi_1",
		Amount:          30000,
		Reason:          "requested_by_customer",
		IdempotencyKey:  "refund:tx-1",
	})
	if err != nil {
		t.Fatalf("CreateRefund() unexpected error: %v", err)
	}
	if refund.ID != "re_1" || refund.Amount != 30000 {
		t.Fatalf("refund = %+v", refund)
	}

	if got := gotForm.Get("payment_intent"); got != "pi_1" {
		t.Fatalf("form[payment_intent] = %q, want pi_1", got)
	}
	if got := gotForm.Get("amount"); got != "30000" {
		t.Fatalf("form[amount] = %q, want 30000", got)
	}
	if got := gotForm.Get("reason"); got != "requested_by_customer" {
		t.Fatalf("form[reason] = %q", got)
	}
	if gotIdempotencyKey != "refund:tx-1" {
		t.Fatalf("Idempotency-Key = %q, want refund:tx-1", gotIdempotencyKey)
	}
}

func TestStripeClientErrorClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		body          string
		wantTransient bool
		wantMessage   string
	}{
		{
			name:          "too many requests is transient",
			statusCode:    http.StatusTooManyRequests,
			body:          `{"error":{"message":"rate limited","type":"rate_limit_error"}}`,
			wantTransient: true,
			wantMessage:   "stripe returned status 429: rate limited",
		},
		{
			name:          "card declined is permanent",
			statusCode:    http.StatusPaymentRequired,
			body:          `{"error":{"message":"Your card was declined.","type":"card_error"}}`,
			wantTransient: false,
			wantMessage:   "stripe returned status 402: Your card was declined.",
		},
		{
			name:          "internal server error is transient",
			statusCode:    http.StatusInternalServerError,
			body:          "upstream failed",
			wantTransient: true,
			wantMessage:   "stripe returned status 500",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			s := newTestStripeClient(t, server.URL)

			_, err := s.GetPaymentIntent(context.Background(), "pi_1")
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %T", err)
			}
			if providerErr.StatusCode != tc.statusCode {
				t.Fatalf("StatusCode = %d, want %d", providerErr.StatusCode, tc.statusCode)
			}
			if providerErr.Message != tc.wantMessage {
				t.Fatalf("Message = %q, want %q", providerErr.Message, tc.wantMessage)
			}
		})
	}
}

func TestStripeClientTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded"}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetBaseURL(server.URL)
	client.SetTimeout(30 * time.Millisecond)

	s, err := NewStripeClientWithClient("sk_test_123", client)
	if err != nil {
		t.Fatalf("NewStripeClientWithClient() error = %v", err)
	}

	_, err = s.GetPaymentIntent(context.Background(), "pi_1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true (err=%v)", err)
	}
}

func TestStripeClientPayoutRequiresAccount(t *testing.T) {
	t.Parallel()

	s := newTestStripeClient(t, "http://127.0.0.1:0")

	if _, err := s.CreatePayout(context.Background(), "", 1000, "usd"); err == nil {
		t.Fatal("expected error for missing account id")
	}
	if _, err := s.CreatePayout(context.Background(), "acct_1", 0, "usd"); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}
