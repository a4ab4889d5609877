package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencelytic/marketplace/internal/transport"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test"

type stubWebhookService struct {
	processed [][]byte
	err       error
}

func (s *stubWebhookService) ProcessEvent(_ context.Context, body []byte) error {
	if s.err != nil {
		return s.err
	}
	s.processed = append(s.processed, body)
	return nil
}

func newWebhookTestApp(t *testing.T, svc WebhookService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	if err := RegisterWebhookRoutes(app, svc, testWebhookSecret); err != nil {
		t.Fatalf("RegisterWebhookRoutes() error = %v", err)
	}
	return app
}

func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookIntegration_ValidSignature(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	app := newWebhookTestApp(t, svc)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(stripeSignatureHeader, signPayload(payload, testWebhookSecret, time.Now()))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, body)
	}
	if len(svc.processed) != 1 {
		t.Fatalf("processed = %d, want 1", len(svc.processed))
	}
}

func TestWebhookIntegration_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	svc := &stubWebhookService{}
	app := newWebhookTestApp(t, svc)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	cases := map[string]string{
		"missing header":  "",
		"wrong secret":    signPayload(payload, "whsec_other", time.Now()),
		"stale timestamp": signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)),
		"tampered body":   signPayload([]byte(`{"id":"evt_evil"}`), testWebhookSecret, time.Now()),
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if header != "" {
			req.Header.Set(stripeSignatureHeader, header)
		}

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test() error = %v", name, err)
		}
		resp.Body.Close()

		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", name, resp.StatusCode)
		}
	}

	if len(svc.processed) != 0 {
		t.Fatal("unverified payloads must never reach the service")
	}
}
