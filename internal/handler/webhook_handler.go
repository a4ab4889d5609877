package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencelytic/marketplace/internal/provider"
)

const stripeSignatureHeader = "Stripe-Signature"

type WebhookService interface {
	ProcessEvent(ctx context.Context, body []byte) error
}

// WebhookHandler terminates the processor's webhook endpoint. The signature
// is verified against the raw body before anything is parsed.
type WebhookHandler struct {
	service WebhookService
	secret  string
	now     func() time.Time
}

func NewWebhookHandler(service WebhookService, secret string) (*WebhookHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("webhook service is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is required")
	}
	return &WebhookHandler{service: service, secret: secret, now: time.Now}, nil
}

func RegisterWebhookRoutes(router fiber.Router, service WebhookService, secret string) error {
	h, err := NewWebhookHandler(service, secret)
	if err != nil {
		return err
	}

	router.Post("/webhooks/stripe", h.HandleStripeWebhook)
	return nil
}

func (h *WebhookHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	body := c.Body()

	err := provider.VerifyWebhookSignature(
		body,
		c.Get(stripeSignatureHeader),
		h.secret,
		provider.DefaultSignatureTolerance,
		h.now().UTC(),
	)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid webhook signature")
	}

	if err := h.service.ProcessEvent(c.UserContext(), body); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}
