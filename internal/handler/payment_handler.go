package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/provider"
	"github.com/influencelytic/marketplace/internal/repository"
	"github.com/influencelytic/marketplace/internal/service"
	"github.com/influencelytic/marketplace/internal/transport"
)

type PaymentService interface {
	CreateCampaignPayment(ctx context.Context, actor service.Actor, campaignID, applicationID string, amount int64, currency string) (*service.PaymentResult, error)
	CreateRefund(ctx context.Context, actor service.Actor, transactionID string, amount int64, reason string) (*domain.Transaction, error)
	ConnectAccount(ctx context.Context, actor service.Actor) (string, error)
	AccountStatus(ctx context.Context, actor service.Actor) (*service.AccountStatus, error)
	GetBalance(ctx context.Context, actor service.Actor) (*provider.Balance, error)
	CreatePayout(ctx context.Context, actor service.Actor, amount int64, currency string) (*provider.Payout, error)
	History(ctx context.Context, actor service.Actor, status *domain.TransactionStatus, page, pageSize int) (*service.TransactionHistory, error)
	GetTransaction(ctx context.Context, actor service.Actor, id string) (*domain.Transaction, error)
	PlatformRevenue(ctx context.Context, actor service.Actor, from, to time.Time) (*repository.PlatformRevenue, error)
}

type PaymentHandler struct {
	service PaymentService
}

func NewPaymentHandler(service PaymentService) (*PaymentHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("payment service is required")
	}
	return &PaymentHandler{service: service}, nil
}

func RegisterPaymentRoutes(router fiber.Router, service PaymentService) error {
	h, err := NewPaymentHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/payments/campaign", h.CreateCampaignPayment)
	v1.Post("/payments/refund", h.CreateRefund)
	v1.Get("/payments/transactions", h.ListTransactions)
	v1.Get("/payments/transactions/:id", h.GetTransaction)
	v1.Post("/payments/connect", h.ConnectAccount)
	v1.Get("/payments/account/status", h.AccountStatus)
	v1.Get("/payments/balance", h.GetBalance)
	v1.Post("/payments/payout", h.CreatePayout)
	v1.Get("/payments/revenue", h.PlatformRevenue)

	return nil
}

type createPaymentRequest struct {
	CampaignID    string `json:"campaignId"`
	ApplicationID string `json:"applicationId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

type createPaymentResponse struct {
	TransactionID    string `json:"transactionId,omitempty"`
	PaymentIntentID  string `json:"paymentIntentId"`
	ClientSecret     string `json:"clientSecret"`
	Amount           int64  `json:"amount"`
	PlatformFee      int64  `json:"platformFee"`
	InfluencerPayout int64  `json:"influencerPayout"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
}

type refundRequest struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason"`
}

type payoutRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type transactionResponse struct {
	ID               string     `json:"id"`
	CampaignID       string     `json:"campaignId"`
	ApplicationID    string     `json:"applicationId"`
	BrandID          string     `json:"brandId"`
	InfluencerID     string     `json:"influencerId"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	PlatformFee      int64      `json:"platformFee"`
	InfluencerPayout int64      `json:"influencerPayout"`
	Status           string     `json:"status"`
	RefundAmount     *int64     `json:"refundAmount,omitempty"`
	RefundReason     *string    `json:"refundReason,omitempty"`
	ProcessedAt      *time.Time `json:"processedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type transactionHistoryResponse struct {
	Data    []transactionResponse `json:"data"`
	Meta    listMeta              `json:"meta"`
	Summary transactionSummary    `json:"summary"`
}

type transactionSummary struct {
	TotalAmount           int64 `json:"totalAmount"`
	TotalFees             int64 `json:"totalFees"`
	TotalEarnings         int64 `json:"totalEarnings"`
	CompletedTransactions int64 `json:"completedTransactions"`
}

func (h *PaymentHandler) CreateCampaignPayment(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.CreateCampaignPayment(
		c.UserContext(), transport.ActorFromCtx(c),
		strings.TrimSpace(req.CampaignID), strings.TrimSpace(req.ApplicationID),
		req.Amount, req.Currency,
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(createPaymentResponse{
		TransactionID:    result.TransactionID,
		PaymentIntentID:  result.PaymentIntentID,
		ClientSecret:     result.ClientSecret,
		Amount:           result.Amount,
		PlatformFee:      result.PlatformFee,
		InfluencerPayout: result.InfluencerPayout,
		Currency:         result.Currency,
		Status:           string(result.Status),
	})
}

func (h *PaymentHandler) CreateRefund(c *fiber.Ctx) error {
	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return fmt.Errorf("%w: transactionId is required", domain.ErrValidation)
	}

	tx, err := h.service.CreateRefund(
		c.UserContext(), transport.ActorFromCtx(c),
		strings.TrimSpace(req.TransactionID), req.Amount, strings.TrimSpace(req.Reason),
	)
	if err != nil {
		return err
	}
	return c.JSON(toTransactionResponse(tx))
}

func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	page := queryInt(c, "page", defaultPage)
	pageSize := queryInt(c, "pageSize", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var status *domain.TransactionStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := domain.TransactionStatus(strings.ToLower(raw))
		if !s.IsValid() {
			return fmt.Errorf("%w: invalid transaction status %q", domain.ErrValidation, raw)
		}
		status = &s
	}

	history, err := h.service.History(c.UserContext(), transport.ActorFromCtx(c), status, page, pageSize)
	if err != nil {
		return err
	}

	data := make([]transactionResponse, 0, len(history.Transactions))
	for i := range history.Transactions {
		data = append(data, toTransactionResponse(&history.Transactions[i]))
	}

	summary := transactionSummary{}
	if history.Summary != nil {
		summary = transactionSummary{
			TotalAmount:           history.Summary.TotalAmount,
			TotalFees:             history.Summary.TotalFees,
			TotalEarnings:         history.Summary.TotalEarnings,
			CompletedTransactions: history.Summary.CompletedTransactions,
		}
	}

	return c.JSON(transactionHistoryResponse{
		Data:    data,
		Meta:    listMeta{Page: page, PageSize: pageSize, Total: history.Total},
		Summary: summary,
	})
}

func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	tx, err := h.service.GetTransaction(c.UserContext(), transport.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toTransactionResponse(tx))
}

func (h *PaymentHandler) ConnectAccount(c *fiber.Ctx) error {
	url, err := h.service.ConnectAccount(c.UserContext(), transport.ActorFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"onboardingUrl": url})
}

func (h *PaymentHandler) AccountStatus(c *fiber.Ctx) error {
	status, err := h.service.AccountStatus(c.UserContext(), transport.ActorFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"hasAccount":       status.HasAccount,
		"accountId":        status.AccountID,
		"chargesEnabled":   status.ChargesEnabled,
		"payoutsEnabled":   status.PayoutsEnabled,
		"detailsSubmitted": status.DetailsSubmitted,
	})
}

func (h *PaymentHandler) GetBalance(c *fiber.Ctx) error {
	balance, err := h.service.GetBalance(c.UserContext(), transport.ActorFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(balance)
}

func (h *PaymentHandler) CreatePayout(c *fiber.Ctx) error {
	var req payoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payout, err := h.service.CreatePayout(c.UserContext(), transport.ActorFromCtx(c), req.Amount, req.Currency)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(payout)
}

func (h *PaymentHandler) PlatformRevenue(c *fiber.Ctx) error {
	from, err := parseOptionalTime(c.Query("from"), "from")
	if err != nil {
		return err
	}
	to, err := parseOptionalTime(c.Query("to"), "to")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if to == nil {
		to = &now
	}
	if from == nil {
		start := now.AddDate(0, -1, 0)
		from = &start
	}

	revenue, err := h.service.PlatformRevenue(c.UserContext(), transport.ActorFromCtx(c), *from, *to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"totalRevenue":     revenue.TotalRevenue,
		"transactionCount": revenue.TransactionCount,
		"from":             from,
		"to":               to,
	})
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	if tx == nil {
		return transactionResponse{}
	}

	return transactionResponse{
		ID:               tx.ID,
		CampaignID:       tx.CampaignID,
		ApplicationID:    tx.ApplicationID,
		BrandID:          tx.BrandID,
		InfluencerID:     tx.InfluencerID,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		PlatformFee:      tx.PlatformFee,
		InfluencerPayout: tx.InfluencerPayout,
		Status:           string(tx.Status),
		RefundAmount:     tx.RefundAmount,
		RefundReason:     tx.RefundReason,
		ProcessedAt:      tx.ProcessedAt,
		CreatedAt:        tx.CreatedAt,
	}
}
