package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/service"
	"github.com/influencelytic/marketplace/internal/transport"
)

type ApplicationService interface {
	Apply(ctx context.Context, actor service.Actor, application *domain.CampaignApplication) (*domain.CampaignApplication, error)
	Get(ctx context.Context, actor service.Actor, id string) (*domain.CampaignApplication, error)
	ListMine(ctx context.Context, actor service.Actor) ([]domain.CampaignApplication, error)
	Respond(ctx context.Context, actor service.Actor, id string, accept bool) (*domain.CampaignApplication, error)
	Withdraw(ctx context.Context, actor service.Actor, id string) error
}

type ApplicationHandler struct {
	service ApplicationService
}

func NewApplicationHandler(service ApplicationService) (*ApplicationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("application service is required")
	}
	return &ApplicationHandler{service: service}, nil
}

func RegisterApplicationRoutes(router fiber.Router, service ApplicationService) error {
	h, err := NewApplicationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/applications", h.Apply)
	v1.Get("/applications", h.ListMine)
	v1.Get("/applications/:id", h.GetApplication)
	v1.Post("/applications/:id/respond", h.Respond)
	v1.Delete("/applications/:id", h.Withdraw)

	return nil
}

type applyRequest struct {
	CampaignID     string   `json:"campaignId"`
	ProposedRate   int64    `json:"proposedRate"`
	Currency       string   `json:"currency"`
	Message        string   `json:"message"`
	PortfolioLinks []string `json:"portfolioLinks"`
}

type respondRequest struct {
	Status string `json:"status"`
}

type applicationResponse struct {
	ID             string     `json:"id"`
	CampaignID     string     `json:"campaignId"`
	InfluencerID   string     `json:"influencerId"`
	ProposedRate   int64      `json:"proposedRate"`
	Currency       string     `json:"currency"`
	Message        string     `json:"message,omitempty"`
	PortfolioLinks []string   `json:"portfolioLinks,omitempty"`
	Status         string     `json:"status"`
	AppliedAt      time.Time  `json:"appliedAt"`
	RespondedAt    *time.Time `json:"respondedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	application := &domain.CampaignApplication{
		CampaignID:     strings.TrimSpace(req.CampaignID),
		ProposedRate:   req.ProposedRate,
		Currency:       req.Currency,
		Message:        strings.TrimSpace(req.Message),
		PortfolioLinks: req.PortfolioLinks,
	}

	created, err := h.service.Apply(c.UserContext(), transport.ActorFromCtx(c), application)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toApplicationResponse(created))
}

func (h *ApplicationHandler) GetApplication(c *fiber.Ctx) error {
	application, err := h.service.Get(c.UserContext(), transport.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toApplicationResponse(application))
}

func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	applications, err := h.service.ListMine(c.UserContext(), transport.ActorFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toApplicationResponses(applications)})
}

func (h *ApplicationHandler) Respond(c *fiber.Ctx) error {
	var req respondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var accept bool
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case string(domain.ApplicationAccepted):
		accept = true
	case string(domain.ApplicationRejected):
		accept = false
	default:
		return fmt.Errorf("%w: status must be accepted or rejected", domain.ErrValidation)
	}

	application, err := h.service.Respond(c.UserContext(), transport.ActorFromCtx(c), c.Params("id"), accept)
	if err != nil {
		return err
	}
	return c.JSON(toApplicationResponse(application))
}

func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	if err := h.service.Withdraw(c.UserContext(), transport.ActorFromCtx(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toApplicationResponse(application *domain.CampaignApplication) applicationResponse {
	if application == nil {
		return applicationResponse{}
	}

	return applicationResponse{
		ID:             application.ID,
		CampaignID:     application.CampaignID,
		InfluencerID:   application.InfluencerID,
		ProposedRate:   application.ProposedRate,
		Currency:       application.Currency,
		Message:        application.Message,
		PortfolioLinks: application.PortfolioLinks,
		Status:         string(application.Status),
		AppliedAt:      application.AppliedAt,
		RespondedAt:    application.RespondedAt,
		CompletedAt:    application.CompletedAt,
	}
}

func toApplicationResponses(applications []domain.CampaignApplication) []applicationResponse {
	responses := make([]applicationResponse, 0, len(applications))
	for i := range applications {
		responses = append(responses, toApplicationResponse(&applications[i]))
	}
	return responses
}
