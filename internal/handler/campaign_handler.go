package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/repository"
	"github.com/influencelytic/marketplace/internal/service"
	"github.com/influencelytic/marketplace/internal/transport"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

type CampaignService interface {
	Create(ctx context.Context, actor service.Actor, campaign *domain.Campaign) (*domain.Campaign, error)
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	Update(ctx context.Context, actor service.Actor, id string, update service.CampaignUpdate) (*domain.Campaign, error)
	UpdateStatus(ctx context.Context, actor service.Actor, id string, to domain.CampaignStatus) (*domain.Campaign, error)
	List(ctx context.Context, params repository.CampaignListParams) ([]domain.Campaign, int64, error)
	ListApplications(ctx context.Context, actor service.Actor, campaignID string) ([]domain.CampaignApplication, error)
}

type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/campaigns", h.CreateCampaign)
	v1.Get("/campaigns", h.ListCampaigns)
	v1.Get("/campaigns/:id", h.GetCampaign)
	v1.Patch("/campaigns/:id", h.UpdateCampaign)
	v1.Post("/campaigns/:id/status", h.UpdateCampaignStatus)
	v1.Get("/campaigns/:id/applications", h.ListCampaignApplications)

	return nil
}

type campaignRequest struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	BudgetMin           int64    `json:"budgetMin"`
	BudgetMax           int64    `json:"budgetMax"`
	Currency            string   `json:"currency"`
	RequiredPlatforms   []string `json:"requiredPlatforms"`
	TargetInterests     []string `json:"targetInterests"`
	TargetLocations     []string `json:"targetLocations"`
	MinFollowers        int64    `json:"minFollowers"`
	MinEngagementRate   float64  `json:"minEngagementRate"`
	ApplicationDeadline string   `json:"applicationDeadline"`
}

type campaignUpdateRequest struct {
	Title               *string  `json:"title"`
	Description         *string  `json:"description"`
	BudgetMin           *int64   `json:"budgetMin"`
	BudgetMax           *int64   `json:"budgetMax"`
	RequiredPlatforms   []string `json:"requiredPlatforms"`
	TargetInterests     []string `json:"targetInterests"`
	TargetLocations     []string `json:"targetLocations"`
	MinFollowers        *int64   `json:"minFollowers"`
	MinEngagementRate   *float64 `json:"minEngagementRate"`
	ApplicationDeadline *string  `json:"applicationDeadline"`
}

type campaignStatusRequest struct {
	Status string `json:"status"`
}

type campaignResponse struct {
	ID                  string     `json:"id"`
	BrandID             string     `json:"brandId"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	BudgetMin           int64      `json:"budgetMin"`
	BudgetMax           int64      `json:"budgetMax"`
	Currency            string     `json:"currency"`
	RequiredPlatforms   []string   `json:"requiredPlatforms,omitempty"`
	TargetInterests     []string   `json:"targetInterests,omitempty"`
	TargetLocations     []string   `json:"targetLocations,omitempty"`
	MinFollowers        int64      `json:"minFollowers,omitempty"`
	MinEngagementRate   float64    `json:"minEngagementRate,omitempty"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type listCampaignsResponse struct {
	Data []campaignResponse `json:"data"`
	Meta listMeta           `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req campaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	deadline, err := parseOptionalTime(req.ApplicationDeadline, "applicationDeadline")
	if err != nil {
		return err
	}

	campaign := &domain.Campaign{
		Title:               strings.TrimSpace(req.Title),
		Description:         strings.TrimSpace(req.Description),
		BudgetMin:           req.BudgetMin,
		BudgetMax:           req.BudgetMax,
		Currency:            req.Currency,
		RequiredPlatforms:   req.RequiredPlatforms,
		TargetInterests:     req.TargetInterests,
		TargetLocations:     req.TargetLocations,
		MinFollowers:        req.MinFollowers,
		MinEngagementRate:   req.MinEngagementRate,
		ApplicationDeadline: deadline,
	}

	created, err := h.service.Create(c.UserContext(), transport.ActorFromCtx(c), campaign)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toCampaignResponse(created))
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	campaign, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toCampaignResponse(campaign))
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	var req campaignUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	update := service.CampaignUpdate{
		Title:             req.Title,
		Description:       req.Description,
		BudgetMin:         req.BudgetMin,
		BudgetMax:         req.BudgetMax,
		RequiredPlatforms: req.RequiredPlatforms,
		TargetInterests:   req.TargetInterests,
		TargetLocations:   req.TargetLocations,
		MinFollowers:      req.MinFollowers,
		MinEngagementRate: req.MinEngagementRate,
	}
	if req.ApplicationDeadline != nil {
		deadline, err := parseOptionalTime(*req.ApplicationDeadline, "applicationDeadline")
		if err != nil {
			return err
		}
		update.ApplicationDeadline = deadline
	}

	updated, err := h.service.Update(c.UserContext(), transport.ActorFromCtx(c), c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(toCampaignResponse(updated))
}

func (h *CampaignHandler) UpdateCampaignStatus(c *fiber.Ctx) error {
	var req campaignStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	status := domain.CampaignStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.IsValid() {
		return fmt.Errorf("%w: invalid campaign status %q", domain.ErrValidation, req.Status)
	}

	updated, err := h.service.UpdateStatus(c.UserContext(), transport.ActorFromCtx(c), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(toCampaignResponse(updated))
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	params := repository.CampaignListParams{
		Page:     queryInt(c, "page", defaultPage),
		PageSize: queryInt(c, "pageSize", defaultPageSize),
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.CampaignStatus(strings.ToLower(raw))
		if !status.IsValid() {
			return fmt.Errorf("%w: invalid campaign status %q", domain.ErrValidation, raw)
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("brandId")); raw != "" {
		params.BrandID = &raw
	}
	if raw := strings.TrimSpace(c.Query("platform")); raw != "" {
		params.Platform = &raw
	}
	if v := c.QueryInt("minBudget", -1); v >= 0 {
		minBudget := int64(v)
		params.MinBudget = &minBudget
	}
	if v := c.QueryInt("maxBudget", -1); v >= 0 {
		maxBudget := int64(v)
		params.MaxBudget = &maxBudget
	}

	campaigns, total, err := h.service.List(c.UserContext(), params)
	if err != nil {
		return err
	}

	data := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		data = append(data, toCampaignResponse(&campaigns[i]))
	}
	return c.JSON(listCampaignsResponse{
		Data: data,
		Meta: listMeta{Page: params.Page, PageSize: params.PageSize, Total: total},
	})
}

func (h *CampaignHandler) ListCampaignApplications(c *fiber.Ctx) error {
	applications, err := h.service.ListApplications(c.UserContext(), transport.ActorFromCtx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toApplicationResponses(applications)})
}

func toCampaignResponse(campaign *domain.Campaign) campaignResponse {
	if campaign == nil {
		return campaignResponse{}
	}

	return campaignResponse{
		ID:                  campaign.ID,
		BrandID:             campaign.BrandID,
		Title:               campaign.Title,
		Description:         campaign.Description,
		BudgetMin:           campaign.BudgetMin,
		BudgetMax:           campaign.BudgetMax,
		Currency:            campaign.Currency,
		RequiredPlatforms:   campaign.RequiredPlatforms,
		TargetInterests:     campaign.TargetInterests,
		TargetLocations:     campaign.TargetLocations,
		MinFollowers:        campaign.MinFollowers,
		MinEngagementRate:   campaign.MinEngagementRate,
		ApplicationDeadline: campaign.ApplicationDeadline,
		Status:              string(campaign.Status),
		CreatedAt:           campaign.CreatedAt,
		UpdatedAt:           campaign.UpdatedAt,
	}
}

func parseOptionalTime(value, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	v := c.QueryInt(key, fallback)
	if v < 1 {
		return fallback
	}
	return v
}
