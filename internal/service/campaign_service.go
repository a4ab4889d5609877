package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/repository"
	"go.uber.org/zap"
)

type CampaignService struct {
	campaigns    repository.CampaignRepository
	applications repository.ApplicationRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	applications repository.ApplicationRepository,
	logger *zap.Logger,
) (*CampaignService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns:    campaigns,
		applications: applications,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Create registers a new campaign for the acting brand. Campaigns start in
// draft; activation is a separate status change.
func (s *CampaignService) Create(ctx context.Context, actor Actor, campaign *domain.Campaign) (*domain.Campaign, error) {
	if err := requireRole(actor, domain.RoleBrand); err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign is required", domain.ErrValidation)
	}

	campaign.ID = uuid.NewString()
	campaign.BrandID = actor.UserID
	campaign.Currency = strings.ToLower(strings.TrimSpace(campaign.Currency))
	campaign.Status = domain.CampaignDraft

	if err := campaign.Validate(); err != nil {
		return nil, err
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.String("campaignId", campaign.ID),
		zap.String("brandId", campaign.BrandID),
	)
	return campaign, nil
}

func (s *CampaignService) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: campaign id is required", domain.ErrValidation)
	}
	return s.campaigns.GetByID(ctx, strings.TrimSpace(id))
}

// CampaignUpdate carries the mutable campaign fields. Nil means unchanged.
type CampaignUpdate struct {
	Title               *string
	Description         *string
	BudgetMin           *int64
	BudgetMax           *int64
	RequiredPlatforms   []string
	TargetInterests     []string
	TargetLocations     []string
	MinFollowers        *int64
	MinEngagementRate   *float64
	ApplicationDeadline *time.Time
}

// Update edits an existing campaign. Only the owning brand may edit, and
// terminal campaigns are immutable.
func (s *CampaignService) Update(ctx context.Context, actor Actor, id string, update CampaignUpdate) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, campaign.BrandID); err != nil {
		return nil, err
	}
	if campaign.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: campaign is %s", domain.ErrInvalidStateTransition, campaign.Status)
	}

	applyCampaignUpdate(campaign, update)
	if err := campaign.Validate(); err != nil {
		return nil, err
	}
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// UpdateStatus drives the campaign state machine on behalf of the owning
// brand.
func (s *CampaignService) UpdateStatus(ctx context.Context, actor Actor, id string, to domain.CampaignStatus) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, campaign.BrandID); err != nil {
		return nil, err
	}

	from := campaign.Status
	if err := campaign.Transition(to); err != nil {
		return nil, err
	}
	if err := s.campaigns.UpdateStatus(ctx, campaign.ID, from, to); err != nil {
		return nil, err
	}

	s.logger.Info("campaign status changed",
		zap.String("campaignId", campaign.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return campaign, nil
}

func (s *CampaignService) List(ctx context.Context, params repository.CampaignListParams) ([]domain.Campaign, int64, error) {
	return s.campaigns.List(ctx, params)
}

// ListApplications returns a campaign's applications to its owning brand.
func (s *CampaignService) ListApplications(ctx context.Context, actor Actor, campaignID string) ([]domain.CampaignApplication, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, campaign.BrandID); err != nil {
		return nil, err
	}
	return s.applications.ListByCampaign(ctx, campaign.ID)
}

func applyCampaignUpdate(c *domain.Campaign, u CampaignUpdate) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.BudgetMin != nil {
		c.BudgetMin = *u.BudgetMin
	}
	if u.BudgetMax != nil {
		c.BudgetMax = *u.BudgetMax
	}
	if u.RequiredPlatforms != nil {
		c.RequiredPlatforms = u.RequiredPlatforms
	}
	if u.TargetInterests != nil {
		c.TargetInterests = u.TargetInterests
	}
	if u.TargetLocations != nil {
		c.TargetLocations = u.TargetLocations
	}
	if u.MinFollowers != nil {
		c.MinFollowers = *u.MinFollowers
	}
	if u.MinEngagementRate != nil {
		c.MinEngagementRate = *u.MinEngagementRate
	}
	if u.ApplicationDeadline != nil {
		c.ApplicationDeadline = u.ApplicationDeadline
	}
}

func requireRole(actor Actor, role domain.Role) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return fmt.Errorf("%w: missing identity", domain.ErrForbidden)
	}
	if actor.Role != role {
		return fmt.Errorf("%w: requires %s role", domain.ErrForbidden, role)
	}
	return nil
}

func requireOwner(actor Actor, ownerID string) error {
	if actor.UserID == "" || actor.UserID != ownerID {
		return fmt.Errorf("%w: not the resource owner", domain.ErrForbidden)
	}
	return nil
}
