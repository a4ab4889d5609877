package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/queue"
	"github.com/influencelytic/marketplace/internal/repository"
	"go.uber.org/zap"
)

type ApplicationService struct {
	applications repository.ApplicationRepository
	campaigns    repository.CampaignRepository
	fanout       *eventFanout
	logger       *zap.Logger
	now          func() time.Time
}

func NewApplicationService(
	applications repository.ApplicationRepository,
	campaigns repository.CampaignRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*ApplicationService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ApplicationService{
		applications: applications,
		campaigns:    campaigns,
		fanout:       newEventFanout(publisher, logger),
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Apply submits an influencer's pitch for a campaign. The campaign must be
// accepting applications and each influencer applies at most once; the
// unique index backs the pre-check under races.
func (s *ApplicationService) Apply(ctx context.Context, actor Actor, application *domain.CampaignApplication) (*domain.CampaignApplication, error) {
	if err := requireRole(actor, domain.RoleInfluencer); err != nil {
		return nil, err
	}
	if application == nil {
		return nil, fmt.Errorf("%w: application is required", domain.ErrValidation)
	}

	campaign, err := s.campaigns.GetByID(ctx, application.CampaignID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if !campaign.AcceptsApplications(now) {
		return nil, fmt.Errorf("%w: campaign is not accepting applications", domain.ErrValidation)
	}

	application.ID = uuid.NewString()
	application.InfluencerID = actor.UserID
	application.Currency = strings.ToLower(strings.TrimSpace(application.Currency))
	if application.Currency == "" {
		application.Currency = campaign.Currency
	}
	application.Status = domain.ApplicationPending
	application.AppliedAt = now

	if err := application.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.applications.GetByCampaignAndInfluencer(ctx, campaign.ID, actor.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: already applied to this campaign", domain.ErrConflict)
	}

	if err := s.applications.Create(ctx, application); err != nil {
		return nil, err
	}

	s.logger.Info("application submitted",
		zap.String("applicationId", application.ID),
		zap.String("campaignId", campaign.ID),
		zap.String("influencerId", actor.UserID),
	)
	return application, nil
}

// Get returns an application to one of its parties: the influencer who
// applied or the brand that owns the campaign.
func (s *ApplicationService) Get(ctx context.Context, actor Actor, id string) (*domain.CampaignApplication, error) {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(ctx, actor, application); err != nil {
		return nil, err
	}
	return application, nil
}

// ListMine returns the actor's applications: submitted ones for an
// influencer, received ones across all campaigns for a brand.
func (s *ApplicationService) ListMine(ctx context.Context, actor Actor) ([]domain.CampaignApplication, error) {
	switch actor.Role {
	case domain.RoleInfluencer:
		return s.applications.ListByInfluencer(ctx, actor.UserID)
	case domain.RoleBrand:
		return s.applications.ListByBrand(ctx, actor.UserID)
	default:
		return nil, fmt.Errorf("%w: unknown role", domain.ErrForbidden)
	}
}

// Respond lets the campaign's brand accept or reject a pending application.
// The influencer is notified either way.
func (s *ApplicationService) Respond(ctx context.Context, actor Actor, id string, accept bool) (*domain.CampaignApplication, error) {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.GetByID(ctx, application.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, campaign.BrandID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var event *domain.NotificationEvent
	if accept {
		event, err = application.Accept(now)
	} else {
		event, err = application.Reject(now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.applications.Respond(ctx, application.ID, application.Status, now); err != nil {
		return nil, err
	}

	event.Data["campaignTitle"] = campaign.Title
	s.fanout.Dispatch(ctx, *event)

	s.logger.Info("application responded",
		zap.String("applicationId", application.ID),
		zap.String("status", string(application.Status)),
	)
	return application, nil
}

// Withdraw deletes the influencer's own application while it is still
// pending.
func (s *ApplicationService) Withdraw(ctx context.Context, actor Actor, id string) error {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, application.InfluencerID); err != nil {
		return err
	}
	if !application.Withdrawable() {
		return fmt.Errorf("%w: application already %s", domain.ErrInvalidStateTransition, application.Status)
	}
	return s.applications.DeletePending(ctx, application.ID)
}

func (s *ApplicationService) requireParty(ctx context.Context, actor Actor, application *domain.CampaignApplication) error {
	if actor.UserID == application.InfluencerID {
		return nil
	}
	campaign, err := s.campaigns.GetByID(ctx, application.CampaignID)
	if err != nil {
		return err
	}
	return requireOwner(actor, campaign.BrandID)
}
