package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/queue"
)

type applicationFixture struct {
	service      *ApplicationService
	applications *fakeApplicationRepo
	campaigns    *fakeCampaignRepo
	publisher    *fakePublisher
}

func newApplicationFixture(t *testing.T) *applicationFixture {
	t.Helper()

	applications := newFakeApplicationRepo()
	campaigns := newFakeCampaignRepo()
	publisher := &fakePublisher{}

	svc, err := NewApplicationService(applications, campaigns, publisher, nil)
	if err != nil {
		t.Fatalf("NewApplicationService() error = %v", err)
	}

	return &applicationFixture{
		service:      svc,
		applications: applications,
		campaigns:    campaigns,
		publisher:    publisher,
	}
}

func (fx *applicationFixture) seedActiveCampaign() *domain.Campaign {
	campaign := &domain.Campaign{
		ID: "camp-1", BrandID: "brand-1", Title: "Summer Push",
		BudgetMin: 200_00, BudgetMax: 900_00, Currency: "usd",
		Status: domain.CampaignActive,
	}
	fx.campaigns.Create(context.Background(), campaign)
	return campaign
}

func TestApplyCreatesPendingApplication(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()
	influencer := Actor{UserID: "inf-1", Role: domain.RoleInfluencer}

	application, err := fx.service.Apply(context.Background(), influencer, &domain.CampaignApplication{
		CampaignID:   campaign.ID,
		ProposedRate: 400_00,
		Message:      "I can cover this launch on two platforms.",
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if application.Status != domain.ApplicationPending {
		t.Fatalf("status = %s, want pending", application.Status)
	}
	if application.InfluencerID != "inf-1" {
		t.Fatalf("influencer = %s, want actor", application.InfluencerID)
	}
	if application.Currency != "usd" {
		t.Fatalf("currency = %s, want campaign default usd", application.Currency)
	}
	if application.AppliedAt.IsZero() {
		t.Fatal("applied_at not set")
	}
}

func TestApplyRejectsInactiveOrExpiredCampaign(t *testing.T) {
	fx := newApplicationFixture(t)
	influencer := Actor{UserID: "inf-1", Role: domain.RoleInfluencer}

	paused := &domain.Campaign{
		ID: "camp-paused", BrandID: "brand-1", Title: "Paused",
		BudgetMin: 100_00, BudgetMax: 200_00, Currency: "usd",
		Status: domain.CampaignPaused,
	}
	fx.campaigns.Create(context.Background(), paused)

	past := time.Now().Add(-24 * time.Hour)
	expired := &domain.Campaign{
		ID: "camp-expired", BrandID: "brand-1", Title: "Expired",
		BudgetMin: 100_00, BudgetMax: 200_00, Currency: "usd",
		Status: domain.CampaignActive, ApplicationDeadline: &past,
	}
	fx.campaigns.Create(context.Background(), expired)

	for _, campaignID := range []string{"camp-paused", "camp-expired"} {
		_, err := fx.service.Apply(context.Background(), influencer, &domain.CampaignApplication{
			CampaignID:   campaignID,
			ProposedRate: 150_00,
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Apply(%s) error = %v, want ErrValidation", campaignID, err)
		}
	}
}

func TestApplyOncePerCampaign(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()
	influencer := Actor{UserID: "inf-1", Role: domain.RoleInfluencer}

	if _, err := fx.service.Apply(context.Background(), influencer, &domain.CampaignApplication{
		CampaignID: campaign.ID, ProposedRate: 400_00,
	}); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	_, err := fx.service.Apply(context.Background(), influencer, &domain.CampaignApplication{
		CampaignID: campaign.ID, ProposedRate: 350_00,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second Apply() error = %v, want ErrConflict", err)
	}
}

func TestApplyRequiresInfluencerRole(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()

	_, err := fx.service.Apply(context.Background(), Actor{UserID: "brand-1", Role: domain.RoleBrand}, &domain.CampaignApplication{
		CampaignID: campaign.ID, ProposedRate: 400_00,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Apply() error = %v, want ErrForbidden", err)
	}
}

func TestRespondAcceptNotifiesInfluencer(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()
	brand := Actor{UserID: campaign.BrandID, Role: domain.RoleBrand}

	fx.applications.put(&domain.CampaignApplication{
		ID: "app-1", CampaignID: campaign.ID, InfluencerID: "inf-1",
		ProposedRate: 400_00, Currency: "usd", Status: domain.ApplicationPending,
	})

	application, err := fx.service.Respond(context.Background(), brand, "app-1", true)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if application.Status != domain.ApplicationAccepted {
		t.Fatalf("status = %s, want accepted", application.Status)
	}

	inapp := fx.publisher.queueMessages(queue.InAppQueue)
	if len(inapp) != 1 {
		t.Fatalf("in-app events = %d, want 1", len(inapp))
	}
	msg := inapp[0]
	if msg.UserID != "inf-1" || msg.Type != domain.NotificationApplicationStatus {
		t.Fatalf("event = %+v, want application_status to inf-1", msg)
	}
	if msg.Data["campaignTitle"] != campaign.Title {
		t.Fatalf("event data = %v, want campaign title attached", msg.Data)
	}

	// Email fan-out carries the same event.
	if email := fx.publisher.queueMessages(queue.EmailQueue); len(email) != 1 {
		t.Fatalf("email events = %d, want 1", len(email))
	}
}

func TestRespondRequiresCampaignOwner(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()

	fx.applications.put(&domain.CampaignApplication{
		ID: "app-1", CampaignID: campaign.ID, InfluencerID: "inf-1",
		ProposedRate: 400_00, Currency: "usd", Status: domain.ApplicationPending,
	})

	_, err := fx.service.Respond(context.Background(), Actor{UserID: "brand-2", Role: domain.RoleBrand}, "app-1", false)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Respond() error = %v, want ErrForbidden", err)
	}
	if len(fx.publisher.messages()) != 0 {
		t.Fatal("no events should be published on a forbidden response")
	}
}

func TestRespondRejectedApplicationIsTerminal(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()
	brand := Actor{UserID: campaign.BrandID, Role: domain.RoleBrand}

	fx.applications.put(&domain.CampaignApplication{
		ID: "app-1", CampaignID: campaign.ID, InfluencerID: "inf-1",
		ProposedRate: 400_00, Currency: "usd", Status: domain.ApplicationPending,
	})

	if _, err := fx.service.Respond(context.Background(), brand, "app-1", false); err != nil {
		t.Fatalf("Respond(reject) error = %v", err)
	}
	if _, err := fx.service.Respond(context.Background(), brand, "app-1", true); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("Respond() after reject error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestWithdrawOnlyWhilePending(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()
	influencer := Actor{UserID: "inf-1", Role: domain.RoleInfluencer}

	fx.applications.put(&domain.CampaignApplication{
		ID: "app-1", CampaignID: campaign.ID, InfluencerID: "inf-1",
		ProposedRate: 400_00, Currency: "usd", Status: domain.ApplicationPending,
	})

	if err := fx.service.Withdraw(context.Background(), influencer, "app-1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	if _, err := fx.applications.GetByID(context.Background(), "app-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("application should be deleted")
	}

	fx.applications.put(&domain.CampaignApplication{
		ID: "app-2", CampaignID: campaign.ID, InfluencerID: "inf-1",
		ProposedRate: 400_00, Currency: "usd", Status: domain.ApplicationAccepted,
	})
	if err := fx.service.Withdraw(context.Background(), influencer, "app-2"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("Withdraw() on accepted error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestGetVisibleToPartiesOnly(t *testing.T) {
	fx := newApplicationFixture(t)
	campaign := fx.seedActiveCampaign()

	fx.applications.put(&domain.CampaignApplication{
		ID: "app-1", CampaignID: campaign.ID, InfluencerID: "inf-1",
		ProposedRate: 400_00, Currency: "usd", Status: domain.ApplicationPending,
	})

	if _, err := fx.service.Get(context.Background(), Actor{UserID: "inf-1", Role: domain.RoleInfluencer}, "app-1"); err != nil {
		t.Fatalf("influencer Get() error = %v", err)
	}
	if _, err := fx.service.Get(context.Background(), Actor{UserID: campaign.BrandID, Role: domain.RoleBrand}, "app-1"); err != nil {
		t.Fatalf("brand Get() error = %v", err)
	}
	if _, err := fx.service.Get(context.Background(), Actor{UserID: "inf-2", Role: domain.RoleInfluencer}, "app-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger Get() error = %v, want ErrForbidden", err)
	}
}
