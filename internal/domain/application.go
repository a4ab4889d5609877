package domain

import (
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the campaign application lifecycle state.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCompleted ApplicationStatus = "completed"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether the application can never change again.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationRejected || s == ApplicationCompleted
}

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:  {ApplicationAccepted, ApplicationRejected},
	ApplicationAccepted: {ApplicationCompleted},
}

// CampaignApplication is an influencer's pitch for a campaign. ProposedRate
// is minor units in the campaign's currency.
type CampaignApplication struct {
	ID             string
	CampaignID     string
	InfluencerID   string
	ProposedRate   int64
	Currency       string
	Message        string
	PortfolioLinks []string
	Status         ApplicationStatus
	AppliedAt      time.Time
	RespondedAt    *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (a *CampaignApplication) Validate() error {
	if strings.TrimSpace(a.CampaignID) == "" {
		return fmt.Errorf("%w: campaign id is required", ErrValidation)
	}
	if strings.TrimSpace(a.InfluencerID) == "" {
		return fmt.Errorf("%w: influencer id is required", ErrValidation)
	}
	if a.ProposedRate <= 0 {
		return fmt.Errorf("%w: proposed rate must be positive", ErrValidation)
	}
	if !SupportedCurrency(a.Currency) {
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, a.Currency)
	}
	return nil
}

func (a *CampaignApplication) transition(to ApplicationStatus) error {
	for _, allowed := range applicationTransitions[a.Status] {
		if allowed == to {
			a.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: application cannot move from %s to %s", ErrInvalidStateTransition, a.Status, to)
}

// Accept moves a pending application to accepted and returns the
// notification event for the influencer.
func (a *CampaignApplication) Accept(now time.Time) (*NotificationEvent, error) {
	if err := a.transition(ApplicationAccepted); err != nil {
		return nil, err
	}
	a.RespondedAt = &now
	return a.statusEvent("Application Accepted", "Your campaign application was accepted."), nil
}

// Reject moves a pending application to rejected and returns the
// notification event for the influencer.
func (a *CampaignApplication) Reject(now time.Time) (*NotificationEvent, error) {
	if err := a.transition(ApplicationRejected); err != nil {
		return nil, err
	}
	a.RespondedAt = &now
	return a.statusEvent("Application Rejected", "Your campaign application was not selected."), nil
}

// Complete marks an accepted collaboration as delivered. Only the payment
// settlement path calls this.
func (a *CampaignApplication) Complete(now time.Time) error {
	if err := a.transition(ApplicationCompleted); err != nil {
		return err
	}
	a.CompletedAt = &now
	return nil
}

// Withdrawable reports whether the influencer may still retract the
// application. Once the brand has responded it stays on record.
func (a *CampaignApplication) Withdrawable() bool {
	return a.Status == ApplicationPending
}

func (a *CampaignApplication) statusEvent(title, message string) *NotificationEvent {
	return &NotificationEvent{
		UserID:  a.InfluencerID,
		Type:    NotificationApplicationStatus,
		Title:   title,
		Message: message,
		Data: map[string]any{
			"applicationId": a.ID,
			"campaignId":    a.CampaignID,
			"status":        string(a.Status),
		},
	}
}
