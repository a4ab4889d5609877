package domain

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus is the campaign lifecycle state.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted, CampaignCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the campaign can never change again.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignCompleted || s == CampaignCancelled
}

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:  {CampaignActive, CampaignCancelled},
	CampaignActive: {CampaignPaused, CampaignCompleted, CampaignCancelled},
	CampaignPaused: {CampaignActive, CampaignCompleted, CampaignCancelled},
}

// Campaign is a brand's open call for influencer collaborations. Budget
// bounds are minor units; targeting fields only filter discovery.
type Campaign struct {
	ID                  string
	BrandID             string
	Title               string
	Description         string
	BudgetMin           int64
	BudgetMax           int64
	Currency            string
	RequiredPlatforms   []string
	TargetInterests     []string
	TargetLocations     []string
	MinFollowers        int64
	MinEngagementRate   float64
	ApplicationDeadline *time.Time
	Status              CampaignStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.BrandID) == "" {
		return fmt.Errorf("%w: brand id is required", ErrValidation)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if c.BudgetMin <= 0 {
		return fmt.Errorf("%w: minimum budget must be positive", ErrValidation)
	}
	if c.BudgetMax < c.BudgetMin {
		return fmt.Errorf("%w: maximum budget must be at least the minimum", ErrValidation)
	}
	if !SupportedCurrency(c.Currency) {
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, c.Currency)
	}
	if c.MinEngagementRate < 0 || c.MinEngagementRate > 100 {
		return fmt.Errorf("%w: engagement rate must be between 0 and 100", ErrValidation)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: invalid campaign status %q", ErrValidation, c.Status)
	}
	return nil
}

// Transition moves the campaign to the target status, failing without
// mutation when the move is not in the transition table.
func (c *Campaign) Transition(to CampaignStatus) error {
	for _, allowed := range campaignTransitions[c.Status] {
		if allowed == to {
			c.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: campaign cannot move from %s to %s", ErrInvalidStateTransition, c.Status, to)
}

// AcceptsApplications reports whether influencers may still apply: the
// campaign is active and the deadline, if set, has not passed.
func (c *Campaign) AcceptsApplications(now time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if c.ApplicationDeadline != nil && c.ApplicationDeadline.Before(now) {
		return false
	}
	return true
}
