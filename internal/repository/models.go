package repository

import (
	"time"

	"github.com/influencelytic/marketplace/internal/domain"
)

// CampaignModel is the persistence model for the campaigns table.
type CampaignModel struct {
	ID                  string                `gorm:"type:uuid;primaryKey"`
	BrandID             string                `gorm:"type:uuid;not null;index"`
	Title               string                `gorm:"type:varchar(255);not null"`
	Description         string                `gorm:"type:text"`
	BudgetMin           int64                 `gorm:"not null"`
	BudgetMax           int64                 `gorm:"not null"`
	Currency            string                `gorm:"type:varchar(3);not null"`
	RequiredPlatforms   []string              `gorm:"type:jsonb;serializer:json"`
	TargetInterests     []string              `gorm:"type:jsonb;serializer:json"`
	TargetLocations     []string              `gorm:"type:jsonb;serializer:json"`
	MinFollowers        int64                 `gorm:"not null;default:0"`
	MinEngagementRate   float64               `gorm:"not null;default:0"`
	ApplicationDeadline *time.Time            `gorm:"type:timestamptz"`
	Status              domain.CampaignStatus `gorm:"type:varchar(20);not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// ApplicationModel is the persistence model for campaign_applications.
type ApplicationModel struct {
	ID             string                   `gorm:"type:uuid;primaryKey"`
	CampaignID     string                   `gorm:"type:uuid;not null"`
	InfluencerID   string                   `gorm:"type:uuid;not null"`
	ProposedRate   int64                    `gorm:"not null"`
	Currency       string                   `gorm:"type:varchar(3);not null"`
	Message        string                   `gorm:"type:text"`
	PortfolioLinks []string                 `gorm:"type:jsonb;serializer:json"`
	Status         domain.ApplicationStatus `gorm:"type:varchar(20);not null"`
	AppliedAt      time.Time                `gorm:"not null"`
	RespondedAt    *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ApplicationModel) TableName() string {
	return "campaign_applications"
}

// TransactionModel is the persistence model for transactions.
type TransactionModel struct {
	ID               string                   `gorm:"type:uuid;primaryKey"`
	CampaignID       string                   `gorm:"type:uuid;not null"`
	ApplicationID    string                   `gorm:"type:uuid;not null"`
	BrandID          string                   `gorm:"type:uuid;not null;index"`
	InfluencerID     string                   `gorm:"type:uuid;not null;index"`
	Amount           int64                    `gorm:"not null"`
	Currency         string                   `gorm:"type:varchar(3);not null"`
	PlatformFeeRate  int64                    `gorm:"not null"`
	PlatformFee      int64                    `gorm:"not null"`
	InfluencerPayout int64                    `gorm:"not null"`
	PaymentIntentID  string                   `gorm:"type:varchar(255);not null"`
	Status           domain.TransactionStatus `gorm:"type:varchar(20);not null"`
	RefundAmount     *int64
	RefundReason     *string `gorm:"type:text"`
	ProcessedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (TransactionModel) TableName() string {
	return "transactions"
}

// NotificationModel is the persistence model for notifications.
type NotificationModel struct {
	ID        string                  `gorm:"type:uuid;primaryKey"`
	UserID    string                  `gorm:"type:uuid;not null"`
	Type      domain.NotificationType `gorm:"type:varchar(40);not null"`
	Title     string                  `gorm:"type:varchar(255);not null"`
	Message   string                  `gorm:"type:text"`
	Data      map[string]any          `gorm:"type:jsonb;serializer:json"`
	IsRead    bool                    `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// ProfileModel mirrors the subset of the managed profiles table this service
// reads and writes capability flags onto.
type ProfileModel struct {
	ID              string      `gorm:"type:uuid;primaryKey"`
	Email           string      `gorm:"type:varchar(255);not null"`
	Role            domain.Role `gorm:"type:varchar(20);not null"`
	StripeAccountID *string     `gorm:"type:varchar(255)"`
	ChargesEnabled  bool        `gorm:"not null;default:false"`
	PayoutsEnabled  bool        `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ProfileModel) TableName() string {
	return "profiles"
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:                  c.ID,
		BrandID:             c.BrandID,
		Title:               c.Title,
		Description:         c.Description,
		BudgetMin:           c.BudgetMin,
		BudgetMax:           c.BudgetMax,
		Currency:            c.Currency,
		RequiredPlatforms:   c.RequiredPlatforms,
		TargetInterests:     c.TargetInterests,
		TargetLocations:     c.TargetLocations,
		MinFollowers:        c.MinFollowers,
		MinEngagementRate:   c.MinEngagementRate,
		ApplicationDeadline: c.ApplicationDeadline,
		Status:              c.Status,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:                  m.ID,
		BrandID:             m.BrandID,
		Title:               m.Title,
		Description:         m.Description,
		BudgetMin:           m.BudgetMin,
		BudgetMax:           m.BudgetMax,
		Currency:            m.Currency,
		RequiredPlatforms:   m.RequiredPlatforms,
		TargetInterests:     m.TargetInterests,
		TargetLocations:     m.TargetLocations,
		MinFollowers:        m.MinFollowers,
		MinEngagementRate:   m.MinEngagementRate,
		ApplicationDeadline: m.ApplicationDeadline,
		Status:              m.Status,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func applicationModelFromDomain(a *domain.CampaignApplication) *ApplicationModel {
	if a == nil {
		return nil
	}

	return &ApplicationModel{
		ID:             a.ID,
		CampaignID:     a.CampaignID,
		InfluencerID:   a.InfluencerID,
		ProposedRate:   a.ProposedRate,
		Currency:       a.Currency,
		Message:        a.Message,
		PortfolioLinks: a.PortfolioLinks,
		Status:         a.Status,
		AppliedAt:      a.AppliedAt,
		RespondedAt:    a.RespondedAt,
		CompletedAt:    a.CompletedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func applicationModelToDomain(m *ApplicationModel) *domain.CampaignApplication {
	if m == nil {
		return nil
	}

	return &domain.CampaignApplication{
		ID:             m.ID,
		CampaignID:     m.CampaignID,
		InfluencerID:   m.InfluencerID,
		ProposedRate:   m.ProposedRate,
		Currency:       m.Currency,
		Message:        m.Message,
		PortfolioLinks: m.PortfolioLinks,
		Status:         m.Status,
		AppliedAt:      m.AppliedAt,
		RespondedAt:    m.RespondedAt,
		CompletedAt:    m.CompletedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func transactionModelFromDomain(t *domain.Transaction) *TransactionModel {
	if t == nil {
		return nil
	}

	return &TransactionModel{
		ID:               t.ID,
		CampaignID:       t.CampaignID,
		ApplicationID:    t.ApplicationID,
		BrandID:          t.BrandID,
		InfluencerID:     t.InfluencerID,
		Amount:           t.Amount,
		Currency:         t.Currency,
		PlatformFeeRate:  t.PlatformFeeRate,
		PlatformFee:      t.PlatformFee,
		InfluencerPayout: t.InfluencerPayout,
		PaymentIntentID:  t.PaymentIntentID,
		Status:           t.Status,
		RefundAmount:     t.RefundAmount,
		RefundReason:     t.RefundReason,
		ProcessedAt:      t.ProcessedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func transactionModelToDomain(m *TransactionModel) *domain.Transaction {
	if m == nil {
		return nil
	}

	return &domain.Transaction{
		ID:               m.ID,
		CampaignID:       m.CampaignID,
		ApplicationID:    m.ApplicationID,
		BrandID:          m.BrandID,
		InfluencerID:     m.InfluencerID,
		Amount:           m.Amount,
		Currency:         m.Currency,
		PlatformFeeRate:  m.PlatformFeeRate,
		PlatformFee:      m.PlatformFee,
		InfluencerPayout: m.InfluencerPayout,
		PaymentIntentID:  m.PaymentIntentID,
		Status:           m.Status,
		RefundAmount:     m.RefundAmount,
		RefundReason:     m.RefundReason,
		ProcessedAt:      m.ProcessedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Message:   m.Message,
		Data:      m.Data,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func profileModelToDomain(m *ProfileModel) *domain.Profile {
	if m == nil {
		return nil
	}

	return &domain.Profile{
		ID:              m.ID,
		Email:           m.Email,
		Role:            m.Role,
		StripeAccountID: m.StripeAccountID,
		ChargesEnabled:  m.ChargesEnabled,
		PayoutsEnabled:  m.PayoutsEnabled,
	}
}
