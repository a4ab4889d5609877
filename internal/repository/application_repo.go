package repository

import (
	"context"
	"errors"
	"time"

	"github.com/influencelytic/marketplace/internal/domain"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, a *domain.CampaignApplication) error
	GetByID(ctx context.Context, id string) (*domain.CampaignApplication, error)
	GetByCampaignAndInfluencer(ctx context.Context, campaignID, influencerID string) (*domain.CampaignApplication, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.CampaignApplication, error)
	ListByInfluencer(ctx context.Context, influencerID string) ([]domain.CampaignApplication, error)
	ListByBrand(ctx context.Context, brandID string) ([]domain.CampaignApplication, error)
	Respond(ctx context.Context, id string, to domain.ApplicationStatus, respondedAt time.Time) error
	CompleteAccepted(ctx context.Context, id string, completedAt time.Time) error
	DeletePending(ctx context.Context, id string) error
}

type GormApplicationRepo struct {
	db *gorm.DB
}

func NewGormApplicationRepo(db *gorm.DB) *GormApplicationRepo {
	return &GormApplicationRepo{db: db}
}

func (r *GormApplicationRepo) Create(ctx context.Context, a *domain.CampaignApplication) error {
	model := applicationModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *applicationModelToDomain(model)
	}
	return nil
}

func (r *GormApplicationRepo) GetByID(ctx context.Context, id string) (*domain.CampaignApplication, error) {
	var model ApplicationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return applicationModelToDomain(&model), nil
}

func (r *GormApplicationRepo) GetByCampaignAndInfluencer(ctx context.Context, campaignID, influencerID string) (*domain.CampaignApplication, error) {
	var model ApplicationModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND influencer_id = ?", campaignID, influencerID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return applicationModelToDomain(&model), nil
}

func (r *GormApplicationRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.CampaignApplication, error) {
	var models []ApplicationModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("applied_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return applicationModelsToDomain(models), nil
}

func (r *GormApplicationRepo) ListByInfluencer(ctx context.Context, influencerID string) ([]domain.CampaignApplication, error) {
	var models []ApplicationModel
	err := r.db.WithContext(ctx).
		Where("influencer_id = ?", influencerID).
		Order("applied_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return applicationModelsToDomain(models), nil
}

func (r *GormApplicationRepo) ListByBrand(ctx context.Context, brandID string) ([]domain.CampaignApplication, error) {
	var models []ApplicationModel
	err := r.db.WithContext(ctx).
		Joins("JOIN campaigns ON campaigns.id = campaign_applications.campaign_id").
		Where("campaigns.brand_id = ?", brandID).
		Order("campaign_applications.applied_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return applicationModelsToDomain(models), nil
}

// Respond flips pending -> accepted/rejected conditionally on the row still
// being pending; a lost race surfaces as ErrInvalidStateTransition without
// mutating anything.
func (r *GormApplicationRepo) Respond(ctx context.Context, id string, to domain.ApplicationStatus, respondedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ApplicationModel{}).
		Where("id = ? AND status = ?", id, domain.ApplicationPending).
		Updates(map[string]any{
			"status":       to,
			"responded_at": respondedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

// CompleteAccepted flips accepted -> completed; only payment success calls it.
func (r *GormApplicationRepo) CompleteAccepted(ctx context.Context, id string, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ApplicationModel{}).
		Where("id = ? AND status = ?", id, domain.ApplicationAccepted).
		Updates(map[string]any{
			"status":       domain.ApplicationCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func (r *GormApplicationRepo) DeletePending(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.ApplicationPending).
		Delete(&ApplicationModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func applicationModelsToDomain(models []ApplicationModel) []domain.CampaignApplication {
	applications := make([]domain.CampaignApplication, 0, len(models))
	for i := range models {
		applications = append(applications, *applicationModelToDomain(&models[i]))
	}
	return applications
}
