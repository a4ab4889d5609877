package repository

import (
	"context"
	"errors"

	"github.com/influencelytic/marketplace/internal/domain"
	"gorm.io/gorm"
)

type CampaignListParams struct {
	Status    *domain.CampaignStatus
	BrandID   *string
	MinBudget *int64
	MaxBudget *int64
	Platform  *string
	Page      int
	PageSize  int
}

type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	Update(ctx context.Context, c *domain.Campaign) error
	UpdateStatus(ctx context.Context, id string, from, to domain.CampaignStatus) error
	List(ctx context.Context, params CampaignListParams) ([]domain.Campaign, int64, error)
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	model := campaignModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *campaignModelToDomain(model)
	}
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	model := campaignModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND status NOT IN ?", model.ID, []domain.CampaignStatus{domain.CampaignCompleted, domain.CampaignCancelled}).
		Updates(map[string]any{
			"title":                model.Title,
			"description":          model.Description,
			"budget_min":           model.BudgetMin,
			"budget_max":           model.BudgetMax,
			"required_platforms":   model.RequiredPlatforms,
			"target_interests":     model.TargetInterests,
			"target_locations":     model.TargetLocations,
			"min_followers":        model.MinFollowers,
			"min_engagement_rate":  model.MinEngagementRate,
			"application_deadline": model.ApplicationDeadline,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateStatus applies a brand-driven transition conditionally on the current
// status so concurrent moves cannot skip the state machine.
func (r *GormCampaignRepo) UpdateStatus(ctx context.Context, id string, from, to domain.CampaignStatus) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormCampaignRepo) List(ctx context.Context, params CampaignListParams) ([]domain.Campaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&CampaignModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.BrandID != nil {
		query = query.Where("brand_id = ?", *params.BrandID)
	}
	if params.MinBudget != nil {
		query = query.Where("budget_min >= ?", *params.MinBudget)
	}
	if params.MaxBudget != nil {
		query = query.Where("budget_max <= ?", *params.MaxBudget)
	}
	if params.Platform != nil {
		query = query.Where("required_platforms @> ?", `["`+*params.Platform+`"]`)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	pageSize = min(pageSize, 100)

	var models []CampaignModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	campaigns := make([]domain.Campaign, 0, len(models))
	for i := range models {
		campaigns = append(campaigns, *campaignModelToDomain(&models[i]))
	}

	return campaigns, total, nil
}
