package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/influencelytic/marketplace/internal/domain"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	SetStripeAccount(ctx context.Context, userID, stripeAccountID string) error
	UpdateCapabilities(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error
	GetByStripeAccount(ctx context.Context, stripeAccountID string) (*domain.Profile, error)
}

type GormProfileRepo struct {
	db *gorm.DB
}

func NewGormProfileRepo(db *gorm.DB) *GormProfileRepo {
	return &GormProfileRepo{db: db}
}

func (r *GormProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var model ProfileModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profileModelToDomain(&model), nil
}

func (r *GormProfileRepo) SetStripeAccount(ctx context.Context, userID, stripeAccountID string) error {
	result := r.db.WithContext(ctx).
		Model(&ProfileModel{}).
		Where("id = ?", userID).
		Update("stripe_account_id", stripeAccountID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCapabilities mirrors the processor's account.updated capability flags
// onto the profile; payout eligibility in the UI reads these columns.
func (r *GormProfileRepo) UpdateCapabilities(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&ProfileModel{}).
		Where("stripe_account_id = ?", stripeAccountID).
		Updates(map[string]any{
			"charges_enabled": chargesEnabled,
			"payouts_enabled": payoutsEnabled,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormProfileRepo) GetByStripeAccount(ctx context.Context, stripeAccountID string) (*domain.Profile, error) {
	var model ProfileModel
	err := r.db.WithContext(ctx).
		Where("stripe_account_id = ?", stripeAccountID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profileModelToDomain(&model), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
