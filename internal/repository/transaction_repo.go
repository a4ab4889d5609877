package repository

import (
	"context"
	"errors"
	"time"

	"github.com/influencelytic/marketplace/internal/domain"
	"gorm.io/gorm"
)

type TransactionListParams struct {
	UserID   string
	Role     domain.Role
	Status   *domain.TransactionStatus
	Page     int
	PageSize int
}

// TransactionSummary aggregates a party's money movement for the history view.
type TransactionSummary struct {
	TotalAmount           int64 `gorm:"column:total_amount"`
	TotalFees             int64 `gorm:"column:total_fees"`
	TotalEarnings         int64 `gorm:"column:total_earnings"`
	CompletedTransactions int64 `gorm:"column:completed_transactions"`
}

// PlatformRevenue aggregates completed platform fees over a period.
type PlatformRevenue struct {
	TotalRevenue     int64 `gorm:"column:total_revenue"`
	TransactionCount int64 `gorm:"column:transaction_count"`
}

type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Transaction, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*domain.Transaction, error)
	CompletePending(ctx context.Context, id string, processedAt time.Time) error
	FailPending(ctx context.Context, id string) error
	MarkRefunded(ctx context.Context, id string, refundAmount int64, refundReason string) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	Summary(ctx context.Context, userID string, role domain.Role) (*TransactionSummary, error)
	Revenue(ctx context.Context, from, to time.Time) (*PlatformRevenue, error)
}

type GormTransactionRepo struct {
	db *gorm.DB
}

func NewGormTransactionRepo(db *gorm.DB) *GormTransactionRepo {
	return &GormTransactionRepo{db: db}
}

func (r *GormTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	model := transactionModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if t != nil {
		*t = *transactionModelToDomain(model)
	}
	return nil
}

func (r *GormTransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return transactionModelToDomain(&model), nil
}

func (r *GormTransactionRepo) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Transaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return transactionModelToDomain(&model), nil
}

func (r *GormTransactionRepo) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Transaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return transactionModelToDomain(&model), nil
}

// CompletePending flips pending -> completed. Zero rows affected means the
// transaction was already settled or does not exist; the caller distinguishes.
func (r *GormTransactionRepo) CompletePending(ctx context.Context, id string, processedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("id = ? AND status = ?", id, domain.TransactionPending).
		Updates(map[string]any{
			"status":       domain.TransactionCompleted,
			"processed_at": processedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTransactionRepo) FailPending(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("id = ? AND status = ?", id, domain.TransactionPending).
		Update("status", domain.TransactionFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTransactionRepo) MarkRefunded(ctx context.Context, id string, refundAmount int64, refundReason string) error {
	updates := map[string]any{
		"status":        domain.TransactionRefunded,
		"refund_amount": refundAmount,
	}
	if refundReason != "" {
		updates["refund_reason"] = refundReason
	}

	result := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("id = ? AND status = ?", id, domain.TransactionCompleted).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTransactionRepo) List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&TransactionModel{})
	query = scopeToParty(query, params.UserID, params.Role)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
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

	var models []TransactionModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	transactions := make([]domain.Transaction, 0, len(models))
	for i := range models {
		transactions = append(transactions, *transactionModelToDomain(&models[i]))
	}

	return transactions, total, nil
}

func (r *GormTransactionRepo) Summary(ctx context.Context, userID string, role domain.Role) (*TransactionSummary, error) {
	var summary TransactionSummary
	query := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Select(`COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(SUM(platform_fee), 0) AS total_fees,
			COALESCE(SUM(influencer_payout), 0) AS total_earnings,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_transactions`)
	query = scopeToParty(query, userID, role)

	if err := query.Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *GormTransactionRepo) Revenue(ctx context.Context, from, to time.Time) (*PlatformRevenue, error) {
	var revenue PlatformRevenue
	err := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Select("COALESCE(SUM(platform_fee), 0) AS total_revenue, COUNT(*) AS transaction_count").
		Where("status = ? AND created_at >= ? AND created_at <= ?", domain.TransactionCompleted, from, to).
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	return &revenue, nil
}

func scopeToParty(query *gorm.DB, userID string, role domain.Role) *gorm.DB {
	if role == domain.RoleBrand {
		return query.Where("brand_id = ?", userID)
	}
	return query.Where("influencer_id = ?", userID)
}
