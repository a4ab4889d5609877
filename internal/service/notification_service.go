package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationService is the read side of the notification feed; writes
// come exclusively through the dispatch worker.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, logger *zap.Logger) (*NotificationService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{notifications: notifications, logger: logger}, nil
}

func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, fmt.Errorf("%w: missing identity", domain.ErrForbidden)
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.notifications.List(ctx, repository.NotificationListParams{
		UserID:     actor.UserID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
}

// MarkRead flips one of the actor's notifications to read. Another user's
// notification id reads as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return fmt.Errorf("%w: missing identity", domain.ErrForbidden)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return s.notifications.MarkRead(ctx, strings.TrimSpace(id), actor.UserID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return fmt.Errorf("%w: missing identity", domain.ErrForbidden)
	}
	return s.notifications.MarkAllRead(ctx, actor.UserID)
}
