package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType is the typed payload kind carried by a notification.
type NotificationType string

const (
	NotificationApplicationStatus NotificationType = "application_status"
	NotificationPaymentReceived   NotificationType = "payment_received"
	NotificationPaymentProcessed  NotificationType = "payment_processed"
	NotificationPaymentFailed     NotificationType = "payment_failed"
	NotificationPayoutFailed      NotificationType = "payout_failed"
)

func (t NotificationType) String() string { return string(t) }

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationApplicationStatus, NotificationPaymentReceived,
		NotificationPaymentProcessed, NotificationPaymentFailed, NotificationPayoutFailed:
		return true
	}
	return false
}

// Notification is a fan-out record addressed to one user. The only state
// change is unread -> read.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]any
	IsRead    bool
	CreatedAt time.Time
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: invalid notification type %q", ErrValidation, n.Type)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return nil
}
