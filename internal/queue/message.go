package queue

import (
	"fmt"
	"strings"

	"github.com/influencelytic/marketplace/internal/domain"
)

// NotificationMessage is the broker payload for notification fan-out.
type NotificationMessage struct {
	EventID       string                  `json:"eventId"`
	CorrelationID string                  `json:"correlationId,omitempty"`
	UserID        string                  `json:"userId"`
	Type          domain.NotificationType `json:"type"`
	Title         string                  `json:"title"`
	Message       string                  `json:"message,omitempty"`
	Data          map[string]any          `json:"data,omitempty"`
}

func (m NotificationMessage) Validate() error {
	if strings.TrimSpace(m.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid notification type %q", m.Type)
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}
