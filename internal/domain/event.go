package domain

// NotificationEvent is an outbound fan-out request produced by a state
// transition. Transitions return events instead of writing side effects so
// the caller can dispatch them after the transactional commit.
type NotificationEvent struct {
	UserID  string
	Type    NotificationType
	Title   string
	Message string
	Data    map[string]any
}
