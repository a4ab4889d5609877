package queue

import (
	"context"
	"fmt"

	"github.com/influencelytic/marketplace/internal/domain"
)

// Publisher publishes notification fan-out messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg NotificationMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg NotificationMessage) error

// Consumer consumes notification fan-out messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// InAppQueue feeds the dispatcher path that persists notification rows.
	InAppQueue = "notify.inapp"
	// EmailQueue feeds the dispatcher path that sends templated mail.
	EmailQueue = "notify.email"

	// queueMaxPriority is the RabbitMQ x-max-priority value for fan-out queues.
	queueMaxPriority int32 = 2
)

var fanoutQueues = []string{InAppQueue, EmailQueue}

// DLQName returns the dead-letter queue name, e.g. dlq.notify.inapp.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// FanoutQueueNames returns all fan-out queues the dispatcher consumes.
func FanoutQueueNames() []string {
	queues := make([]string, len(fanoutQueues))
	copy(queues, fanoutQueues)
	return queues
}

// PriorityValue maps notification types to RabbitMQ message priority; money
// movement outranks status chatter.
func PriorityValue(notificationType domain.NotificationType) uint8 {
	switch notificationType {
	case domain.NotificationPaymentReceived, domain.NotificationPaymentProcessed,
		domain.NotificationPaymentFailed, domain.NotificationPayoutFailed:
		return 2
	default:
		return 1
	}
}
