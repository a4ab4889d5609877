package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// EventDedup remembers processed webhook event ids so replayed or concurrent
// deliveries of the same event are dropped before touching financial state.
type EventDedup struct {
	client *goredis.Client
}

func NewEventDedup(client *goredis.Client) (*EventDedup, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &EventDedup{client: client}, nil
}

// FirstDelivery claims the event id; it returns true exactly once per id
// within the retention window.
func (d *EventDedup) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	if d == nil || d.client == nil {
		return false, fmt.Errorf("event dedup is not initialized")
	}

	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return false, fmt.Errorf("event id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	claimed, err := d.client.SetNX(ctx, "webhook:event:"+trimmed, 1, dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook event: %w", err)
	}
	return claimed, nil
}

// Release drops the claim so the processor's retry of the same event id is
// processed again. Called when handling fails after a successful claim.
func (d *EventDedup) Release(ctx context.Context, eventID string) error {
	if d == nil || d.client == nil {
		return fmt.Errorf("event dedup is not initialized")
	}

	trimmed := strings.TrimSpace(eventID)
	if trimmed == "" {
		return fmt.Errorf("event id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := d.client.Del(ctx, "webhook:event:"+trimmed).Err(); err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}
	return nil
}
