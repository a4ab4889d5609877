package ratelimit

import "context"

// RateLimiter throttles payment initiations per subject (brand id).
type RateLimiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
}
