package ratelimit

import "context"

// RateLimiter controls mutating-request throughput per actor.
type RateLimiter interface {
	Allow(ctx context.Context, actorID string) (bool, error)
	Wait(ctx context.Context, actorID string) error
}
