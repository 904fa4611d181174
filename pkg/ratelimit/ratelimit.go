package ratelimit

import (
	"context"
	"math"
	"time"
)

// Decision is the outcome of a TryConsume call. RetryAfter is set only when the request was denied.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter gates an owner's mutating operations.
type Limiter interface {
	TryConsume(ctx context.Context, ownerId int, cost int) (Decision, error)
}

type Config struct {
	Capacity      int
	RefillPerHour int
}

func DefaultConfig() Config {
	return Config{Capacity: 2, RefillPerHour: 2}
}

func (c Config) normalized() Config {
	if c.Capacity <= 0 {
		c.Capacity = DefaultConfig().Capacity
	}
	if c.RefillPerHour <= 0 {
		c.RefillPerHour = DefaultConfig().RefillPerHour
	}
	return c
}

// retryAfter is the time it takes for one token to become available.
func (c Config) retryAfter() time.Duration {
	seconds := math.Ceil(3600 / float64(c.RefillPerHour))
	return time.Duration(seconds) * time.Second
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

func newBucket(cfg Config, now time.Time) bucket {
	return bucket{tokens: float64(cfg.Capacity), lastRefill: now}
}

// refill adds whole tokens earned since the last refill, capped at capacity.
// lastRefill only moves when at least one token was added.
func (b *bucket) refill(cfg Config, now time.Time) {
	elapsedHours := now.Sub(b.lastRefill).Hours()
	if elapsedHours <= 0 {
		return
	}
	tokensToAdd := math.Floor(elapsedHours * float64(cfg.RefillPerHour))
	if tokensToAdd <= 0 {
		return
	}
	b.tokens = math.Min(float64(cfg.Capacity), b.tokens+tokensToAdd)
	b.lastRefill = now
}

func (b *bucket) take(cfg Config, cost int, now time.Time) Decision {
	b.refill(cfg, now)
	if b.tokens >= float64(cost) {
		b.tokens -= float64(cost)
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfter: cfg.retryAfter()}
}
