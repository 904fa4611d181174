package ratelimit

import (
	"context"
	"sync"

	"github.com/pennywise/pennywise/internal/utils"
	log "github.com/sirupsen/logrus"
)

// TokenBucket keeps buckets in process memory. Buckets are lost on restart and not shared between instances.
type TokenBucket struct {
	mu      sync.Mutex
	cfg     Config
	clock   utils.Clock
	buckets map[int]*bucket
}

func NewTokenBucket(cfg Config, clock utils.Clock) *TokenBucket {
	return &TokenBucket{
		cfg:     cfg.normalized(),
		clock:   clock,
		buckets: make(map[int]*bucket),
	}
}

func (l *TokenBucket) TryConsume(_ context.Context, ownerId int, cost int) (Decision, error) {
	if cost <= 0 {
		cost = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	b, ok := l.buckets[ownerId]
	if !ok {
		fresh := newBucket(l.cfg, now)
		b = &fresh
		l.buckets[ownerId] = b
	}

	decision := b.take(l.cfg, cost, now)
	if !decision.Allowed {
		log.Debugf("rate limit exceeded for user %d, retry after %s", ownerId, decision.RetryAfter)
	}
	return decision, nil
}
