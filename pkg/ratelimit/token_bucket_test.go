package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pennywise/pennywise/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func consume(t *testing.T, l Limiter, ownerId int) Decision {
	t.Helper()
	decision, err := l.TryConsume(context.Background(), ownerId, 1)
	require.NoError(t, err)
	return decision
}

func TestTokenBucket_TryConsume(t *testing.T) {
	t.Run("should allow capacity requests and deny the next one", func(t *testing.T) {
		// given
		limiter := NewTokenBucket(DefaultConfig(), utils.NewMockClock(start))

		// when
		first := consume(t, limiter, 1)
		second := consume(t, limiter, 1)
		third := consume(t, limiter, 1)

		// then
		assert.True(t, first.Allowed)
		assert.True(t, second.Allowed)
		assert.False(t, third.Allowed)
		assert.Equal(t, 1800*time.Second, third.RetryAfter)
	})

	t.Run("should refill to capacity after one hour", func(t *testing.T) {
		// given
		clock := utils.NewMockClock(start)
		limiter := NewTokenBucket(DefaultConfig(), clock)
		consume(t, limiter, 1)
		consume(t, limiter, 1)

		// when
		clock.Advance(time.Hour)

		// then
		assert.True(t, consume(t, limiter, 1).Allowed)
		assert.True(t, consume(t, limiter, 1).Allowed)
		assert.False(t, consume(t, limiter, 1).Allowed)
	})

	t.Run("should never exceed capacity after a long idle period", func(t *testing.T) {
		clock := utils.NewMockClock(start)
		limiter := NewTokenBucket(DefaultConfig(), clock)
		consume(t, limiter, 1)

		clock.Advance(48 * time.Hour)

		assert.True(t, consume(t, limiter, 1).Allowed)
		assert.True(t, consume(t, limiter, 1).Allowed)
		assert.False(t, consume(t, limiter, 1).Allowed)
	})

	t.Run("should add one token after half an hour", func(t *testing.T) {
		clock := utils.NewMockClock(start)
		limiter := NewTokenBucket(DefaultConfig(), clock)
		consume(t, limiter, 1)
		consume(t, limiter, 1)

		clock.Advance(29 * time.Minute)
		assert.False(t, consume(t, limiter, 1).Allowed)

		clock.Advance(time.Minute)
		assert.True(t, consume(t, limiter, 1).Allowed)
		assert.False(t, consume(t, limiter, 1).Allowed)
	})

	t.Run("should keep owners independent", func(t *testing.T) {
		limiter := NewTokenBucket(DefaultConfig(), utils.NewMockClock(start))
		consume(t, limiter, 1)
		consume(t, limiter, 1)

		assert.False(t, consume(t, limiter, 1).Allowed)
		assert.True(t, consume(t, limiter, 2).Allowed)
	})

	t.Run("should deny a cost larger than the remaining tokens", func(t *testing.T) {
		limiter := NewTokenBucket(Config{Capacity: 2, RefillPerHour: 4}, utils.NewMockClock(start))

		decision, err := limiter.TryConsume(context.Background(), 1, 3)

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, 900*time.Second, decision.RetryAfter)
	})

	t.Run("should admit exactly capacity requests under concurrency", func(t *testing.T) {
		limiter := NewTokenBucket(DefaultConfig(), utils.NewMockClock(start))
		var allowed atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				decision, _ := limiter.TryConsume(context.Background(), 1, 1)
				if decision.Allowed {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(2), allowed.Load())
	})
}
