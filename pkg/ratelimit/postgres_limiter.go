package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise/pennywise/internal/utils"
	log "github.com/sirupsen/logrus"
)

// PostgresLimiter keeps buckets in the rate_limit_bucket table so every instance sees the same allowance.
// The bucket row is locked for the duration of the check.
type PostgresLimiter struct {
	db    *pgxpool.Pool
	cfg   Config
	clock utils.Clock
}

func NewPostgresLimiter(db *pgxpool.Pool, cfg Config, clock utils.Clock) *PostgresLimiter {
	return &PostgresLimiter{db: db, cfg: cfg.normalized(), clock: clock}
}

func (l *PostgresLimiter) TryConsume(ctx context.Context, ownerId int, cost int) (Decision, error) {
	if cost <= 0 {
		cost = 1
	}
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	now := l.clock.Now()
	fresh := newBucket(l.cfg, now)
	_, err = tx.Exec(ctx,
		`INSERT INTO rate_limit_bucket (user_id, tokens, last_refill) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`,
		ownerId, fresh.tokens, fresh.lastRefill)
	if err != nil {
		return Decision{}, fmt.Errorf("could not create bucket: %w", err)
	}

	var b bucket
	err = tx.QueryRow(ctx,
		`SELECT tokens, last_refill FROM rate_limit_bucket WHERE user_id = $1 FOR UPDATE`, ownerId).
		Scan(&b.tokens, &b.lastRefill)
	if err != nil {
		return Decision{}, fmt.Errorf("could not load bucket: %w", err)
	}

	decision := b.take(l.cfg, cost, now)

	_, err = tx.Exec(ctx,
		`UPDATE rate_limit_bucket SET tokens = $1, last_refill = $2 WHERE user_id = $3`,
		b.tokens, b.lastRefill, ownerId)
	if err != nil {
		return Decision{}, fmt.Errorf("could not store bucket: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Decision{}, fmt.Errorf("commit transaction: %w", err)
	}

	if !decision.Allowed {
		log.Debugf("rate limit exceeded for user %d, retry after %s", ownerId, decision.RetryAfter)
	}
	return decision, nil
}
