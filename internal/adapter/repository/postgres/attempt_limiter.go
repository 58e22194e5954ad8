package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// AttemptLimiter counts failed logins per (subject, client IP hash) and blocks
// the pair once the budget inside the window is spent.
type AttemptLimiter struct {
	pool     PgxPool
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

func NewAttemptLimiter(pool PgxPool, window time.Duration, maxFails int, blockFor time.Duration) *AttemptLimiter {
	return &AttemptLimiter{pool: pool, window: window, maxFails: maxFails, blockFor: blockFor}
}

func (l *AttemptLimiter) Allow(ctx context.Context, subject string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE subject = $1 AND ip_hash = $2`

	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, subject, ipHash).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, fmt.Errorf("querying limiter: %w", err)
	}

	if wait := time.Until(blockedUntil); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

func (l *AttemptLimiter) Success(ctx context.Context, subject string, ipHash []byte) error {
	const q = `
		INSERT INTO auth_limiter (subject, ip_hash, fail_count, blocked_until, updated_at)
		VALUES ($1, $2, 0, 'epoch', now())
		ON CONFLICT (subject, ip_hash)
		DO UPDATE SET fail_count = 0, blocked_until = 'epoch', updated_at = now()
	`
	if _, err := l.pool.Exec(ctx, q, subject, ipHash); err != nil {
		return fmt.Errorf("resetting limiter: %w", err)
	}
	return nil
}

// Failure records one failed attempt and reports whether the pair is now
// blocked and for how long.
func (l *AttemptLimiter) Failure(ctx context.Context, subject string, ipHash []byte) (bool, time.Duration, error) {
	const q = `
		INSERT INTO auth_limiter (subject, ip_hash, fail_count, blocked_until, updated_at)
		VALUES ($1, $2, 1, 'epoch', now())
		ON CONFLICT (subject, ip_hash) DO UPDATE
		SET fail_count = CASE
		        WHEN now() - auth_limiter.updated_at > $3::interval THEN 1
		        ELSE auth_limiter.fail_count + 1
		    END,
		    updated_at = now()
		RETURNING fail_count
	`
	var fails int
	if err := l.pool.QueryRow(ctx, q, subject, ipHash, l.window).Scan(&fails); err != nil {
		return false, 0, fmt.Errorf("recording failure: %w", err)
	}
	if fails < l.maxFails {
		return false, 0, nil
	}

	const block = `UPDATE auth_limiter SET blocked_until = $3 WHERE subject = $1 AND ip_hash = $2`
	if _, err := l.pool.Exec(ctx, block, subject, ipHash, time.Now().Add(l.blockFor)); err != nil {
		return false, 0, fmt.Errorf("blocking subject: %w", err)
	}
	return true, l.blockFor, nil
}

func (l *AttemptLimiter) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	const q = `DELETE FROM auth_limiter WHERE updated_at < $1 AND blocked_until < $1`
	tag, err := l.pool.Exec(ctx, q, before)
	if err != nil {
		return 0, fmt.Errorf("deleting stale limiter rows: %w", err)
	}
	return tag.RowsAffected(), nil
}
