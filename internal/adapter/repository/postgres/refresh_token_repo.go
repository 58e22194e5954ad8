package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

type RefreshTokenRepo struct {
	pool PgxPool
}

func NewRefreshTokenRepo(pool PgxPool) *RefreshTokenRepo {
	return &RefreshTokenRepo{pool: pool}
}

func (r *RefreshTokenRepo) Create(ctx context.Context, token *entity.RefreshToken) error {
	return insertRefreshToken(ctx, r.pool, token)
}

func insertRefreshToken(ctx context.Context, q querier, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, device_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query,
		token.ID, token.UserID, token.DeviceID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) GetByHash(ctx context.Context, hash []byte) (*entity.RefreshToken, error) {
	query := `
		SELECT id, user_id, device_id, token_hash, expires_at, created_at, revoked_at, replaced_by_id
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var rt entity.RefreshToken
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&rt.ID, &rt.UserID, &rt.DeviceID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt, &rt.RevokedAt, &rt.ReplacedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("querying refresh token: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldID uuid.UUID, next *entity.RefreshToken, at time.Time) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE refresh_tokens
			SET revoked_at = $2, replaced_by_id = $3
			WHERE id = $1 AND revoked_at IS NULL
		`
		result, err := tx.Exec(ctx, query, oldID, at, next.ID)
		if err != nil {
			return fmt.Errorf("revoking refresh token: %w", err)
		}
		if result.RowsAffected() == 0 {
			return domain.ErrTokenRevoked
		}
		return insertRefreshToken(ctx, tx, next)
	})
}

func (r *RefreshTokenRepo) RevokeByDevice(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE device_id = $1 AND revoked_at IS NULL
	`
	if _, err := r.pool.Exec(ctx, query, deviceID, at); err != nil {
		return fmt.Errorf("revoking tokens by device: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired or were revoked before the cutoff.
// Revoked rows are kept until then so reuse can still be detected.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $1`
	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
