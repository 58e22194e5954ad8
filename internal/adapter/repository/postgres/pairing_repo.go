package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

type PairingRepo struct {
	pool PgxPool
}

func NewPairingRepo(pool PgxPool) *PairingRepo {
	return &PairingRepo{pool: pool}
}

func (r *PairingRepo) Create(ctx context.Context, challenge *entity.PairingChallenge) error {
	query := `
		INSERT INTO pairing_challenges (id, user_id, issuer_device_id, code_hash, failed_attempts, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		challenge.ID, challenge.UserID, challenge.IssuerDeviceID, challenge.CodeHash,
		challenge.FailedAttempts, challenge.CreatedAt, challenge.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting pairing challenge: %w", err)
	}
	return nil
}

// Consume claims the challenge with one conditional update and registers the
// new device in the same transaction. When nothing matches, the row is read
// back only to name the cause; a wrong code is counted against the budget.
func (r *PairingRepo) Consume(ctx context.Context, p repository.ConsumeParams) (*repository.ConsumeResult, error) {
	var result *repository.ConsumeResult
	mismatch := false

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		claim := `
			UPDATE pairing_challenges
			SET consumed_at = $3, consumed_by_device_id = $4
			WHERE id = $1 AND code_hash = $2 AND consumed_at IS NULL
			  AND expires_at > $3 AND failed_attempts < $5
			RETURNING user_id, issuer_device_id, failed_attempts, created_at, expires_at
		`
		c := entity.PairingChallenge{ID: p.PairingID, CodeHash: p.CodeHash, ConsumedAt: &p.At}
		err := tx.QueryRow(ctx, claim, p.PairingID, p.CodeHash, p.At, p.Device.ID, p.MaxAttempts).Scan(
			&c.UserID, &c.IssuerDeviceID, &c.FailedAttempts, &c.CreatedAt, &c.ExpiresAt,
		)
		if err == nil {
			p.Device.UserID = c.UserID
			c.ConsumedByDeviceID = &p.Device.ID
			superseded, err := insertDevice(ctx, tx, p.Device)
			if err != nil {
				return err
			}
			result = &repository.ConsumeResult{Challenge: &c, Superseded: superseded}
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("consuming pairing challenge: %w", err)
		}

		if cause := diagnose(ctx, tx, p); !errors.Is(cause, domain.ErrPairingCodeMismatch) {
			return cause
		}

		bump := `UPDATE pairing_challenges SET failed_attempts = failed_attempts + 1 WHERE id = $1`
		if _, err := tx.Exec(ctx, bump, p.PairingID); err != nil {
			return fmt.Errorf("counting failed attempt: %w", err)
		}
		mismatch = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mismatch {
		return nil, domain.ErrPairingCodeMismatch
	}
	return result, nil
}

// diagnose names why the claim matched nothing. Anything other than a code
// mismatch leaves the row untouched.
func diagnose(ctx context.Context, tx pgx.Tx, p repository.ConsumeParams) error {
	query := `
		SELECT consumed_at IS NOT NULL, expires_at, failed_attempts
		FROM pairing_challenges
		WHERE id = $1
		FOR UPDATE
	`
	var (
		consumed  bool
		expiresAt time.Time
		failed    int
	)
	err := tx.QueryRow(ctx, query, p.PairingID).Scan(&consumed, &expiresAt, &failed)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrPairingNotFound
	case err != nil:
		return fmt.Errorf("inspecting pairing challenge: %w", err)
	case consumed:
		return domain.ErrPairingConsumed
	case !p.At.Before(expiresAt):
		return domain.ErrPairingExpired
	case failed >= p.MaxAttempts:
		return domain.ErrPairingLocked
	}
	return domain.ErrPairingCodeMismatch
}

func (r *PairingRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM pairing_challenges WHERE expires_at < $1`
	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("deleting expired pairing challenges: %w", err)
	}
	return result.RowsAffected(), nil
}
