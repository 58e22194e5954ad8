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

const deviceColumns = `id, user_id, device_id, name, platform, fingerprint, issued_at, expires_at, revoked_at, last_seen_at`

type DeviceRepo struct {
	pool PgxPool
}

func NewDeviceRepo(pool PgxPool) *DeviceRepo {
	return &DeviceRepo{pool: pool}
}

func (r *DeviceRepo) Register(ctx context.Context, device *entity.Device) ([]entity.Device, error) {
	var superseded []entity.Device
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		superseded, err = insertDevice(ctx, tx, device)
		return err
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

// insertDevice supersedes earlier active records of the same physical device
// and inserts the new one. Shared with pairing so both happen in the caller's
// transaction. The superseded records are returned revoked.
func insertDevice(ctx context.Context, q querier, device *entity.Device) ([]entity.Device, error) {
	supersede := `
		UPDATE devices
		SET revoked_at = $3
		WHERE user_id = $1 AND device_id = $2 AND revoked_at IS NULL
		RETURNING ` + deviceColumns

	rows, err := q.Query(ctx, supersede, device.UserID, device.DeviceID, device.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("superseding devices: %w", err)
	}
	superseded, err := collectDevices(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	insert := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = q.Exec(ctx, insert,
		device.ID, device.UserID, device.DeviceID, device.Name, device.Platform, device.Fingerprint,
		device.IssuedAt, device.ExpiresAt, device.RevokedAt, device.LastSeenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting device: %w", err)
	}
	return superseded, nil
}

func (r *DeviceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	device, err := scanDevice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return device, nil
}

func (r *DeviceRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE user_id = $1 ORDER BY issued_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	return collectDevices(rows)
}

func (r *DeviceRepo) Revoke(ctx context.Context, userID, id uuid.UUID, at time.Time) (*entity.Device, bool, error) {
	query := `
		UPDATE devices SET revoked_at = $3
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
		RETURNING ` + deviceColumns

	device, err := scanDevice(r.pool.QueryRow(ctx, query, id, userID, at))
	if err == nil {
		return device, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("revoking device: %w", err)
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing.UserID != userID {
		return nil, false, domain.ErrDeviceNotFound
	}
	return existing, false, nil
}

func (r *DeviceRepo) RevokeAll(ctx context.Context, userID uuid.UUID, except *uuid.UUID, at time.Time) ([]entity.Device, error) {
	query := `
		UPDATE devices SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL AND ($3::uuid IS NULL OR id <> $3)
		RETURNING ` + deviceColumns

	rows, err := r.pool.Query(ctx, query, userID, at, except)
	if err != nil {
		return nil, fmt.Errorf("revoking devices: %w", err)
	}
	defer rows.Close()

	return collectDevices(rows)
}

func (r *DeviceRepo) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE devices SET last_seen_at = $2 WHERE id = $1 AND last_seen_at < $2`
	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("touching device: %w", err)
	}
	return nil
}

func scanDevice(row pgx.Row) (*entity.Device, error) {
	var d entity.Device
	err := row.Scan(
		&d.ID, &d.UserID, &d.DeviceID, &d.Name, &d.Platform, &d.Fingerprint,
		&d.IssuedAt, &d.ExpiresAt, &d.RevokedAt, &d.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDevices(rows pgx.Rows) ([]entity.Device, error) {
	var devices []entity.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}
