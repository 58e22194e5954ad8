package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

const changeColumns = `id, user_id, seq, entity_type, entity_id, operation, origin_device_id, base_version, version, payload, created_at`

var errConcurrentReplay = errors.New("change id inserted concurrently")

type ChangeRepo struct {
	pool PgxPool
}

func NewChangeRepo(pool PgxPool) *ChangeRepo {
	return &ChangeRepo{pool: pool}
}

// Apply accepts the change when the entity head is not newer than the base
// version the device saw, or when the device wrote the head itself. Otherwise
// the head is left alone and an open conflict is recorded.
func (r *ChangeRepo) Apply(ctx context.Context, c *entity.ChangeRecord) (*repository.ApplyResult, error) {
	var result *repository.ApplyResult

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		stored, err := getChange(ctx, tx, c.UserID, c.ID)
		if err == nil {
			result = &repository.ApplyResult{Change: stored, Replayed: true}
			return nil
		}
		if !errors.Is(err, domain.ErrEntityNotFound) {
			return err
		}

		upsert := `
			INSERT INTO sync_entities (user_id, entity_type, entity_id, version, origin_device_id, updated_at)
			VALUES ($1, $2, $3, 1, $4, $5)
			ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE
			SET version = sync_entities.version + 1,
			    origin_device_id = EXCLUDED.origin_device_id,
			    updated_at = EXCLUDED.updated_at
			WHERE sync_entities.version <= $6 OR sync_entities.origin_device_id = $4
			RETURNING version
		`
		var version int64
		err = tx.QueryRow(ctx, upsert,
			c.UserID, c.EntityType, c.EntityID, c.OriginDeviceID, c.CreatedAt, c.BaseVersion,
		).Scan(&version)
		if err == nil {
			c.Version = version
			if err := appendChange(ctx, tx, c); err != nil {
				return err
			}
			result = &repository.ApplyResult{Change: c}
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("advancing entity head: %w", err)
		}

		conflict, opened, err := upsertConflict(ctx, tx, c)
		if err != nil {
			return err
		}
		result = &repository.ApplyResult{Conflict: conflict, ConflictOpened: opened}
		return nil
	})
	if errors.Is(err, errConcurrentReplay) {
		stored, err := getChange(ctx, r.pool, c.UserID, c.ID)
		if err != nil {
			return nil, err
		}
		return &repository.ApplyResult{Change: stored, Replayed: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ChangeRepo) ListSince(ctx context.Context, userID uuid.UUID, since int64, limit int) ([]entity.ChangeRecord, error) {
	query := `SELECT ` + changeColumns + ` FROM sync_changes WHERE user_id = $1 AND seq > $2 ORDER BY seq LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying changes: %w", err)
	}
	defer rows.Close()

	var changes []entity.ChangeRecord
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning change: %w", err)
		}
		changes = append(changes, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating changes: %w", err)
	}
	return changes, nil
}

func (r *ChangeRepo) Current(ctx context.Context, userID uuid.UUID, key entity.EntityKey) (*entity.ChangeRecord, error) {
	return currentChange(ctx, r.pool, userID, key)
}

func getChange(ctx context.Context, q querier, userID, id uuid.UUID) (*entity.ChangeRecord, error) {
	query := `SELECT ` + changeColumns + ` FROM sync_changes WHERE user_id = $1 AND id = $2`

	c, err := scanChange(q.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("querying change: %w", err)
	}
	return c, nil
}

func currentChange(ctx context.Context, q querier, userID uuid.UUID, key entity.EntityKey) (*entity.ChangeRecord, error) {
	query := `
		SELECT ` + changeColumns + `
		FROM sync_changes
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY version DESC
		LIMIT 1
	`
	c, err := scanChange(q.QueryRow(ctx, query, userID, key.Type, key.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("querying current change: %w", err)
	}
	return c, nil
}

// appendChange takes the next feed position and stores the change. The feed
// row stays locked until commit, so seq order matches commit order.
func appendChange(ctx context.Context, tx pgx.Tx, c *entity.ChangeRecord) error {
	next := `
		INSERT INTO sync_feeds (user_id, last_seq) VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET last_seq = sync_feeds.last_seq + 1
		RETURNING last_seq
	`
	if err := tx.QueryRow(ctx, next, c.UserID).Scan(&c.Seq); err != nil {
		return fmt.Errorf("allocating feed position: %w", err)
	}

	insert := `
		INSERT INTO sync_changes (` + changeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.Exec(ctx, insert,
		c.ID, c.UserID, c.Seq, c.EntityType, c.EntityID, c.Operation,
		c.OriginDeviceID, c.BaseVersion, c.Version, nullableJSON(c.Payload), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errConcurrentReplay
		}
		return fmt.Errorf("inserting change: %w", err)
	}
	return nil
}

func scanChange(row pgx.Row) (*entity.ChangeRecord, error) {
	var (
		c       entity.ChangeRecord
		payload []byte
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.Seq, &c.EntityType, &c.EntityID, &c.Operation,
		&c.OriginDeviceID, &c.BaseVersion, &c.Version, &payload, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		c.Payload = json.RawMessage(payload)
	}
	return &c, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
