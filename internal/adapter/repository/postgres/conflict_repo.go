package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

const conflictSelect = `
	SELECT c.id, c.user_id, c.entity_type, c.entity_id, c.local_change, c.status,
	       c.resolution, c.resolved_at, c.result_version, c.created_at, c.updated_at,
	       s.id, s.user_id, s.seq, s.entity_type, s.entity_id, s.operation,
	       s.origin_device_id, s.base_version, s.version, s.payload, s.created_at
	FROM sync_conflicts c
	JOIN sync_changes s ON s.user_id = c.user_id AND s.id = c.server_change_id
`

// localChange is the stored form of the rejected change.
type localChange struct {
	ID             uuid.UUID         `json:"id"`
	EntityType     entity.EntityType `json:"entity_type"`
	EntityID       string            `json:"entity_id"`
	Operation      entity.Operation  `json:"operation"`
	OriginDeviceID uuid.UUID         `json:"origin_device_id"`
	BaseVersion    int64             `json:"base_version"`
	Payload        json.RawMessage   `json:"payload,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type ConflictRepo struct {
	pool PgxPool
}

func NewConflictRepo(pool PgxPool) *ConflictRepo {
	return &ConflictRepo{pool: pool}
}

func (r *ConflictRepo) ListOpen(ctx context.Context, userID uuid.UUID, deviceID *uuid.UUID) ([]entity.Conflict, error) {
	query := conflictSelect + `
		WHERE c.user_id = $1 AND c.status = 'open' AND ($2::uuid IS NULL OR c.local_device_id = $2)
		ORDER BY c.created_at
	`
	rows, err := r.pool.Query(ctx, query, userID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []entity.Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		conflicts = append(conflicts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *ConflictRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Conflict, error) {
	return getConflict(ctx, r.pool, userID, id)
}

// Resolve closes an open conflict. UseServer keeps the entity head as it is;
// UseLocal writes the rejected change on top of the head.
func (r *ConflictRepo) Resolve(ctx context.Context, p repository.ResolveParams) (*entity.Conflict, *entity.ChangeRecord, error) {
	if !p.Resolution.Terminal() {
		return nil, nil, domain.ErrResolutionNotTerminal
	}

	var (
		conflict *entity.Conflict
		result   *entity.ChangeRecord
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		claim := `
			UPDATE sync_conflicts
			SET status = 'resolved', resolution = $3, resolved_at = $4, updated_at = $4
			WHERE id = $1 AND user_id = $2 AND status = 'open'
		`
		tag, err := tx.Exec(ctx, claim, p.ConflictID, p.UserID, p.Resolution, p.At)
		if err != nil {
			return fmt.Errorf("resolving conflict: %w", err)
		}
		if tag.RowsAffected() == 0 {
			existing, err := getConflict(ctx, tx, p.UserID, p.ConflictID)
			if err != nil {
				return err
			}
			if !existing.IsOpen() {
				return domain.ErrConflictAlreadyResolved
			}
			return fmt.Errorf("conflict %s changed during resolve", p.ConflictID)
		}

		conflict, err = getConflict(ctx, tx, p.UserID, p.ConflictID)
		if err != nil {
			return err
		}

		switch p.Resolution {
		case entity.ResolutionUseServer:
			result, err = currentChange(ctx, tx, p.UserID, entity.EntityKey{Type: conflict.EntityType, ID: conflict.EntityID})
		case entity.ResolutionUseLocal:
			result, err = forceLocal(ctx, tx, conflict, p.At)
		}
		if err != nil {
			return err
		}

		record := `UPDATE sync_conflicts SET result_version = $3 WHERE id = $1 AND user_id = $2`
		if _, err := tx.Exec(ctx, record, p.ConflictID, p.UserID, result.Version); err != nil {
			return fmt.Errorf("recording result version: %w", err)
		}
		conflict.ResultVersion = &result.Version
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return conflict, result, nil
}

func forceLocal(ctx context.Context, tx pgx.Tx, conflict *entity.Conflict, at time.Time) (*entity.ChangeRecord, error) {
	local := conflict.LocalChange

	bump := `
		UPDATE sync_entities
		SET version = version + 1, origin_device_id = $4, updated_at = $5
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		RETURNING version
	`
	var version int64
	err := tx.QueryRow(ctx, bump, conflict.UserID, conflict.EntityType, conflict.EntityID, local.OriginDeviceID, at).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("advancing entity head: %w", err)
	}

	change := &entity.ChangeRecord{
		ID:             uuid.New(),
		UserID:         conflict.UserID,
		EntityType:     conflict.EntityType,
		EntityID:       conflict.EntityID,
		Operation:      local.Operation,
		OriginDeviceID: local.OriginDeviceID,
		BaseVersion:    version - 1,
		Version:        version,
		Payload:        local.Payload,
		CreatedAt:      at,
	}
	if err := appendChange(ctx, tx, change); err != nil {
		return nil, err
	}
	return change, nil
}

// upsertConflict records c as losing to the current head. A device that keeps
// pushing stale changes for the same entity refreshes its one open conflict.
func upsertConflict(ctx context.Context, tx pgx.Tx, c *entity.ChangeRecord) (*entity.Conflict, bool, error) {
	server, err := currentChange(ctx, tx, c.UserID, c.Key())
	if err != nil {
		return nil, false, err
	}

	local, err := json.Marshal(localChange{
		ID:             c.ID,
		EntityType:     c.EntityType,
		EntityID:       c.EntityID,
		Operation:      c.Operation,
		OriginDeviceID: c.OriginDeviceID,
		BaseVersion:    c.BaseVersion,
		Payload:        c.Payload,
		CreatedAt:      c.CreatedAt,
	})
	if err != nil {
		return nil, false, fmt.Errorf("encoding local change: %w", err)
	}

	query := `
		INSERT INTO sync_conflicts (id, user_id, entity_type, entity_id, local_device_id, local_change,
		                            server_change_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open', $8, $8)
		ON CONFLICT (user_id, entity_type, entity_id, local_device_id) WHERE status = 'open'
		DO UPDATE SET local_change = EXCLUDED.local_change,
		              server_change_id = EXCLUDED.server_change_id,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, (xmax = 0) AS inserted
	`
	now := time.Now().UTC()
	conflict := &entity.Conflict{
		UserID:       c.UserID,
		EntityType:   c.EntityType,
		EntityID:     c.EntityID,
		LocalChange:  *c,
		ServerChange: *server,
		Status:       entity.ConflictOpen,
		UpdatedAt:    now,
	}
	var inserted bool
	err = tx.QueryRow(ctx, query,
		uuid.New(), c.UserID, c.EntityType, c.EntityID, c.OriginDeviceID, local, server.ID, now,
	).Scan(&conflict.ID, &conflict.CreatedAt, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("upserting conflict: %w", err)
	}
	return conflict, inserted, nil
}

func getConflict(ctx context.Context, q querier, userID, id uuid.UUID) (*entity.Conflict, error) {
	query := conflictSelect + ` WHERE c.id = $1 AND c.user_id = $2`

	c, err := scanConflict(q.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConflictNotFound
		}
		return nil, fmt.Errorf("querying conflict: %w", err)
	}
	return c, nil
}

func scanConflict(row pgx.Row) (*entity.Conflict, error) {
	var (
		c          entity.Conflict
		local      []byte
		resolution *string
		server     entity.ChangeRecord
		payload    []byte
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.EntityType, &c.EntityID, &local, &c.Status,
		&resolution, &c.ResolvedAt, &c.ResultVersion, &c.CreatedAt, &c.UpdatedAt,
		&server.ID, &server.UserID, &server.Seq, &server.EntityType, &server.EntityID, &server.Operation,
		&server.OriginDeviceID, &server.BaseVersion, &server.Version, &payload, &server.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		server.Payload = json.RawMessage(payload)
	}
	c.ServerChange = server

	var lc localChange
	if err := json.Unmarshal(local, &lc); err != nil {
		return nil, fmt.Errorf("decoding local change: %w", err)
	}
	c.LocalChange = entity.ChangeRecord{
		ID:             lc.ID,
		UserID:         c.UserID,
		EntityType:     lc.EntityType,
		EntityID:       lc.EntityID,
		Operation:      lc.Operation,
		OriginDeviceID: lc.OriginDeviceID,
		BaseVersion:    lc.BaseVersion,
		Payload:        lc.Payload,
		CreatedAt:      lc.CreatedAt,
	}
	if resolution != nil {
		res := entity.Resolution(*resolution)
		c.Resolution = &res
	}
	return &c, nil
}
