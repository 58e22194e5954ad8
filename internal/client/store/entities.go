package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

// Entity is the local copy of one record. Version is the last server version
// this device has seen; local edits do not change it.
type Entity struct {
	Type      entity.EntityType
	ID        string
	Version   int64
	Deleted   bool
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// PendingChange is a local edit not yet accepted by the server.
type PendingChange struct {
	ID          uuid.UUID
	EntityType  entity.EntityType
	EntityID    string
	Operation   entity.Operation
	BaseVersion int64
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// RemoteChange is a server change to fold into the local copy.
type RemoteChange struct {
	EntityType entity.EntityType
	EntityID   string
	Operation  entity.Operation
	Version    int64
	Payload    json.RawMessage
}

func (s *Store) Entity(ctx context.Context, entityType entity.EntityType, entityID string) (*Entity, error) {
	return getEntity(ctx, s.db, entityType, entityID)
}

func (s *Store) Entities(ctx context.Context, entityType entity.EntityType) ([]Entity, error) {
	const q = `
		SELECT entity_type, entity_id, version, deleted, payload, updated_at
		FROM entities WHERE entity_type = ? AND deleted = 0 ORDER BY entity_id
	`
	rows, err := s.db.QueryContext(ctx, q, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var result []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return result, nil
}

// RecordLocal stores a local edit and folds it into any pending change of the
// same entity. A create followed by a delete before anything was pushed
// cancels out and returns nil.
func (s *Store) RecordLocal(ctx context.Context, entityType entity.EntityType, entityID string, op entity.Operation, payload json.RawMessage) (*PendingChange, error) {
	if !entityType.Valid() || !op.Valid() || entityID == "" {
		return nil, fmt.Errorf("recording %s %s/%s: invalid change", op, entityType, entityID)
	}

	var result *PendingChange
	err := s.withTx(ctx, func(tx dbtx) error {
		// Rows keep millisecond precision.
		now := time.Now().UTC().Truncate(time.Millisecond)

		var version int64
		current, err := getEntity(ctx, tx, entityType, entityID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		default:
			version = current.Version
		}

		change := &PendingChange{
			ID:          uuid.New(),
			EntityType:  entityType,
			EntityID:    entityID,
			Operation:   op,
			BaseVersion: version,
			Payload:     payload,
			CreatedAt:   now,
		}

		prior, err := pendingFor(ctx, tx, entityType, entityID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		default:
			change.BaseVersion = prior.BaseVersion
			change.CreatedAt = prior.CreatedAt
			if prior.Operation == entity.OperationCreate {
				if op == entity.OperationDelete && version == 0 {
					return discardLocal(ctx, tx, entityType, entityID)
				}
				change.Operation = entity.OperationCreate
			}
		}

		if err := upsertPending(ctx, tx, change); err != nil {
			return err
		}
		if err := writeEntity(ctx, tx, entityType, entityID, version, op == entity.OperationDelete, payload, now); err != nil {
			return err
		}
		result = change
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyRemote overwrites the local copy unless it already holds a newer
// version.
func (s *Store) ApplyRemote(ctx context.Context, c RemoteChange) error {
	const q = `
		INSERT INTO entities (entity_type, entity_id, version, deleted, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			version = excluded.version, deleted = excluded.deleted,
			payload = excluded.payload, updated_at = excluded.updated_at
		WHERE entities.version < excluded.version
	`
	_, err := s.db.ExecContext(ctx, q, string(c.EntityType), c.EntityID, c.Version,
		c.Operation == entity.OperationDelete, []byte(c.Payload), toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("applying remote change: %w", err)
	}
	return nil
}

func (s *Store) Pending(ctx context.Context) ([]PendingChange, error) {
	const q = `
		SELECT id, entity_type, entity_id, operation, base_version, payload, created_at
		FROM pending_changes ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying pending changes: %w", err)
	}
	defer rows.Close()

	var result []PendingChange
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending change: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending changes: %w", err)
	}
	return result, nil
}

func (s *Store) PendingFor(ctx context.Context, entityType entity.EntityType, entityID string) (*PendingChange, error) {
	return pendingFor(ctx, s.db, entityType, entityID)
}

// AcceptPending drops a pushed change and records the version the server
// assigned to it.
func (s *Store) AcceptPending(ctx context.Context, id uuid.UUID, version int64) error {
	return s.withTx(ctx, func(tx dbtx) error {
		p, err := pendingByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_changes WHERE id = ?`, id.String()); err != nil {
			return fmt.Errorf("deleting pending change: %w", err)
		}
		const q = `UPDATE entities SET version = MAX(version, ?) WHERE entity_type = ? AND entity_id = ?`
		if _, err := tx.ExecContext(ctx, q, version, string(p.EntityType), p.EntityID); err != nil {
			return fmt.Errorf("recording accepted version: %w", err)
		}
		return nil
	})
}

// RebasePending moves a pending change onto baseVersion under a fresh id, so
// the server sees it as a new change rather than a replay. A create rebased
// onto an existing version becomes an update.
func (s *Store) RebasePending(ctx context.Context, id uuid.UUID, baseVersion int64) (*PendingChange, error) {
	var result *PendingChange
	err := s.withTx(ctx, func(tx dbtx) error {
		p, err := pendingByID(ctx, tx, id)
		if err != nil {
			return err
		}
		p.ID = uuid.New()
		p.BaseVersion = baseVersion
		if p.Operation == entity.OperationCreate && baseVersion > 0 {
			p.Operation = entity.OperationUpdate
		}
		const q = `UPDATE pending_changes SET id = ?, base_version = ?, operation = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, p.ID.String(), baseVersion, string(p.Operation), id.String()); err != nil {
			return fmt.Errorf("rebasing pending change: %w", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) DropPending(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_changes WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("dropping pending change: %w", err)
	}
	return nil
}

func discardLocal(ctx context.Context, tx dbtx, entityType entity.EntityType, entityID string) error {
	const pending = `DELETE FROM pending_changes WHERE entity_type = ? AND entity_id = ?`
	if _, err := tx.ExecContext(ctx, pending, string(entityType), entityID); err != nil {
		return fmt.Errorf("discarding pending change: %w", err)
	}
	const local = `DELETE FROM entities WHERE entity_type = ? AND entity_id = ? AND version = 0`
	if _, err := tx.ExecContext(ctx, local, string(entityType), entityID); err != nil {
		return fmt.Errorf("discarding local entity: %w", err)
	}
	return nil
}

func upsertPending(ctx context.Context, tx dbtx, p *PendingChange) error {
	const q = `
		INSERT INTO pending_changes (id, entity_type, entity_id, operation, base_version, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			id = excluded.id, operation = excluded.operation, base_version = excluded.base_version,
			payload = excluded.payload, created_at = excluded.created_at
	`
	_, err := tx.ExecContext(ctx, q, p.ID.String(), string(p.EntityType), p.EntityID, string(p.Operation), p.BaseVersion,
		[]byte(p.Payload), toMillis(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("storing pending change: %w", err)
	}
	return nil
}

func writeEntity(ctx context.Context, tx dbtx, entityType entity.EntityType, entityID string, version int64, deleted bool, payload json.RawMessage, at time.Time) error {
	const q = `
		INSERT INTO entities (entity_type, entity_id, version, deleted, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			deleted = excluded.deleted, payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, q, string(entityType), entityID, version, deleted, []byte(payload), toMillis(at)); err != nil {
		return fmt.Errorf("writing entity: %w", err)
	}
	return nil
}

func getEntity(ctx context.Context, q dbtx, entityType entity.EntityType, entityID string) (*Entity, error) {
	const query = `
		SELECT entity_type, entity_id, version, deleted, payload, updated_at
		FROM entities WHERE entity_type = ? AND entity_id = ?
	`
	e, err := scanEntity(q.QueryRowContext(ctx, query, string(entityType), entityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading entity: %w", err)
	}
	return e, nil
}

func pendingFor(ctx context.Context, q dbtx, entityType entity.EntityType, entityID string) (*PendingChange, error) {
	const query = `
		SELECT id, entity_type, entity_id, operation, base_version, payload, created_at
		FROM pending_changes WHERE entity_type = ? AND entity_id = ?
	`
	p, err := scanPending(q.QueryRowContext(ctx, query, string(entityType), entityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading pending change: %w", err)
	}
	return p, nil
}

func pendingByID(ctx context.Context, q dbtx, id uuid.UUID) (*PendingChange, error) {
	const query = `
		SELECT id, entity_type, entity_id, operation, base_version, payload, created_at
		FROM pending_changes WHERE id = ?
	`
	p, err := scanPending(q.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading pending change: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*Entity, error) {
	var (
		e       Entity
		payload []byte
		updated int64
	)
	if err := row.Scan(&e.Type, &e.ID, &e.Version, &e.Deleted, &payload, &updated); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	e.UpdatedAt = fromMillis(updated)
	return &e, nil
}

func scanPending(row scanner) (*PendingChange, error) {
	var (
		p       PendingChange
		id      string
		payload []byte
		created int64
	)
	if err := row.Scan(&id, &p.EntityType, &p.EntityID, &p.Operation, &p.BaseVersion, &payload, &created); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	p.ID = parsed
	if len(payload) > 0 {
		p.Payload = json.RawMessage(payload)
	}
	p.CreatedAt = fromMillis(created)
	return &p, nil
}
