package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

// Conflict is a pending local change that lost to a server change and was
// left for the user. ServerConflictID is set when the server also holds it.
type Conflict struct {
	ID               uuid.UUID
	ServerConflictID *uuid.UUID
	EntityType       entity.EntityType
	EntityID         string
	Local            PendingChange
	ServerOperation  entity.Operation
	ServerVersion    int64
	ServerPayload    json.RawMessage
	CreatedAt        time.Time
}

// SaveConflict records c. An earlier conflict on the same entity is replaced
// but keeps its id.
func (s *Store) SaveConflict(ctx context.Context, c *Conflict) error {
	const q = `
		INSERT INTO local_conflicts (id, server_conflict_id, entity_type, entity_id, local_change_id,
		                             local_operation, local_base_version, local_payload,
		                             server_operation, server_version, server_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			server_conflict_id = excluded.server_conflict_id,
			local_change_id = excluded.local_change_id, local_operation = excluded.local_operation,
			local_base_version = excluded.local_base_version, local_payload = excluded.local_payload,
			server_operation = excluded.server_operation, server_version = excluded.server_version,
			server_payload = excluded.server_payload, created_at = excluded.created_at
	`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	var serverID *string
	if c.ServerConflictID != nil {
		id := c.ServerConflictID.String()
		serverID = &id
	}
	_, err := s.db.ExecContext(ctx, q,
		c.ID.String(), serverID, string(c.EntityType), c.EntityID, c.Local.ID.String(),
		string(c.Local.Operation), c.Local.BaseVersion, []byte(c.Local.Payload),
		string(c.ServerOperation), c.ServerVersion, []byte(c.ServerPayload), toMillis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving conflict: %w", err)
	}
	return nil
}

func (s *Store) Conflicts(ctx context.Context) ([]Conflict, error) {
	const q = `
		SELECT id, server_conflict_id, entity_type, entity_id, local_change_id,
		       local_operation, local_base_version, local_payload,
		       server_operation, server_version, server_payload, created_at
		FROM local_conflicts ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var result []Conflict
	for rows.Next() {
		var (
			c          Conflict
			id         string
			localID    string
			serverID   *string
			local      []byte
			serverBody []byte
			created    int64
		)
		err := rows.Scan(&id, &serverID, &c.EntityType, &c.EntityID, &localID,
			&c.Local.Operation, &c.Local.BaseVersion, &local,
			&c.ServerOperation, &c.ServerVersion, &serverBody, &created)
		if err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		if c.Local.ID, err = uuid.Parse(localID); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		if serverID != nil {
			parsed, err := uuid.Parse(*serverID)
			if err != nil {
				return nil, fmt.Errorf("scanning conflict: %w", err)
			}
			c.ServerConflictID = &parsed
		}
		c.Local.EntityType = c.EntityType
		c.Local.EntityID = c.EntityID
		if len(local) > 0 {
			c.Local.Payload = json.RawMessage(local)
		}
		if len(serverBody) > 0 {
			c.ServerPayload = json.RawMessage(serverBody)
		}
		c.CreatedAt = fromMillis(created)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conflicts: %w", err)
	}
	return result, nil
}

func (s *Store) DeleteConflict(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM local_conflicts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting conflict: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConflictByServerID forgets the local record of a conflict the server
// has closed.
func (s *Store) DeleteConflictByServerID(ctx context.Context, serverID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_conflicts WHERE server_conflict_id = ?`, serverID.String()); err != nil {
		return fmt.Errorf("deleting conflict: %w", err)
	}
	return nil
}
