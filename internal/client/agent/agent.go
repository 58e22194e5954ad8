// Package agent runs a device's sync round: pull the feed into the local
// store, push pending edits, and settle conflicts according to a policy.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/api"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/store"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

const (
	defaultPageSize  = 200
	defaultPushBatch = 100
)

var ErrConflictNotFound = errors.New("local conflict not found")

//go:generate mockgen -source=agent.go -destination=../../mocks/agent_mocks.go -package=mocks

// SyncAPI is the part of the server the agent talks to.
type SyncAPI interface {
	Pull(ctx context.Context, since int64, limit int) (*response.PullResponse, error)
	Push(ctx context.Context, changes []request.PushChange) (*response.PushResponse, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution entity.Resolution) (*response.ChangeResponse, error)
}

type Config struct {
	// Policy settles conflicts. Manual keeps them for the user.
	Policy    entity.Resolution
	PageSize  int
	PushBatch int
}

type Agent struct {
	api    SyncAPI
	store  *store.Store
	cfg    Config
	logger *zap.Logger
}

func New(client SyncAPI, st *store.Store, cfg Config, logger *zap.Logger) *Agent {
	if cfg.Policy == "" {
		cfg.Policy = entity.ResolutionManual
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PushBatch <= 0 {
		cfg.PushBatch = defaultPushBatch
	}
	return &Agent{api: client, store: st, cfg: cfg, logger: logger}
}

// Report counts what one Sync call did.
type Report struct {
	Pulled    int
	Pushed    int
	Resolved  int
	Conflicts int
	Rejected  int
	Cursor    int64
}

// Sync pulls first so pending edits are pushed against the newest versions
// this device can know about.
func (a *Agent) Sync(ctx context.Context) (*Report, error) {
	report := &Report{}
	if err := a.pull(ctx, report); err != nil {
		return report, err
	}
	if err := a.push(ctx, report); err != nil {
		return report, err
	}
	a.logger.Info("sync finished",
		zap.Int("pulled", report.Pulled),
		zap.Int("pushed", report.Pushed),
		zap.Int("resolved", report.Resolved),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("rejected", report.Rejected),
		zap.Int64("cursor", report.Cursor),
	)
	return report, nil
}

func (a *Agent) pull(ctx context.Context, report *Report) error {
	cursor, err := a.store.Cursor(ctx)
	if err != nil {
		return err
	}

	for {
		page, err := a.api.Pull(ctx, cursor, a.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("pulling after %d: %w", cursor, err)
		}
		for i := range page.Changes {
			if err := a.applyPulled(ctx, &page.Changes[i], report); err != nil {
				return err
			}
		}
		if err := a.store.SetCursor(ctx, page.Cursor); err != nil {
			return err
		}
		cursor = page.Cursor
		report.Pulled += len(page.Changes)

		if !page.HasMore {
			for i := range page.OpenConflicts {
				if err := a.settle(ctx, &page.OpenConflicts[i], report); err != nil {
					return err
				}
			}
			break
		}
	}
	report.Cursor = cursor
	return nil
}

// applyPulled folds one feed change into the store. A pending edit on the
// same entity that is based on an older version has lost the race.
func (a *Agent) applyPulled(ctx context.Context, c *response.ChangeResponse, report *Report) error {
	remote := remoteFrom(c)

	pending, err := a.store.PendingFor(ctx, remote.EntityType, remote.EntityID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && pending.BaseVersion >= c.Version) {
		return a.store.ApplyRemote(ctx, remote)
	}
	if err != nil {
		return err
	}

	a.logger.Debug("local conflict",
		zap.String("entity_type", c.EntityType),
		zap.String("entity_id", c.EntityID),
		zap.Int64("base_version", pending.BaseVersion),
		zap.Int64("server_version", c.Version),
		zap.String("policy", string(a.cfg.Policy)),
	)

	switch a.cfg.Policy {
	case entity.ResolutionUseServer:
		if err := a.store.DropPending(ctx, pending.ID); err != nil {
			return err
		}
		report.Resolved++
		return a.store.ApplyRemote(ctx, remote)
	case entity.ResolutionUseLocal:
		rebased, err := a.store.RebasePending(ctx, pending.ID, c.Version)
		if err != nil {
			return err
		}
		report.Resolved++
		return a.store.ApplyRemote(ctx, store.RemoteChange{
			EntityType: rebased.EntityType,
			EntityID:   rebased.EntityID,
			Operation:  rebased.Operation,
			Version:    c.Version,
			Payload:    rebased.Payload,
		})
	default:
		if err := a.store.SaveConflict(ctx, &store.Conflict{
			EntityType:      remote.EntityType,
			EntityID:        remote.EntityID,
			Local:           *pending,
			ServerOperation: remote.Operation,
			ServerVersion:   remote.Version,
			ServerPayload:   remote.Payload,
		}); err != nil {
			return err
		}
		if err := a.store.DropPending(ctx, pending.ID); err != nil {
			return err
		}
		report.Conflicts++
		return a.store.ApplyRemote(ctx, remote)
	}
}

func (a *Agent) push(ctx context.Context, report *Report) error {
	pending, err := a.store.Pending(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(pending); start += a.cfg.PushBatch {
		end := min(start+a.cfg.PushBatch, len(pending))
		batch := pending[start:end]

		changes := make([]request.PushChange, 0, len(batch))
		for _, p := range batch {
			changes = append(changes, request.PushChange{
				ID:          p.ID,
				EntityType:  string(p.EntityType),
				EntityID:    p.EntityID,
				Operation:   string(p.Operation),
				BaseVersion: p.BaseVersion,
				Payload:     p.Payload,
			})
		}

		resp, err := a.api.Push(ctx, changes)
		if err != nil {
			return fmt.Errorf("pushing %d changes: %w", len(changes), err)
		}
		for _, c := range resp.Accepted {
			if err := a.store.AcceptPending(ctx, c.ID, c.Version); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			report.Pushed++
		}
		for i := range resp.Conflicts {
			if err := a.settle(ctx, &resp.Conflicts[i], report); err != nil {
				return err
			}
		}
		for _, r := range resp.Rejected {
			a.logger.Warn("change rejected", zap.String("change_id", r.ID.String()), zap.String("reason", r.Reason))
			if err := a.store.DropPending(ctx, r.ID); err != nil {
				return err
			}
			report.Rejected++
		}
	}
	return nil
}

// settle handles a conflict the server holds. Terminal policies resolve it
// right away; Manual keeps a local copy and leaves it open.
func (a *Agent) settle(ctx context.Context, c *response.ConflictResponse, report *Report) error {
	if !a.cfg.Policy.Terminal() {
		local := pendingFrom(&c.LocalChange)
		if err := a.store.SaveConflict(ctx, &store.Conflict{
			ServerConflictID: &c.ID,
			EntityType:       local.EntityType,
			EntityID:         local.EntityID,
			Local:            local,
			ServerOperation:  entity.Operation(c.ServerChange.Operation),
			ServerVersion:    c.ServerChange.Version,
			ServerPayload:    c.ServerChange.Payload,
		}); err != nil {
			return err
		}
		if err := a.store.DropPending(ctx, c.LocalChange.ID); err != nil {
			return err
		}
		report.Conflicts++
		return a.store.ApplyRemote(ctx, remoteFrom(&c.ServerChange))
	}

	if err := a.resolveRemote(ctx, c.ID, a.cfg.Policy); err != nil {
		return err
	}
	if err := a.store.DropPending(ctx, c.LocalChange.ID); err != nil {
		return err
	}
	report.Resolved++
	return nil
}

// resolveRemote closes a server conflict and applies the head it leaves. A
// conflict another device already closed is only forgotten; the next pull
// brings its head.
func (a *Agent) resolveRemote(ctx context.Context, id uuid.UUID, resolution entity.Resolution) error {
	head, err := a.api.Resolve(ctx, id, resolution)
	switch {
	case api.IsConflict(err):
		a.logger.Info("conflict already resolved", zap.String("conflict_id", id.String()))
	case err != nil:
		return fmt.Errorf("resolving conflict %s: %w", id, err)
	default:
		if err := a.store.ApplyRemote(ctx, remoteFrom(head)); err != nil {
			return err
		}
	}
	return a.store.DeleteConflictByServerID(ctx, id)
}

// Resolve settles a conflict kept under the Manual policy.
func (a *Agent) Resolve(ctx context.Context, id uuid.UUID, resolution entity.Resolution) error {
	if !resolution.Terminal() {
		return fmt.Errorf("resolution %q does not close a conflict", resolution)
	}

	conflicts, err := a.store.Conflicts(ctx)
	if err != nil {
		return err
	}
	var found *store.Conflict
	for i := range conflicts {
		if conflicts[i].ID == id {
			found = &conflicts[i]
			break
		}
	}
	if found == nil {
		return ErrConflictNotFound
	}

	if found.ServerConflictID != nil {
		return a.resolveRemote(ctx, *found.ServerConflictID, resolution)
	}

	// Only this device knows the conflict. Keeping the local side records the
	// edit again on top of the server version already applied.
	if resolution == entity.ResolutionUseLocal {
		op := found.Local.Operation
		if op == entity.OperationCreate {
			op = entity.OperationUpdate
		}
		if _, err := a.store.RecordLocal(ctx, found.EntityType, found.EntityID, op, found.Local.Payload); err != nil {
			return err
		}
	}
	return a.store.DeleteConflict(ctx, found.ID)
}

func remoteFrom(c *response.ChangeResponse) store.RemoteChange {
	return store.RemoteChange{
		EntityType: entity.EntityType(c.EntityType),
		EntityID:   c.EntityID,
		Operation:  entity.Operation(c.Operation),
		Version:    c.Version,
		Payload:    c.Payload,
	}
}

func pendingFrom(c *response.ChangeResponse) store.PendingChange {
	return store.PendingChange{
		ID:          c.ID,
		EntityType:  entity.EntityType(c.EntityType),
		EntityID:    c.EntityID,
		Operation:   entity.Operation(c.Operation),
		BaseVersion: c.BaseVersion,
		Payload:     c.Payload,
		CreatedAt:   c.CreatedAt,
	}
}
