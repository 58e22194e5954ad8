package storage

import (
	"context"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/storage_mocks.go -package=mocks

// ConflictArchive keeps an audit copy of every resolved conflict.
type ConflictArchive interface {
	Archive(ctx context.Context, conflict *entity.Conflict) error
}

type NopArchive struct{}

func (NopArchive) Archive(context.Context, *entity.Conflict) error { return nil }
