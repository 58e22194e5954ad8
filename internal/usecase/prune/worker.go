// Package prune reaps rows that no request path needs anymore.
package prune

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository"
)

type Worker struct {
	pairingRepo      repository.PairingRepository
	refreshTokenRepo repository.RefreshTokenRepository
	limiter          repository.AttemptLimiter
	interval         time.Duration
	retention        time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewWorker(
	pairingRepo repository.PairingRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	limiter repository.AttemptLimiter,
	interval, retention time.Duration,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		pairingRepo:      pairingRepo,
		refreshTokenRepo: refreshTokenRepo,
		limiter:          limiter,
		interval:         interval,
		retention:        retention,
		logger:           logger,
		now:              time.Now,
	}
}

// Run prunes once immediately and then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Prune(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type Counts struct {
	Pairings      int64
	RefreshTokens int64
	LimiterRows   int64
}

// Prune runs one pass. A failing step is logged and does not stop the others.
func (w *Worker) Prune(ctx context.Context) Counts {
	now := w.now().UTC()
	cutoff := now.Add(-w.retention)

	var counts Counts
	var err error
	if counts.Pairings, err = w.pairingRepo.DeleteExpired(ctx, now); err != nil {
		w.logger.Warn("pruning pairing challenges", zap.Error(err))
	}
	if counts.RefreshTokens, err = w.refreshTokenRepo.DeleteExpired(ctx, cutoff); err != nil {
		w.logger.Warn("pruning refresh tokens", zap.Error(err))
	}
	if counts.LimiterRows, err = w.limiter.DeleteStale(ctx, cutoff); err != nil {
		w.logger.Warn("pruning limiter rows", zap.Error(err))
	}

	w.logger.Info("prune finished",
		zap.Int64("pairings", counts.Pairings),
		zap.Int64("refresh_tokens", counts.RefreshTokens),
		zap.Int64("limiter_rows", counts.LimiterRows),
	)
	return counts
}
