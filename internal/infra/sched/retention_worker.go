package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"genv-studio/internal/domain/ports/repository"
	"genv-studio/internal/infra/metrics"
)

// RetentionWorker periodically prunes asset records older than maxAge.
// A maxAge of zero disables pruning; the worker then exits immediately.
type RetentionWorker struct {
	interval time.Duration
	maxAge   time.Duration
	assets   repository.AssetRepository
	log      *zerolog.Logger
}

func NewRetentionWorker(interval, maxAge time.Duration, assets repository.AssetRepository, logger *zerolog.Logger) *RetentionWorker {
	l := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{interval: interval, maxAge: maxAge, assets: assets, log: &l}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	if w.maxAge <= 0 {
		w.log.Info().Msg("retention disabled")
		return nil
	}
	w.log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.assets.PruneOlderThan(ctx, time.Now().Add(-w.maxAge))
			if err != nil {
				w.log.Error().Err(err).Msg("retention prune error")
				continue
			}
			if n > 0 {
				metrics.AddAssetsPruned(n)
				w.log.Info().Int64("count", n).Msg("stale assets pruned")
			}
		}
	}
}
