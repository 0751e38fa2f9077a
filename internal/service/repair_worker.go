package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/classpulse/classpulse-api/internal/observability"
)

// RepairWorker periodically sweeps flagged summaries and rebuilds them in
// bounded batches, so staleness left behind by crashed syncs heals without
// waiting for a read.
type RepairWorker struct {
	summaries *SummaryService
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

// NewRepairWorker wires the worker to the summary service.
func NewRepairWorker(summaries *SummaryService, interval time.Duration, batchSize int, logger zerolog.Logger) *RepairWorker {
	return &RepairWorker{
		summaries: summaries,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "repair_worker").Logger(),
	}
}

// Run blocks until ctx is cancelled, repairing one batch per tick. A failed
// sweep is logged and retried on the next tick.
func (w *RepairWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().
		Dur("interval", w.interval).
		Int("batch_size", w.batchSize).
		Msg("repair worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("repair worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RepairWorker) sweep(ctx context.Context) {
	repaired, err := w.summaries.RebuildDirty(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("repair sweep failed")
		return
	}
	if repaired > 0 {
		observability.RepairedSummaries.Add(float64(repaired))
		w.logger.Info().Int("repaired", repaired).Msg("repaired stale summaries")
	}
}
