// Package observability holds the Prometheus instruments shared across the
// service layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncPasses counts reconciliation passes by source and outcome.
	SyncPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpulse_sync_passes_total",
		Help: "Reconciliation passes, labelled by feed source and outcome.",
	}, []string{"source", "outcome"})

	// RowsWritten counts canonical rows added or updated during syncs.
	RowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpulse_rows_written_total",
		Help: "Canonical store rows written by reconciliation, labelled by entity.",
	}, []string{"entity"})

	// SummariesRebuilt counts course summary recomputations.
	SummariesRebuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_summaries_rebuilt_total",
		Help: "Course summary rows recomputed.",
	})

	// RepairedSummaries counts summaries fixed by the background worker.
	RepairedSummaries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_repaired_summaries_total",
		Help: "Stale summaries repaired by the background worker.",
	})

	// AtRiskCacheHits counts at-risk listings served from cache.
	AtRiskCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_at_risk_cache_hits_total",
		Help: "At-risk listings answered from the Redis cache.",
	})
)
