package run

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/clock"
	"github.com/dayone-labs/kchart-crawler/internal/metrics"
	"github.com/dayone-labs/kchart-crawler/internal/store"
)

// SnapshotKey is the store key the aggregated snapshot lives under.
const SnapshotKey = "latest_chart_snapshot"

// Service is the run-now entry point. It serializes runs, persists
// per-source logs and the aggregated snapshot, and reports a structured
// summary. Store failures are absorbed: a run that crawled successfully
// is still a successful run when persistence is degraded.
type Service struct {
	orchestrator *Orchestrator
	store        store.Store
	logger       *zap.Logger
	clock        clock.Clock
	budget       time.Duration

	running atomic.Bool
}

// NewService wires the run service.
func NewService(orchestrator *Orchestrator, st store.Store, logger *zap.Logger, clk clock.Clock, budget time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		orchestrator: orchestrator,
		store:        st,
		logger:       logger,
		clock:        clk,
		budget:       budget,
	}
}

// RunNow executes one full crawl. It never returns an error; every
// failure mode lands in the summary. A second call while a run is in
// flight is rejected immediately rather than queued.
func (s *Service) RunNow(ctx context.Context) chart.RunSummary {
	collectedAt := s.clock.Now().In(chart.KST)

	if !s.running.CompareAndSwap(false, true) {
		return chart.RunSummary{
			Success:      false,
			ErrorMessage: "run already in progress",
			CollectedAt:  collectedAt,
		}
	}
	defer s.running.Store(false)

	metrics.SetRunActive(true)
	defer metrics.SetRunActive(false)

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	logger.Info("starting chart crawl")
	start := s.clock.Now()

	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	results := s.orchestrator.RunAll(ctx)
	s.persist(ctx, logger, results, collectedAt)

	summary := s.summarize(runID, results, collectedAt, s.clock.Now().Sub(start))
	metrics.ObserveRun(runOutcome(summary))
	logger.Info("chart crawl completed",
		zap.Int64("execution_time_ms", summary.ExecutionTimeMs),
		zap.Int("platforms_successful", summary.PlatformsSuccessful),
		zap.Int("platforms_total", summary.PlatformsTotal),
		zap.Int("total_songs", summary.TotalSongs),
	)
	return summary
}

// persist appends one log row per source and replaces the snapshot.
// Both writes are best effort.
func (s *Service) persist(ctx context.Context, logger *zap.Logger, results []chart.RunResult, collectedAt time.Time) {
	for _, res := range results {
		metrics.ObservePlatformCrawl(
			res.SourceID,
			string(res.Status),
			len(res.Entries),
			time.Duration(res.DurationMs)*time.Millisecond,
		)

		rec := chart.LogRecord{
			SourceID:     res.SourceID,
			Status:       res.Status,
			DurationMs:   res.DurationMs,
			EntryCount:   len(res.Entries),
			ErrorMessage: res.ErrorMessage,
			ErrorKind:    res.ErrorKind,
			CreatedAt:    collectedAt,
		}
		if res.Status == chart.StatusSuccess {
			rec.RawEntries = res.Entries
		}
		if err := s.store.AppendLog(ctx, rec); err != nil {
			logger.Error("failed to append crawler log",
				zap.String("platform", res.SourceID),
				zap.Error(err),
			)
		}
	}

	snap := Aggregate(results, collectedAt)
	if err := s.store.UpsertSnapshot(ctx, SnapshotKey, snap); err != nil {
		logger.Error("failed to upsert chart snapshot", zap.Error(err))
	}
}

func (s *Service) summarize(runID string, results []chart.RunResult, collectedAt time.Time, elapsed time.Duration) chart.RunSummary {
	summary := chart.RunSummary{
		Success:         true,
		RunID:           runID,
		ExecutionTimeMs: elapsed.Milliseconds(),
		CollectedAt:     collectedAt,
		PlatformsTotal:  len(results),
	}
	for _, res := range results {
		if res.Status == chart.StatusSuccess {
			summary.PlatformsSuccessful++
		}
		summary.TotalSongs += len(res.Entries)
		summary.Results = append(summary.Results, chart.SourceOutcome{
			SourceID:     res.SourceID,
			Status:       res.Status,
			EntryCount:   len(res.Entries),
			DurationMs:   res.DurationMs,
			ErrorMessage: res.ErrorMessage,
		})
	}
	return summary
}

func runOutcome(summary chart.RunSummary) string {
	if summary.Success && summary.PlatformsSuccessful > 0 {
		return string(chart.StatusSuccess)
	}
	return string(chart.StatusFailed)
}
