// Package run coordinates a full crawl: fan out over the source
// adapters, aggregate successful results into a snapshot, and persist
// the outcome.
package run

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/source"
)

// Orchestrator fans a crawl out over all adapters concurrently. Results
// come back in adapter registration order regardless of completion
// order.
type Orchestrator struct {
	adapters []source.Adapter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewOrchestrator builds an orchestrator. timeout bounds each source
// individually; zero means no per-source bound beyond the caller's
// context.
func NewOrchestrator(adapters []source.Adapter, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{adapters: adapters, timeout: timeout, logger: logger}
}

// RunAll crawls every source concurrently and returns one result per
// adapter, in registration order. It never returns an error: every
// failure mode is a failed RunResult.
func (o *Orchestrator) RunAll(ctx context.Context) []chart.RunResult {
	results := make([]chart.RunResult, len(o.adapters))

	var wg sync.WaitGroup
	for i, adapter := range o.adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			results[i] = o.crawlOne(ctx, adapter)
		}(i, adapter)
	}
	wg.Wait()

	for _, res := range results {
		if res.Status == chart.StatusFailed {
			o.logger.Warn("source crawl failed",
				zap.String("platform", res.SourceID),
				zap.String("error_type", res.ErrorKind),
				zap.String("error", res.ErrorMessage),
			)
		}
	}
	return results
}

// crawlOne runs a single adapter under its own deadline. A panicking
// adapter is converted to a failed result rather than taking the run
// down.
func (o *Orchestrator) crawlOne(ctx context.Context, adapter source.Adapter) chart.RunResult {
	start := time.Now()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	done := make(chan chart.RunResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- chart.Failed(
					adapter.ID(),
					chart.ErrKindAdapter,
					fmt.Sprintf("adapter panicked: %v", r),
					time.Since(start),
				)
			}
		}()
		done <- adapter.Crawl(ctx)
	}()

	select {
	case <-ctx.Done():
		return chart.Failed(
			adapter.ID(),
			chart.ErrKindTimeout,
			ctx.Err().Error(),
			time.Since(start),
		)
	case res := <-done:
		return res
	}
}
