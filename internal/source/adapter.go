// Package source implements the per-platform chart adapters. Each
// adapter fetches its chart page(s), walks the repeating row structure
// with the markup engine, and emits validated chart entries. Adapters
// absorb row-level and per-chart failures; only adapter-level problems
// surface as a failed result.
package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/clock"
	"github.com/dayone-labs/kchart-crawler/internal/fetch"
)

// Adapter crawls one external chart source.
type Adapter interface {
	// ID returns the stable source identifier ("melon", "genie", ...).
	ID() string
	// Crawl fetches and parses the source's charts. It never returns an
	// error: failures are carried inside the RunResult.
	Crawl(ctx context.Context) chart.RunResult
}

// PageSink receives raw page bodies for diagnostics. label
// distinguishes pages within one source (chart-type key, or the source
// id itself). Implementations must not block the crawl.
type PageSink func(sourceID, label string, body []byte)

// Deps bundles the collaborators every adapter needs.
type Deps struct {
	Fetcher *fetch.Client
	Logger  *zap.Logger
	Clock   clock.Clock
	Pages   PageSink
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}

func (d Deps) sinkPage(sourceID, label string, body []byte) {
	if d.Pages == nil {
		return
	}
	d.Pages(sourceID, label, body)
}

// since is the shared duration helper for adapter results.
func (d Deps) since(start time.Time) time.Duration {
	return d.now().Sub(start)
}

func fetchFailure(sourceID string, failure *fetch.Failure, duration time.Duration) chart.RunResult {
	kind := chart.ErrKindTransport
	msg := failure.Detail
	if failure.Kind == fetch.FailHTTPStatus {
		kind = chart.ErrKindHTTPStatus
		msg = fmt.Sprintf("http status %d", failure.Status)
	}
	return chart.Failed(sourceID, kind, msg, duration)
}
