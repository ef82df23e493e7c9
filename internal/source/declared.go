package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/fetch"
)

// DeclaredEndpoints maps the sources that have a known chart URL but no
// working row extraction yet.
var DeclaredEndpoints = map[string]string{
	"bugs": "https://music.bugs.co.kr/chart",
	"vibe": "https://vibe.naver.com/chart",
	"flo":  "https://www.music-flo.com/detail/chart/HOT",
}

// Declared is a placeholder adapter for a source whose endpoint is
// known but whose page structure is not parsed yet. It probes the
// endpoint and always reports a failed run so the gap stays visible in
// run summaries and logs instead of being papered over with fake data.
type Declared struct {
	deps Deps
	id   string
	url  string
}

// NewDeclared builds a declared-endpoint adapter. An empty url falls
// back to the DeclaredEndpoints entry for id.
func NewDeclared(deps Deps, id, url string) *Declared {
	if url == "" {
		url = DeclaredEndpoints[id]
	}
	return &Declared{deps: deps, id: id, url: url}
}

// ID implements Adapter.
func (d *Declared) ID() string { return d.id }

// Crawl implements Adapter.
func (d *Declared) Crawl(ctx context.Context) chart.RunResult {
	start := d.deps.now()
	logger := d.deps.logger().With(zap.String("platform", d.id))

	doc, failure := d.deps.Fetcher.Fetch(ctx, d.url, fetch.Options{})
	if failure != nil {
		logger.Warn("endpoint probe failed", zap.String("error", failure.Error()))
		return fetchFailure(d.id, failure, d.deps.since(start))
	}
	d.deps.sinkPage(d.id, d.id, doc.Body)

	logger.Warn("endpoint reachable but parser not implemented",
		zap.Int("status", doc.Status),
		zap.Int("body_bytes", len(doc.Body)),
	)
	return chart.Failed(
		d.id,
		chart.ErrKindNotImplemented,
		fmt.Sprintf("parser for %s is not implemented", d.id),
		d.deps.since(start),
	)
}
