package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/fetch"
	"github.com/dayone-labs/kchart-crawler/internal/markup"
)

// DefaultGenieURL is the genie realtime top-200 chart page.
const DefaultGenieURL = "https://www.genie.co.kr/chart/top200"

// Genie crawls the genie top-200 chart. Unlike melon it is a single
// page, so a fetch failure fails the whole adapter.
type Genie struct {
	deps Deps
	url  string
}

// NewGenie builds the genie adapter. An empty url uses DefaultGenieURL.
func NewGenie(deps Deps, url string) *Genie {
	if url == "" {
		url = DefaultGenieURL
	}
	return &Genie{deps: deps, url: url}
}

// ID implements Adapter.
func (g *Genie) ID() string { return "genie" }

// Crawl implements Adapter.
func (g *Genie) Crawl(ctx context.Context) chart.RunResult {
	start := g.deps.now()
	logger := g.deps.logger().With(zap.String("platform", g.ID()))

	doc, failure := g.deps.Fetcher.Fetch(ctx, g.url, fetch.Options{})
	if failure != nil {
		logger.Warn("chart fetch failed", zap.String("error", failure.Error()))
		return fetchFailure(g.ID(), failure, g.deps.since(start))
	}
	g.deps.sinkPage(g.ID(), "top200", doc.Body)

	collectedAt := g.deps.now().In(chart.KST)
	rows := markup.Parse(string(doc.Body)).SelectAll("tr.list")

	entries := make([]chart.Entry, 0, len(rows))
	for _, row := range rows {
		entry := chart.Entry{
			Rank:        chart.SafeInt(row.SelectOne(".number").Text()),
			Title:       chart.CleanText(row.SelectOne(".info .title").Text()),
			Artist:      chart.CleanText(row.SelectOne(".info .artist").Text()),
			Album:       chart.CleanText(row.SelectOne(".info .albumtitle").Text()),
			SourceID:    g.ID(),
			CollectedAt: collectedAt,
		}
		if !chart.Valid(entry) {
			logger.Debug("dropping invalid row", zap.Int("rank", entry.Rank))
			continue
		}
		entries = append(entries, entry)
	}
	logger.Debug("chart crawled", zap.Int("songs", len(entries)))

	return chart.RunResult{
		SourceID:   g.ID(),
		Status:     chart.StatusSuccess,
		Entries:    entries,
		DurationMs: g.deps.since(start).Milliseconds(),
	}
}
