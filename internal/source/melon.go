package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/fetch"
	"github.com/dayone-labs/kchart-crawler/internal/markup"
)

// ChartTab is one chart type within a multi-chart source.
type ChartTab struct {
	Key  string
	Name string
	URL  string
}

// DefaultMelonTabs lists the melon charts in crawl order.
var DefaultMelonTabs = []ChartTab{
	{Key: "top_100", Name: "TOP100", URL: "https://www.melon.com/chart/index.htm"},
	{Key: "hot_100", Name: "HOT100", URL: "https://www.melon.com/chart/hot100/index.htm"},
	{Key: "daily", Name: "일간", URL: "https://www.melon.com/chart/day/index.htm"},
	{Key: "weekly", Name: "주간", URL: "https://www.melon.com/chart/week/index.htm"},
	{Key: "monthly", Name: "월간", URL: "https://www.melon.com/chart/month/index.htm"},
}

// Melon crawls the melon multi-chart source. A chart type whose fetch
// fails contributes zero entries without failing the adapter.
type Melon struct {
	deps Deps
	tabs []ChartTab
}

// NewMelon builds the melon adapter. Passing no tabs uses
// DefaultMelonTabs; tests override them with local fixture URLs.
func NewMelon(deps Deps, tabs ...ChartTab) *Melon {
	if len(tabs) == 0 {
		tabs = DefaultMelonTabs
	}
	return &Melon{deps: deps, tabs: tabs}
}

// ID implements Adapter.
func (m *Melon) ID() string { return "melon" }

// Crawl implements Adapter.
func (m *Melon) Crawl(ctx context.Context) chart.RunResult {
	start := m.deps.now()
	logger := m.deps.logger().With(zap.String("platform", m.ID()))

	var entries []chart.Entry
	for _, tab := range m.tabs {
		doc, failure := m.deps.Fetcher.Fetch(ctx, tab.URL, fetch.Options{})
		if failure != nil {
			logger.Warn("chart tab fetch failed",
				zap.String("chart_type", tab.Name),
				zap.String("error", failure.Error()),
			)
			continue
		}
		m.deps.sinkPage(m.ID(), tab.Key, doc.Body)

		tabEntries := m.parseTab(doc.Body, tab, logger)
		entries = append(entries, tabEntries...)
		logger.Debug("chart tab crawled",
			zap.String("chart_type", tab.Name),
			zap.Int("songs", len(tabEntries)),
		)
	}

	return chart.RunResult{
		SourceID:   m.ID(),
		Status:     chart.StatusSuccess,
		Entries:    entries,
		DurationMs: m.deps.since(start).Milliseconds(),
	}
}

func (m *Melon) parseTab(body []byte, tab ChartTab, logger *zap.Logger) []chart.Entry {
	collectedAt := m.deps.now().In(chart.KST)
	rows := markup.Parse(string(body)).SelectAll("tr[data-song-no]")

	entries := make([]chart.Entry, 0, len(rows))
	for _, row := range rows {
		entry := chart.Entry{
			Rank:        chart.SafeInt(row.SelectOne(".rank").Text()),
			Title:       chart.CleanText(row.SelectOne(".ellipsis.rank01 a").Text()),
			Artist:      chart.CleanText(row.SelectOne(".ellipsis.rank02 a").Text()),
			Album:       chart.CleanText(row.SelectOne(".ellipsis.rank03 a").Text()),
			ArtURL:      row.SelectOne("img").Attr("src"),
			SourceID:    m.ID(),
			ChartType:   tab.Name,
			CollectedAt: collectedAt,
		}
		if !chart.Valid(entry) {
			logger.Debug("dropping invalid row",
				zap.String("chart_type", tab.Name),
				zap.Int("rank", entry.Rank),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
