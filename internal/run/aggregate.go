package run

import (
	"time"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// melonChartKeys maps melon chart display labels to snapshot keys. An
// unknown label falls back to the main chart key.
var melonChartKeys = map[string]string{
	"TOP100": "melon_top100",
	"HOT100": "melon_hot100",
	"일간":     "melon_daily",
	"주간":     "melon_weekly",
	"월간":     "melon_monthly",
}

const melonDefaultKey = "melon_top100"

// Aggregate folds the successful results into one snapshot. Melon
// entries split into one key per chart type; every other source maps to
// a single key named after the source. Failed results contribute
// nothing. Entry order within a key follows the source's page order.
func Aggregate(results []chart.RunResult, collectedAt time.Time) chart.Snapshot {
	snap := chart.Snapshot{
		CollectedAt: collectedAt,
		BySourceKey: make(map[string][]chart.SnapshotEntry),
	}

	for _, res := range results {
		if res.Status != chart.StatusSuccess {
			continue
		}
		for _, e := range res.Entries {
			key := res.SourceID
			if res.SourceID == "melon" {
				key = melonDefaultKey
				if mapped, ok := melonChartKeys[e.ChartType]; ok {
					key = mapped
				}
			}
			snap.BySourceKey[key] = append(snap.BySourceKey[key], chart.SnapshotEntry{
				Rank:       e.Rank,
				Title:      e.Title,
				Artist:     e.Artist,
				Album:      e.Album,
				ArtURL:     e.ArtURL,
				RankChange: e.RankChange,
				Timestamp:  collectedAt,
			})
		}
	}
	return snap
}
