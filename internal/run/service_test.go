package run

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/clock"
	"github.com/dayone-labs/kchart-crawler/internal/metrics"
	"github.com/dayone-labs/kchart-crawler/internal/source"
	"github.com/dayone-labs/kchart-crawler/internal/store"
)

func init() {
	metrics.Init()
}

func TestRunNowPersistsLogsAndSnapshot(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	orch := NewOrchestrator([]source.Adapter{
		&fakeAdapter{id: "melon", result: successResult("melon", 3)},
		&fakeAdapter{id: "bugs", result: chart.Failed("bugs", chart.ErrKindNotImplemented, "parser for bugs is not implemented", 120)},
	}, time.Second, nil)

	fixed := clock.Fixed{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(orch, mem, nil, fixed, time.Minute)

	summary := svc.RunNow(context.Background())

	require.True(t, summary.Success)
	require.NotEmpty(t, summary.RunID)
	require.Equal(t, 1, summary.PlatformsSuccessful)
	require.Equal(t, 2, summary.PlatformsTotal)
	require.Equal(t, 3, summary.TotalSongs)
	require.Len(t, summary.Results, 2)
	require.Equal(t, "KST", summary.CollectedAt.Location().String())

	logs, err := mem.RecentLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, rec := range logs {
		switch rec.SourceID {
		case "melon":
			require.Equal(t, chart.StatusSuccess, rec.Status)
			require.Equal(t, 3, rec.EntryCount)
			require.Len(t, rec.RawEntries, 3)
		case "bugs":
			require.Equal(t, chart.StatusFailed, rec.Status)
			require.Equal(t, chart.ErrKindNotImplemented, rec.ErrorKind)
			require.Empty(t, rec.RawEntries)
		}
	}

	snap, err := mem.Snapshot(context.Background(), SnapshotKey)
	require.NoError(t, err)
	require.Len(t, snap.BySourceKey["melon_top100"], 3)
	require.NotContains(t, snap.BySourceKey, "bugs")
}

func TestRunNowRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := &gateAdapter{release: release, started: started}

	orch := NewOrchestrator([]source.Adapter{blocking}, time.Minute, nil)
	svc := NewService(orch, store.NewMemory(), nil, nil, time.Minute)

	var wg sync.WaitGroup
	wg.Add(1)
	var first chart.RunSummary
	go func() {
		defer wg.Done()
		first = svc.RunNow(context.Background())
	}()

	<-started
	second := svc.RunNow(context.Background())
	require.False(t, second.Success)
	require.Equal(t, "run already in progress", second.ErrorMessage)

	close(release)
	wg.Wait()
	require.True(t, first.Success)
}

func TestRunNowAbsorbsStoreFailures(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator([]source.Adapter{
		&fakeAdapter{id: "genie", result: successResult("genie", 2)},
	}, time.Second, nil)
	svc := NewService(orch, failingStore{}, nil, nil, time.Minute)

	summary := svc.RunNow(context.Background())
	require.True(t, summary.Success)
	require.Equal(t, 1, summary.PlatformsSuccessful)
	require.Equal(t, 2, summary.TotalSongs)
}

// gateAdapter blocks until released so tests can hold a run open.
type gateAdapter struct {
	release   <-chan struct{}
	started   chan<- struct{}
	startOnce sync.Once
}

func (g *gateAdapter) ID() string { return "melon" }

func (g *gateAdapter) Crawl(context.Context) chart.RunResult {
	g.startOnce.Do(func() { close(g.started) })
	<-g.release
	return successResult("melon", 1)
}

// failingStore errors on every write.
type failingStore struct{}

func (failingStore) AppendLog(context.Context, chart.LogRecord) error {
	return errors.New("database unavailable")
}

func (failingStore) UpsertSnapshot(context.Context, string, chart.Snapshot) error {
	return errors.New("database unavailable")
}

func (failingStore) Snapshot(context.Context, string) (chart.Snapshot, error) {
	return chart.Snapshot{}, store.ErrNotFound
}

func (failingStore) RecentLogs(context.Context, int) ([]chart.LogRecord, error) {
	return nil, errors.New("database unavailable")
}

func (failingStore) ScheduleStatus(context.Context, string) (chart.ScheduleStatus, error) {
	return chart.ScheduleStatus{}, store.ErrNotFound
}

func (failingStore) Close() {}
