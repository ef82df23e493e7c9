package run

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/source"
)

// fakeAdapter scripts one source's behavior for orchestration tests.
type fakeAdapter struct {
	id     string
	result chart.RunResult
	delay  time.Duration
	panics bool
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Crawl(ctx context.Context) chart.RunResult {
	if f.panics {
		panic("selector engine exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return chart.Failed(f.id, chart.ErrKindTransport, ctx.Err().Error(), 0)
		}
	}
	return f.result
}

func successResult(id string, songs int) chart.RunResult {
	entries := make([]chart.Entry, songs)
	for i := range entries {
		entries[i] = chart.Entry{Rank: i + 1, Title: "Song", Artist: "Artist", SourceID: id}
	}
	return chart.RunResult{SourceID: id, Status: chart.StatusSuccess, Entries: entries}
}

func TestRunAllPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&fakeAdapter{id: "melon", result: successResult("melon", 2), delay: 50 * time.Millisecond},
		&fakeAdapter{id: "genie", result: successResult("genie", 1)},
		&fakeAdapter{id: "bugs", result: chart.Failed("bugs", chart.ErrKindNotImplemented, "parser for bugs is not implemented", 0)},
	}

	o := NewOrchestrator(adapters, time.Second, nil)
	results := o.RunAll(context.Background())

	require.Len(t, results, 3)
	require.Equal(t, "melon", results[0].SourceID)
	require.Equal(t, "genie", results[1].SourceID)
	require.Equal(t, "bugs", results[2].SourceID)
	require.Equal(t, chart.StatusFailed, results[2].Status)
}

func TestRunAllRecoversPanickingAdapter(t *testing.T) {
	t.Parallel()

	adapters := []source.Adapter{
		&fakeAdapter{id: "melon", panics: true},
		&fakeAdapter{id: "genie", result: successResult("genie", 1)},
	}

	o := NewOrchestrator(adapters, time.Second, nil)
	results := o.RunAll(context.Background())

	require.Equal(t, chart.StatusFailed, results[0].Status)
	require.Equal(t, chart.ErrKindAdapter, results[0].ErrorKind)
	require.Contains(t, results[0].ErrorMessage, "panicked")
	require.Equal(t, chart.StatusSuccess, results[1].Status)
}

func TestRunAllTimesOutSlowSource(t *testing.T) {
	t.Parallel()

	stuck := &fakeAdapter{id: "vibe", delay: 5 * time.Second, result: successResult("vibe", 1)}
	fast := &fakeAdapter{id: "genie", result: successResult("genie", 1)}

	o := NewOrchestrator([]source.Adapter{stuck, fast}, 100*time.Millisecond, nil)
	start := time.Now()
	results := o.RunAll(context.Background())

	require.Less(t, time.Since(start), 3*time.Second)
	require.Equal(t, chart.StatusFailed, results[0].Status)
	require.NotEmpty(t, results[0].ErrorKind)
	require.Equal(t, chart.StatusSuccess, results[1].Status)
}

func TestRunAllHonorsParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator([]source.Adapter{
		&fakeAdapter{id: "melon", delay: 5 * time.Second, result: successResult("melon", 1)},
	}, 0, nil)

	start := time.Now()
	results := o.RunAll(ctx)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, chart.StatusFailed, results[0].Status)
}
