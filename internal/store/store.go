// Package store defines the persistence boundary for crawl runs: the
// append-only crawler log, the keyed latest-snapshot record, and the
// external scheduler's status row.
package store

import (
	"context"
	"errors"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CronJobName is the scheduler row the status endpoint reports on.
const CronJobName = "chart_crawler_hourly"

// Store persists crawl outcomes. Implementations must be safe for
// concurrent use.
type Store interface {
	// AppendLog writes one per-source audit row.
	AppendLog(ctx context.Context, rec chart.LogRecord) error
	// UpsertSnapshot replaces the snapshot stored under key.
	UpsertSnapshot(ctx context.Context, key string, snap chart.Snapshot) error
	// Snapshot reads the snapshot stored under key. ErrNotFound when no
	// snapshot has been written yet.
	Snapshot(ctx context.Context, key string) (chart.Snapshot, error)
	// RecentLogs returns up to limit log rows, newest first.
	RecentLogs(ctx context.Context, limit int) ([]chart.LogRecord, error)
	// ScheduleStatus reads the scheduler's status row for jobName.
	// ErrNotFound when the scheduler has never reported.
	ScheduleStatus(ctx context.Context, jobName string) (chart.ScheduleStatus, error)
	// Close releases underlying resources.
	Close()
}

// NoOp discards writes and reports empty reads. Used when persistence
// is disabled.
type NoOp struct{}

// AppendLog implements Store.
func (NoOp) AppendLog(context.Context, chart.LogRecord) error { return nil }

// UpsertSnapshot implements Store.
func (NoOp) UpsertSnapshot(context.Context, string, chart.Snapshot) error { return nil }

// Snapshot implements Store.
func (NoOp) Snapshot(context.Context, string) (chart.Snapshot, error) {
	return chart.Snapshot{}, ErrNotFound
}

// RecentLogs implements Store.
func (NoOp) RecentLogs(context.Context, int) ([]chart.LogRecord, error) { return nil, nil }

// ScheduleStatus implements Store.
func (NoOp) ScheduleStatus(context.Context, string) (chart.ScheduleStatus, error) {
	return chart.ScheduleStatus{}, ErrNotFound
}

// Close implements Store.
func (NoOp) Close() {}
