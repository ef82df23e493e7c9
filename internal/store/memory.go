package store

import (
	"context"
	"sync"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// Memory is an in-process Store for development and tests.
type Memory struct {
	mu        sync.RWMutex
	logs      []chart.LogRecord
	snapshots map[string]chart.Snapshot
	schedules map[string]chart.ScheduleStatus
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[string]chart.Snapshot),
		schedules: make(map[string]chart.ScheduleStatus),
	}
}

// AppendLog implements Store.
func (m *Memory) AppendLog(_ context.Context, rec chart.LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, rec)
	return nil
}

// UpsertSnapshot implements Store.
func (m *Memory) UpsertSnapshot(_ context.Context, key string, snap chart.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = snap
	return nil
}

// Snapshot implements Store.
func (m *Memory) Snapshot(_ context.Context, key string) (chart.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[key]
	if !ok {
		return chart.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// RecentLogs implements Store. Rows come back newest first.
func (m *Memory) RecentLogs(_ context.Context, limit int) ([]chart.LogRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.logs)
	if limit > n {
		limit = n
	}
	out := make([]chart.LogRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

// SetScheduleStatus seeds the scheduler row. Tests and the development
// profile use it; production reads the row the external scheduler
// maintains.
func (m *Memory) SetScheduleStatus(jobName string, status chart.ScheduleStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[jobName] = status
}

// ScheduleStatus implements Store.
func (m *Memory) ScheduleStatus(_ context.Context, jobName string) (chart.ScheduleStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.schedules[jobName]
	if !ok {
		return chart.ScheduleStatus{}, ErrNotFound
	}
	return status, nil
}

// Close implements Store.
func (m *Memory) Close() {}
