package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func kinds(alerts []chart.Alert) []chart.AlertKind {
	out := make([]chart.AlertKind, len(alerts))
	for i, a := range alerts {
		out[i] = a.Kind
	}
	return out
}

func TestEvaluateDegradedSchedule(t *testing.T) {
	t.Parallel()

	schedule := &chart.ScheduleStatus{
		Enabled:      true,
		RunCount:     100,
		SuccessCount: 75,
		FailureCount: 25,
	}

	alerts, m := Evaluate(nil, schedule, nil, evalNow)

	require.ElementsMatch(t,
		[]chart.AlertKind{chart.AlertHighErrorRate, chart.AlertLowSuccess},
		kinds(alerts),
	)
	for _, a := range alerts {
		require.Equal(t, chart.SeverityWarning, a.Severity)
	}
	require.True(t, m.Available)
	require.Equal(t, 100, m.RunCount)
	require.Equal(t, 25, m.FailureCount)
}

func TestEvaluateCriticalErrorRate(t *testing.T) {
	t.Parallel()

	schedule := &chart.ScheduleStatus{
		Enabled:      true,
		RunCount:     10,
		SuccessCount: 10,
		FailureCount: 6,
	}

	alerts, _ := Evaluate(nil, schedule, nil, evalNow)

	require.Len(t, alerts, 1)
	require.Equal(t, chart.AlertHighErrorRate, alerts[0].Kind)
	require.Equal(t, chart.SeverityError, alerts[0].Severity)
	require.Equal(t, 6, alerts[0].Context.Count)
}

func TestEvaluateDisabledScheduler(t *testing.T) {
	t.Parallel()

	alerts, m := Evaluate(nil, &chart.ScheduleStatus{Enabled: false}, nil, evalNow)

	require.False(t, m.Available)
	require.Contains(t, kinds(alerts), chart.AlertSystemDown)
	require.Equal(t, chart.SeverityCritical, alerts[0].Severity)

	alerts, m = Evaluate(nil, nil, nil, evalNow)
	require.False(t, m.Available)
	require.Contains(t, kinds(alerts), chart.AlertSystemDown)
}

func TestEvaluateConsecutiveFailures(t *testing.T) {
	t.Parallel()

	logs := []chart.LogRecord{
		{SourceID: "melon", Status: chart.StatusFailed, CreatedAt: evalNow},
		{SourceID: "genie", Status: chart.StatusFailed, CreatedAt: evalNow.Add(-time.Hour)},
		{SourceID: "melon", Status: chart.StatusFailed, CreatedAt: evalNow.Add(-2 * time.Hour)},
		{SourceID: "melon", Status: chart.StatusSuccess, CreatedAt: evalNow.Add(-3 * time.Hour)},
	}
	schedule := &chart.ScheduleStatus{Enabled: true, RunCount: 100, SuccessCount: 97, FailureCount: 3}

	alerts, m := Evaluate(logs, schedule, nil, evalNow)

	require.Contains(t, kinds(alerts), chart.AlertCrawlerStuck)
	require.Equal(t, 3, m.RecentErrorCount)

	// Two newest failed then a success: not stuck.
	logs[2].Status = chart.StatusSuccess
	alerts, _ = Evaluate(logs, schedule, nil, evalNow)
	require.NotContains(t, kinds(alerts), chart.AlertCrawlerStuck)
}

func TestEvaluateRecentErrorWindow(t *testing.T) {
	t.Parallel()

	logs := []chart.LogRecord{
		{SourceID: "melon", Status: chart.StatusFailed, CreatedAt: evalNow.Add(-time.Hour)},
		{SourceID: "melon", Status: chart.StatusFailed, CreatedAt: evalNow.Add(-25 * time.Hour)},
	}
	schedule := &chart.ScheduleStatus{Enabled: true, RunCount: 10, SuccessCount: 9, FailureCount: 1}

	_, m := Evaluate(logs, schedule, nil, evalNow)
	require.Equal(t, 1, m.RecentErrorCount)
}

func TestEvaluatePlatformDown(t *testing.T) {
	t.Parallel()

	logs := []chart.LogRecord{
		{SourceID: "bugs", Status: chart.StatusFailed, CreatedAt: evalNow},
		{SourceID: "bugs", Status: chart.StatusFailed, CreatedAt: evalNow},
		{SourceID: "bugs", Status: chart.StatusSuccess, CreatedAt: evalNow},
		{SourceID: "melon", Status: chart.StatusSuccess, CreatedAt: evalNow},
		{SourceID: "melon", Status: chart.StatusSuccess, CreatedAt: evalNow},
	}
	schedule := &chart.ScheduleStatus{Enabled: true, RunCount: 10, SuccessCount: 9, FailureCount: 1}

	alerts, _ := Evaluate(logs, schedule, nil, evalNow)

	var platform []chart.Alert
	for _, a := range alerts {
		if a.Kind == chart.AlertPlatformDown {
			platform = append(platform, a)
		}
	}
	require.Len(t, platform, 1)
	require.Equal(t, "bugs", platform[0].Context.SourceID)
	require.Equal(t, chart.SeverityError, platform[0].Severity)

	// Exactly half failed does not trip the alert.
	logs = append(logs, chart.LogRecord{SourceID: "bugs", Status: chart.StatusSuccess, CreatedAt: evalNow})
	alerts, _ = Evaluate(logs, schedule, nil, evalNow)
	require.NotContains(t, kinds(alerts), chart.AlertPlatformDown)
}

func TestEvaluateUsageThresholds(t *testing.T) {
	t.Parallel()

	schedule := &chart.ScheduleStatus{Enabled: true, RunCount: 10, SuccessCount: 10}
	usage := []Usage{
		{Name: "edge_functions", Used: 96, Limit: 100},
		{Name: "api_requests", Used: 85, Limit: 100},
		{Name: "database", Used: 10, Limit: 100},
		{Name: "unlimited", Used: 10, Limit: 0},
	}

	alerts, _ := Evaluate(nil, schedule, usage, evalNow)

	require.Len(t, alerts, 2)
	require.Equal(t, chart.AlertUsageCritical, alerts[0].Kind)
	require.Equal(t, "edge_functions", alerts[0].Context.Resource)
	require.Equal(t, chart.AlertUsageWarning, alerts[1].Kind)
	require.Equal(t, "api_requests", alerts[1].Context.Resource)
}

func TestEvaluateHealthySystemRaisesNothing(t *testing.T) {
	t.Parallel()

	lastRun := evalNow.Add(-time.Hour)
	schedule := &chart.ScheduleStatus{
		Enabled:      true,
		LastRun:      &lastRun,
		RunCount:     100,
		SuccessCount: 95,
		FailureCount: 5,
	}
	logs := []chart.LogRecord{
		{SourceID: "melon", Status: chart.StatusSuccess, CreatedAt: evalNow},
		{SourceID: "genie", Status: chart.StatusSuccess, CreatedAt: evalNow},
	}

	alerts, m := Evaluate(logs, schedule, nil, evalNow)
	require.Empty(t, alerts)
	require.True(t, m.Available)
	require.Equal(t, &lastRun, m.LastRunAt)
	require.Zero(t, m.RecentErrorCount)
}
