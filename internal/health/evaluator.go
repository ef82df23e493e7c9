// Package health derives operational alerts and metrics from recent
// crawl logs, the scheduler's status row, and resource usage readings.
// Evaluation is pure: it never touches the store or the notifier.
package health

import (
	"fmt"
	"time"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// Alert thresholds.
const (
	ErrorRateWarning    = 0.2
	ErrorRateCritical   = 0.5
	SuccessRateLow      = 0.8
	UsageWarning        = 0.8
	UsageCritical       = 0.95
	ConsecutiveFailures = 3

	recentErrorWindow = 24 * time.Hour
)

// Usage is one resource consumption reading against its quota.
type Usage struct {
	Name  string
	Used  float64
	Limit float64
}

// Evaluate inspects the crawler's recent behavior and returns the
// alerts it warrants plus the derived metrics. logs must be newest
// first. schedule is nil when the scheduler has never reported.
func Evaluate(logs []chart.LogRecord, schedule *chart.ScheduleStatus, usage []Usage, now time.Time) ([]chart.Alert, chart.HealthMetrics) {
	var alerts []chart.Alert

	metricsOut := chart.HealthMetrics{
		Available:        schedule != nil && schedule.Enabled,
		RecentErrorCount: countRecentErrors(logs, now),
	}
	if schedule != nil {
		metricsOut.LastRunAt = schedule.LastRun
		metricsOut.NextRunAt = schedule.NextRun
		metricsOut.RunCount = schedule.RunCount
		metricsOut.SuccessCount = schedule.SuccessCount
		metricsOut.FailureCount = schedule.FailureCount
	}

	if !metricsOut.Available {
		alerts = append(alerts, chart.Alert{
			Kind:      chart.AlertSystemDown,
			Severity:  chart.SeverityCritical,
			Title:     "Crawler system inactive",
			Message:   "The crawler scheduler is disabled or has never reported. Immediate attention required.",
			Timestamp: now,
		})
	}

	if schedule != nil && schedule.RunCount > 0 {
		alerts = append(alerts, rateAlerts(schedule, now)...)
	}

	if alert := consecutiveFailureAlert(logs, now); alert != nil {
		alerts = append(alerts, *alert)
	}

	alerts = append(alerts, platformAlerts(logs, now)...)
	alerts = append(alerts, usageAlerts(usage, now)...)

	return alerts, metricsOut
}

func countRecentErrors(logs []chart.LogRecord, now time.Time) int {
	cutoff := now.Add(-recentErrorWindow)
	count := 0
	for _, rec := range logs {
		if rec.Status == chart.StatusFailed && rec.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count
}

func rateAlerts(schedule *chart.ScheduleStatus, now time.Time) []chart.Alert {
	var alerts []chart.Alert

	errorRate := float64(schedule.FailureCount) / float64(schedule.RunCount)
	switch {
	case errorRate >= ErrorRateCritical:
		alerts = append(alerts, chart.Alert{
			Kind:     chart.AlertHighErrorRate,
			Severity: chart.SeverityError,
			Title:    "High error rate detected",
			Message:  fmt.Sprintf("Error rate reached %d%% (threshold: 50%%).", percent(errorRate)),
			Context: chart.AlertContext{
				Rate:  errorRate,
				Count: schedule.FailureCount,
			},
			Timestamp: now,
		})
	case errorRate >= ErrorRateWarning:
		alerts = append(alerts, chart.Alert{
			Kind:     chart.AlertHighErrorRate,
			Severity: chart.SeverityWarning,
			Title:    "Error rate warning",
			Message:  fmt.Sprintf("Error rate is %d%% (warning threshold: 20%%).", percent(errorRate)),
			Context: chart.AlertContext{
				Rate:  errorRate,
				Count: schedule.FailureCount,
			},
			Timestamp: now,
		})
	}

	successRate := float64(schedule.SuccessCount) / float64(schedule.RunCount)
	if successRate < SuccessRateLow {
		alerts = append(alerts, chart.Alert{
			Kind:     chart.AlertLowSuccess,
			Severity: chart.SeverityWarning,
			Title:    "Low success rate",
			Message:  fmt.Sprintf("Success rate dropped to %d%% (target: 80%%).", percent(successRate)),
			Context: chart.AlertContext{
				Rate: successRate,
			},
			Timestamp: now,
		})
	}
	return alerts
}

func consecutiveFailureAlert(logs []chart.LogRecord, now time.Time) *chart.Alert {
	if len(logs) < ConsecutiveFailures {
		return nil
	}
	failed := 0
	for _, rec := range logs[:ConsecutiveFailures] {
		if rec.Status == chart.StatusFailed {
			failed++
		}
	}
	if failed < ConsecutiveFailures {
		return nil
	}
	return &chart.Alert{
		Kind:     chart.AlertCrawlerStuck,
		Severity: chart.SeverityError,
		Title:    "Consecutive failures detected",
		Message:  fmt.Sprintf("The crawler failed %d times in a row.", failed),
		Context: chart.AlertContext{
			Count: failed,
		},
		Timestamp: now,
	}
}

func platformAlerts(logs []chart.LogRecord, now time.Time) []chart.Alert {
	type stats struct {
		failed int
		total  int
	}
	perPlatform := make(map[string]*stats)
	var order []string
	for _, rec := range logs {
		st, ok := perPlatform[rec.SourceID]
		if !ok {
			st = &stats{}
			perPlatform[rec.SourceID] = st
			order = append(order, rec.SourceID)
		}
		st.total++
		if rec.Status == chart.StatusFailed {
			st.failed++
		}
	}

	var alerts []chart.Alert
	for _, platform := range order {
		st := perPlatform[platform]
		failureRate := float64(st.failed) / float64(st.total)
		if failureRate <= 0.5 {
			continue
		}
		alerts = append(alerts, chart.Alert{
			Kind:     chart.AlertPlatformDown,
			Severity: chart.SeverityError,
			Title:    fmt.Sprintf("Platform %s is failing", platform),
			Message:  fmt.Sprintf("Failure rate for %s is %d%%.", platform, percent(failureRate)),
			Context: chart.AlertContext{
				SourceID: platform,
				Rate:     failureRate,
				Count:    st.failed,
			},
			Timestamp: now,
		})
	}
	return alerts
}

func usageAlerts(usage []Usage, now time.Time) []chart.Alert {
	var alerts []chart.Alert
	for _, u := range usage {
		if u.Limit <= 0 {
			continue
		}
		ratio := u.Used / u.Limit
		switch {
		case ratio >= UsageCritical:
			alerts = append(alerts, chart.Alert{
				Kind:     chart.AlertUsageCritical,
				Severity: chart.SeverityCritical,
				Title:    fmt.Sprintf("%s quota nearly exhausted", u.Name),
				Message:  fmt.Sprintf("%s usage reached %d%% of its limit.", u.Name, percent(ratio)),
				Context: chart.AlertContext{
					Resource: u.Name,
					Rate:     ratio,
				},
				Timestamp: now,
			})
		case ratio >= UsageWarning:
			alerts = append(alerts, chart.Alert{
				Kind:     chart.AlertUsageWarning,
				Severity: chart.SeverityWarning,
				Title:    fmt.Sprintf("%s usage warning", u.Name),
				Message:  fmt.Sprintf("%s usage is at %d%% of its limit.", u.Name, percent(ratio)),
				Context: chart.AlertContext{
					Resource: u.Name,
					Rate:     ratio,
				},
				Timestamp: now,
			})
		}
	}
	return alerts
}

func percent(ratio float64) int {
	return int(ratio*100 + 0.5)
}
