// Package chart defines the core types shared across the crawl pipeline:
// chart entries, per-source run results, the aggregated snapshot, log
// records, and health/alert value types.
package chart

import "time"

// KST is the fixed collection timezone. Chart pages publish rankings on
// Korean local time, so every collected timestamp is expressed in it.
var KST = time.FixedZone("KST", 9*60*60)

// RunStatus is the terminal state of crawling one source in one run.
type RunStatus string

// Run status values persisted in crawler logs.
const (
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
)

// Error kinds attached to failed results and log records.
const (
	ErrKindTransport      = "transport"
	ErrKindHTTPStatus     = "http_status"
	ErrKindParseRow       = "parse_row_error"
	ErrKindAdapter        = "adapter_error"
	ErrKindTimeout        = "timeout"
	ErrKindStore          = "store_error"
	ErrKindNotImplemented = "not_implemented"
)

// Entry is one ranked item scraped from one source. For multi-chart
// sources ChartType carries the chart's display label. Entries are built
// once by an adapter and never mutated afterwards.
type Entry struct {
	Rank        int       `json:"rank"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album,omitempty"`
	ArtURL      string    `json:"album_art,omitempty"`
	RankChange  int       `json:"change"`
	SourceID    string    `json:"service"`
	ChartType   string    `json:"chart_type,omitempty"`
	CollectedAt time.Time `json:"timestamp"`
}

// RunResult is the outcome of crawling one source in one run. Entries is
// empty when Status is failed; ErrorMessage/ErrorKind are empty when
// Status is success.
type RunResult struct {
	SourceID     string    `json:"platform"`
	Status       RunStatus `json:"status"`
	Entries      []Entry   `json:"songs,omitempty"`
	DurationMs   int64     `json:"execution_time"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorKind    string    `json:"error_type,omitempty"`
}

// Failed builds a failed RunResult for the given source.
func Failed(sourceID, kind, message string, duration time.Duration) RunResult {
	return RunResult{
		SourceID:     sourceID,
		Status:       StatusFailed,
		DurationMs:   duration.Milliseconds(),
		ErrorMessage: message,
		ErrorKind:    kind,
	}
}

// SnapshotEntry is the simplified per-song view stored in the snapshot.
type SnapshotEntry struct {
	Rank       int       `json:"rank"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	ArtURL     string    `json:"album_art"`
	RankChange int       `json:"change"`
	Timestamp  time.Time `json:"timestamp"`
}

// Snapshot is the aggregated view of one whole run, keyed by source (or
// source plus chart-type suffix for multi-chart sources). It replaces the
// previous snapshot in the store on every run.
type Snapshot struct {
	CollectedAt time.Time                  `json:"collected_at"`
	BySourceKey map[string][]SnapshotEntry `json:"by_source_key"`
}

// LogRecord is one append-only audit row per source per run. RawEntries
// is attached only on success, for downstream diagnostics.
type LogRecord struct {
	SourceID     string    `json:"platform"`
	Status       RunStatus `json:"status"`
	DurationMs   int64     `json:"execution_time"`
	EntryCount   int       `json:"songs_found"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ErrorKind    string    `json:"error_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	RawEntries   []Entry   `json:"-"`
}

// ScheduleStatus mirrors the external scheduler's status record.
type ScheduleStatus struct {
	Enabled      bool       `json:"enabled"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	RunCount     int        `json:"run_count"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
}

// HealthMetrics is the derived operational view returned by the status
// endpoint. It is recomputed on every evaluation and never stored.
type HealthMetrics struct {
	Available        bool       `json:"available"`
	LastRunAt        *time.Time `json:"last_run_at,omitempty"`
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
	RecentErrorCount int        `json:"recent_error_count"`
	RunCount         int        `json:"run_count"`
	SuccessCount     int        `json:"success_count"`
	FailureCount     int        `json:"failure_count"`
}

// AlertKind enumerates health alert categories.
type AlertKind string

// Alert kinds raised by the health evaluator.
const (
	AlertSystemDown    AlertKind = "system-down"
	AlertHighErrorRate AlertKind = "high-error-rate"
	AlertLowSuccess    AlertKind = "low-success-rate"
	AlertCrawlerStuck  AlertKind = "crawler-stuck"
	AlertPlatformDown  AlertKind = "platform-down"
	AlertUsageWarning  AlertKind = "usage-warning"
	AlertUsageCritical AlertKind = "usage-critical"
)

// Severity ranks an alert.
type Severity string

// Alert severities, mildest first.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AlertContext carries the kind-dependent details of an alert.
type AlertContext struct {
	SourceID string  `json:"source_id,omitempty"`
	Resource string  `json:"resource,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Count    int     `json:"count,omitempty"`
}

// Alert is a structured, severity-tagged health signal. Alerts are
// ephemeral; persistence and delivery belong to the notification
// collaborator.
type Alert struct {
	Kind      AlertKind    `json:"kind"`
	Severity  Severity     `json:"severity"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Context   AlertContext `json:"context"`
	Timestamp time.Time    `json:"timestamp"`
}

// SourceOutcome is the per-source breakdown inside a RunSummary.
type SourceOutcome struct {
	SourceID     string    `json:"platform"`
	Status       RunStatus `json:"status"`
	EntryCount   int       `json:"songs_found"`
	DurationMs   int64     `json:"execution_time"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RunSummary is the structured result returned by the run-now entry
// point. A run never raises; unexpected failures surface here with
// Success=false.
type RunSummary struct {
	Success             bool            `json:"success"`
	RunID               string          `json:"run_id,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	ExecutionTimeMs     int64           `json:"execution_time"`
	CollectedAt         time.Time       `json:"timestamp"`
	PlatformsSuccessful int             `json:"platforms_successful"`
	PlatformsTotal      int             `json:"platforms_total"`
	TotalSongs          int             `json:"total_songs"`
	Results             []SourceOutcome `json:"results,omitempty"`
}
