// Package api exposes the HTTP interface for the chart crawler.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
	"github.com/dayone-labs/kchart-crawler/internal/clock"
	"github.com/dayone-labs/kchart-crawler/internal/config"
	"github.com/dayone-labs/kchart-crawler/internal/health"
	"github.com/dayone-labs/kchart-crawler/internal/metrics"
	"github.com/dayone-labs/kchart-crawler/internal/notify"
	"github.com/dayone-labs/kchart-crawler/internal/run"
	"github.com/dayone-labs/kchart-crawler/internal/store"
)

// Runner triggers one full crawl.
type Runner interface {
	RunNow(ctx context.Context) chart.RunSummary
}

// Server wires HTTP handlers to the run service, the store, and the
// health pipeline.
type Server struct {
	router   chi.Router
	runner   Runner
	store    store.Store
	notifier notify.Notifier
	logger   *zap.Logger
	clock    clock.Clock
	cfg      config.Config
	usage    []health.Usage
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	runner Runner,
	st store.Store,
	notifier notify.Notifier,
	logger *zap.Logger,
	clk clock.Clock,
	cfg config.Config,
	usage []health.Usage,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	s := &Server{
		runner:   runner,
		store:    st,
		notifier: notifier,
		logger:   logger,
		clock:    clk,
		cfg:      cfg,
		usage:    usage,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(90 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/crawler", func(r chi.Router) {
			r.Post("/run", s.runNow)
			r.Get("/status", s.status)
		})
		r.Get("/chart/snapshot", s.snapshot)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.RecentLogs(r.Context(), 1); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) runNow(w http.ResponseWriter, r *http.Request) {
	summary := s.runner.RunNow(r.Context())
	if !summary.Success && summary.ErrorMessage == "run already in progress" {
		s.writeJSON(w, http.StatusConflict, summary)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

type statusResponse struct {
	Success     bool                  `json:"success"`
	Timestamp   time.Time             `json:"timestamp"`
	System      chart.HealthMetrics   `json:"system"`
	Performance performanceStats      `json:"performance"`
	Platforms   []platformStats       `json:"platforms"`
	RecentLogs  []chart.LogRecord     `json:"recent_logs"`
	Alerts      []chart.Alert         `json:"alerts"`
	Schedule    *chart.ScheduleStatus `json:"schedule,omitempty"`
}

type performanceStats struct {
	TotalRuns    int `json:"total_runs"`
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
	SuccessRate  int `json:"success_rate"`
}

type platformStats struct {
	Name        string `json:"name"`
	Total       int    `json:"total"`
	Success     int    `json:"success"`
	Failed      int    `json:"failed"`
	SuccessRate int    `json:"success_rate"`
}

// status reports derived health. Raised alerts are dispatched to the
// notifier in the background; delivery problems never fail the request.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now()

	logs, err := s.store.RecentLogs(r.Context(), s.cfg.Health.LogWindow)
	if err != nil {
		s.logger.Error("failed to load recent logs", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to fetch crawler status")
		return
	}

	var schedule *chart.ScheduleStatus
	if sched, err := s.store.ScheduleStatus(r.Context(), store.CronJobName); err == nil {
		schedule = &sched
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("failed to load schedule status", zap.Error(err))
	}

	alerts, healthMetrics := health.Evaluate(logs, schedule, s.usage, now)
	s.dispatchAlerts(alerts)

	resp := statusResponse{
		Success:     true,
		Timestamp:   now,
		System:      healthMetrics,
		Performance: performance(healthMetrics),
		Platforms:   platformBreakdown(logs),
		RecentLogs:  logs,
		Alerts:      alerts,
		Schedule:    schedule,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(r.Context(), run.SnapshotKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "no chart snapshot available")
			return
		}
		s.logger.Error("failed to load snapshot", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to fetch chart snapshot")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// dispatchAlerts hands raised alerts to the notifier without holding
// the request open. Each delivery gets its own deadline and failures
// are logged.
func (s *Server) dispatchAlerts(alerts []chart.Alert) {
	if s.notifier == nil || len(alerts) == 0 {
		return
	}
	go func(alerts []chart.Alert) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, alert := range alerts {
			if err := s.notifier.Notify(ctx, alert); err != nil {
				s.logger.Error("failed to deliver alert",
					zap.String("kind", string(alert.Kind)),
					zap.Error(err),
				)
			}
		}
	}(alerts)
}

func performance(m chart.HealthMetrics) performanceStats {
	stats := performanceStats{
		TotalRuns:    m.RunCount,
		SuccessCount: m.SuccessCount,
		FailureCount: m.FailureCount,
	}
	if m.RunCount > 0 {
		stats.SuccessRate = int(float64(m.SuccessCount)/float64(m.RunCount)*100 + 0.5)
	}
	return stats
}

func platformBreakdown(logs []chart.LogRecord) []platformStats {
	index := make(map[string]int)
	var out []platformStats
	for _, rec := range logs {
		i, ok := index[rec.SourceID]
		if !ok {
			i = len(out)
			index[rec.SourceID] = i
			out = append(out, platformStats{Name: rec.SourceID})
		}
		out[i].Total++
		if rec.Status == chart.StatusSuccess {
			out[i].Success++
		} else {
			out[i].Failed++
		}
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].SuccessRate = int(float64(out[i].Success)/float64(out[i].Total)*100 + 0.5)
		}
	}
	return out
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, time.Since(start))
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
