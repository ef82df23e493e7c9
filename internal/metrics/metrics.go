// Package metrics exposes Prometheus collectors for the chart crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlRunsTotal             *prometheus.CounterVec
	platformCrawlsTotal        *prometheus.CounterVec
	platformCrawlDuration      *prometheus.HistogramVec
	songsCollected             *prometheus.GaugeVec
	runActive                  prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chart_crawl_runs_total",
				Help: "Total number of crawl runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		platformCrawlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chart_platform_crawls_total",
				Help: "Total per-platform crawl attempts, labeled by platform and status.",
			},
			[]string{"platform", "status"},
		)

		platformCrawlDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chart_platform_crawl_duration_seconds",
				Help:    "Histogram of per-platform crawl durations.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"platform"},
		)

		songsCollected = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chart_songs_collected",
				Help: "Number of songs collected in the most recent run, labeled by platform.",
			},
			[]string{"platform"},
		)

		runActive = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chart_crawl_run_active",
				Help: "Whether a crawl run is currently in progress.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun increments the run counter for the given outcome.
func ObserveRun(status string) {
	crawlRunsTotal.WithLabelValues(status).Inc()
}

// ObservePlatformCrawl records the outcome of one platform crawl.
func ObservePlatformCrawl(platform, status string, songs int, duration time.Duration) {
	platformCrawlsTotal.WithLabelValues(platform, status).Inc()
	platformCrawlDuration.WithLabelValues(platform).Observe(duration.Seconds())
	songsCollected.WithLabelValues(platform).Set(float64(songs))
}

// SetRunActive flips the in-progress gauge.
func SetRunActive(active bool) {
	if active {
		runActive.Set(1)
		return
	}
	runActive.Set(0)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
