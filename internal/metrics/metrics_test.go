package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if crawlRunsTotal == nil || platformCrawlsTotal == nil ||
		platformCrawlDuration == nil || songsCollected == nil ||
		runActive == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveRun("success")
	if val := testutil.ToFloat64(crawlRunsTotal.WithLabelValues("success")); val != 1 {
		t.Errorf("Expected crawlRunsTotal{success} to be 1, got %f", val)
	}

	ObservePlatformCrawl("melon", "success", 500, 2*time.Second)
	if val := testutil.ToFloat64(songsCollected.WithLabelValues("melon")); val != 500 {
		t.Errorf("Expected songsCollected{melon} to be 500, got %f", val)
	}

	SetRunActive(true)
	if val := testutil.ToFloat64(runActive); val != 1 {
		t.Errorf("Expected runActive to be 1, got %f", val)
	}
	SetRunActive(false)
	if val := testutil.ToFloat64(runActive); val != 0 {
		t.Errorf("Expected runActive to be 0, got %f", val)
	}
}
