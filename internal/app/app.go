// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/archive"
	"github.com/dayone-labs/kchart-crawler/internal/clock"
	"github.com/dayone-labs/kchart-crawler/internal/config"
	"github.com/dayone-labs/kchart-crawler/internal/fetch"
	"github.com/dayone-labs/kchart-crawler/internal/health"
	"github.com/dayone-labs/kchart-crawler/internal/logging"
	"github.com/dayone-labs/kchart-crawler/internal/metrics"
	"github.com/dayone-labs/kchart-crawler/internal/notify"
	"github.com/dayone-labs/kchart-crawler/internal/run"
	"github.com/dayone-labs/kchart-crawler/internal/source"
	"github.com/dayone-labs/kchart-crawler/internal/store"
)

// App holds the shared, long-lived services for the crawler. It is
// built once at startup and handed to the commands that need it.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    store.Store
	Notifier notify.Notifier
	Archive  archive.Provider
	Runner   *run.Service
	Usage    []health.Usage
	Clock    clock.Clock
}

// New builds the full service graph from configuration. It fails fast
// when any backing service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	metrics.Init()

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	archiver, err := newArchive(ctx, cfg, logger)
	if err != nil {
		st.Close()
		_ = notifier.Close()
		return nil, err
	}

	clk := clock.System{}
	fetcher := fetch.New(fetch.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.SourceTimeout(),
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
	})

	deps := source.Deps{
		Fetcher: fetcher,
		Logger:  logger,
		Clock:   clk,
		Pages:   pageSink(archiver, cfg.Archive.Prefix, logger, clk),
	}
	adapters := []source.Adapter{
		source.NewMelon(deps),
		source.NewGenie(deps, ""),
		source.NewDeclared(deps, "bugs", ""),
		source.NewDeclared(deps, "vibe", ""),
		source.NewDeclared(deps, "flo", ""),
	}

	orchestrator := run.NewOrchestrator(adapters, cfg.SourceTimeout(), logger)
	runner := run.NewService(orchestrator, st, logger, clk, cfg.RunBudget())

	usage := make([]health.Usage, 0, len(cfg.Usage))
	for _, u := range cfg.Usage {
		usage = append(usage, health.Usage{Name: u.Name, Used: u.Used, Limit: u.Limit})
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Notifier: notifier,
		Archive:  archiver,
		Runner:   runner,
		Usage:    usage,
		Clock:    clk,
	}, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Provider {
	case "postgres":
		logger.Info("connecting to PostgreSQL")
		st, err := store.NewPostgres(ctx, cfg.Store.Postgres.DSN, cfg.Store.Postgres.MaxConns, cfg.Store.Postgres.MinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		return st, nil
	case "memory":
		logger.Info("using in-memory store, crawl results will not survive restarts")
		return store.NewMemory(), nil
	case "noop":
		logger.Info("persistence disabled, crawl results will be discarded")
		return store.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Store.Provider)
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Notifier, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("connecting to GCP Pub/Sub", zap.String("topic", cfg.Notify.PubSub.TopicID))
		n, err := notify.NewPubSubNotifier(ctx, cfg.Notify.PubSub.ProjectID, cfg.Notify.PubSub.TopicID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize notifier: %w", err)
		}
		return n, nil
	case "log":
		return notify.NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}

func newArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive.Provider, error) {
	switch cfg.Archive.Provider {
	case "gcs":
		logger.Info("archiving raw pages to GCS", zap.String("bucket", cfg.Archive.Bucket))
		a, err := archive.NewGCS(ctx, cfg.Archive.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		return a, nil
	case "local":
		a, err := archive.NewLocal(cfg.Archive.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		return a, nil
	case "noop":
		return archive.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Archive.Provider)
	}
}

// pageSink archives raw pages in the background so a slow archive
// backend never delays a crawl.
func pageSink(archiver archive.Provider, prefix string, logger *zap.Logger, clk clock.Clock) source.PageSink {
	if _, ok := archiver.(archive.NoOp); ok {
		return nil
	}
	return func(sourceID, label string, body []byte) {
		data := append([]byte(nil), body...)
		objectPath := path.Join(prefix, sourceID, fmt.Sprintf("%s-%s.html", label, clk.Now().UTC().Format("20060102T150405Z")))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			uri, err := archiver.Put(ctx, objectPath, "text/html", data)
			if err != nil {
				logger.Warn("failed to archive page",
					zap.String("platform", sourceID),
					zap.String("path", objectPath),
					zap.Error(err),
				)
				return
			}
			logger.Debug("archived page", zap.String("uri", uri))
		}()
	}
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	a.Logger.Info("shutting down application services")
	a.Store.Close()
	if err := a.Notifier.Close(); err != nil {
		a.Logger.Warn("error closing notifier", zap.Error(err))
	}
	if err := a.Archive.Close(); err != nil {
		a.Logger.Warn("error closing archive", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
