package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/api"
)

// newServeCmd creates the 'serve' subcommand: the long-running HTTP
// service exposing run, status, and snapshot endpoints.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the crawler HTTP API",
		Long: `Starts the HTTP service. POST /v1/crawler/run triggers a crawl,
GET /v1/crawler/status reports derived health and recent logs, and
GET /v1/chart/snapshot returns the latest aggregated chart data.`,

		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger

	server := api.NewServer(
		appInstance.Runner,
		appInstance.Store,
		appInstance.Notifier,
		logger.Named("api"),
		appInstance.Clock,
		appInstance.Config,
		appInstance.Usage,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", appInstance.Config.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http server started", zap.Int("port", appInstance.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}
