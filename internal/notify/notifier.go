// Package notify delivers health alerts to operators. The log notifier
// is the development default; Pub/Sub carries alerts to the paging
// pipeline in production.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/dayone-labs/kchart-crawler/internal/chart"
)

// Notifier delivers one alert. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, alert chart.Alert) error
	Close() error
}

// LogNotifier writes alerts to the service log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, alert chart.Alert) error {
	fields := []zap.Field{
		zap.String("kind", string(alert.Kind)),
		zap.String("severity", string(alert.Severity)),
		zap.String("title", alert.Title),
		zap.String("message", alert.Message),
	}
	if alert.Context.SourceID != "" {
		fields = append(fields, zap.String("platform", alert.Context.SourceID))
	}
	if alert.Context.Resource != "" {
		fields = append(fields, zap.String("resource", alert.Context.Resource))
	}

	switch alert.Severity {
	case chart.SeverityCritical, chart.SeverityError:
		n.logger.Error("health alert", fields...)
	default:
		n.logger.Warn("health alert", fields...)
	}
	return nil
}

// Close implements Notifier.
func (n *LogNotifier) Close() error { return nil }
