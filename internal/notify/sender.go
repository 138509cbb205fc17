package notify

import (
	"context"
	"log/slog"
)

// Dispatcher delivers one combined notification. Implementations must be
// safe for concurrent use; the scanner calls Dispatch from its per-user
// workers.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// LogDispatcher is the default backend: it records each would-be send as a
// structured log line. Useful for development and as the dry-run sink.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the notification and reports success.
func (d *LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	d.logger.Info("Notification dispatched (log backend)",
		"address", n.Address,
		"kind", string(n.Kind),
		"items", len(n.Items))
	return nil
}
