// Package schedule fires the daily scan at a fixed local hour. One logical
// run per trigger; the idempotency ledger makes an accidental double
// trigger harmless.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Runner executes one scan for the given reference date.
type Runner func(ctx context.Context, today time.Time)

// NextRun returns the next occurrence of hour o'clock in loc strictly
// after now.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start blocks until ctx is cancelled, invoking run once per day at the
// configured hour. Intended to be called with `go`.
func Start(ctx context.Context, hour int, loc *time.Location, run Runner, logger *slog.Logger) {
	logger.Info("Daily scan trigger started", "hour", hour, "timezone", loc.String())

	for {
		next := NextRun(time.Now(), hour, loc)
		logger.Info("Next scan scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case fired := <-timer.C:
			run(ctx, fired.In(loc))
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Daily scan trigger stopped")
			return
		}
	}
}
