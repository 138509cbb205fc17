package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dosewatch/dosewatch/internal/contact"
	"github.com/dosewatch/dosewatch/internal/forecast"
	"github.com/dosewatch/dosewatch/internal/notify"
)

// Store is the read-only prescription store the scanner consumes. The
// engine never writes through it.
type Store interface {
	// ListUserIDs enumerates the owners of all prescriptions.
	ListUserIDs(ctx context.Context) ([]string, error)
	// PrescriptionsByUser returns one user's prescriptions with their
	// delivery logs attached.
	PrescriptionsByUser(ctx context.Context, userID string) ([]forecast.Prescription, error)
	// SettingsByUser returns the user's notification settings; a user with
	// no settings document yields the zero value, not an error.
	SettingsByUser(ctx context.Context, userID string) (forecast.UserSettings, error)
}

// ContactResolver maps a user identity to a deliverable contact or
// signals contact.ErrNotResolvable.
type ContactResolver interface {
	Resolve(ctx context.Context, userID string) (contact.Contact, error)
}

// Scanner is the daily batch engine. All collaborators are injected; the
// scanner holds no ambient state.
type Scanner struct {
	store      Store
	contacts   ContactResolver
	dispatcher notify.Dispatcher
	ledger     notify.Ledger
	workers    int
	logger     *slog.Logger
}

// New creates a scanner. workers < 1 falls back to the default pool size.
func New(store Store, contacts ContactResolver, dispatcher notify.Dispatcher, ledger notify.Ledger, workers int, logger *slog.Logger) *Scanner {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Scanner{
		store:      store,
		contacts:   contacts,
		dispatcher: dispatcher,
		ledger:     ledger,
		workers:    workers,
		logger:     logger,
	}
}

// Run executes one scan for the given reference date. Only a failure to
// enumerate users aborts the run; every per-user failure is logged,
// counted, and isolated.
func (s *Scanner) Run(ctx context.Context, today time.Time) (RunResult, error) {
	start := time.Now()
	today = forecast.Midnight(today)
	result := RunResult{Day: today}

	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("enumerate users: %w", err)
	}
	result.UsersFound = len(userIDs)
	if len(userIDs) == 0 {
		s.logger.Info("No prescription owners to scan", "day", today.Format("2006-01-02"))
		result.Duration = time.Since(start)
		return result, nil
	}

	workers := s.workers
	if workers > len(userIDs) {
		workers = len(userIDs)
	}

	ch := make(chan string, len(userIDs))
	for _, id := range userIDs {
		ch <- id
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range ch {
				st := s.scanUser(ctx, userID, today)
				mu.Lock()
				result.merge(st)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	result.Duration = time.Since(start)
	s.logger.Info("Scan run complete", "summary", result.Summary())
	return result, nil
}

// scanUser forecasts and classifies one user's prescriptions, then
// assembles and dispatches the combined notifications. All prescriptions
// are classified before anything is dispatched.
func (s *Scanner) scanUser(ctx context.Context, userID string, today time.Time) userStats {
	var st userStats

	c, err := s.contacts.Resolve(ctx, userID)
	if err != nil {
		s.logger.Info("Skipping user without deliverable contact",
			"user_id", userID, "error", err)
		st.skipped = true
		return st
	}

	settings, err := s.store.SettingsByUser(ctx, userID)
	if err != nil {
		// Settings read failure falls back to the hardcoded default.
		s.logger.Warn("Failed to load user settings, using defaults",
			"user_id", userID, "error", err)
		settings = forecast.UserSettings{}
	}

	prescriptions, err := s.store.PrescriptionsByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load prescriptions, skipping user",
			"user_id", userID, "error", err)
		st.errors++
		return st
	}

	var reorder, runout []notify.Item
	for _, p := range prescriptions {
		st.prescriptions++

		info, err := forecast.Compute(p, today)
		if err != nil {
			s.logger.Warn("Malformed prescription record",
				"user_id", userID, "prescription_id", p.ID, "error", err)
			st.malformed++
			continue
		}

		thresholds := forecast.ResolveThresholds(p, settings)
		d, ok := Classify(p, info, thresholds, today)
		if !ok {
			continue
		}

		item := notify.Item{
			PrescriptionID:   d.PrescriptionID,
			PrescriptionName: p.Name,
			RunOutDate:       d.Supply.RunOutDate,
			CurrentSupply:    d.Supply.CurrentSupply,
		}
		switch d.Kind {
		case notify.KindRunOutToday:
			runout = append(runout, item)
		case notify.KindReorderDue:
			reorderDate := d.Supply.ReorderDate
			item.ReorderDate = &reorderDate
			item.UrgencyThresholdDays = d.UrgencyThresholdDays
			reorder = append(reorder, item)
		}
	}
	st.processed = true

	s.dispatchCombined(ctx, &st, c, notify.KindReorderDue, reorder, today)
	s.dispatchCombined(ctx, &st, c, notify.KindRunOutToday, runout, today)
	return st
}

// dispatchCombined claims the ledger for each item and sends one combined
// notification for whatever remains unclaimed. A ledger read failure fails
// open: a duplicate reminder beats a silently missed run-out alert.
func (s *Scanner) dispatchCombined(ctx context.Context, st *userStats, c contact.Contact, kind notify.Kind, items []notify.Item, today time.Time) {
	if len(items) == 0 {
		return
	}

	fresh := items[:0]
	for _, item := range items {
		claimed, err := s.ledger.Claim(ctx, item.PrescriptionID, today, kind)
		if err != nil {
			s.logger.Warn("Ledger claim failed, sending anyway",
				"prescription_id", item.PrescriptionID, "kind", string(kind), "error", err)
			claimed = true
		}
		if claimed {
			fresh = append(fresh, item)
		}
	}
	if len(fresh) == 0 {
		// Everything was already sent today; repeated trigger is a no-op.
		return
	}

	n := notify.Notification{
		Address:     c.Address,
		DisplayName: c.DisplayName,
		Kind:        kind,
		Day:         today,
		Items:       fresh,
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.Warn("Dispatch failed",
			"address", c.Address, "kind", string(kind), "error", err)
		st.errors++
		return
	}
	st.sent++
}
