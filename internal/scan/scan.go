// Package scan implements the daily notification-decision scan.
//
// One run per trigger: enumerate prescription owners, forecast every
// prescription against the reference date, classify each into at most one
// decision, fold decisions into at most two combined notifications per
// user (reorder-due and run-out-today), and dispatch them after the
// idempotency ledger confirms nothing was already sent today.
//
// Per-user work is independent and runs on a worker pool; within one user
// every prescription is classified before any notification is assembled.
package scan

import (
	"fmt"
	"time"

	"github.com/dosewatch/dosewatch/internal/forecast"
	"github.com/dosewatch/dosewatch/internal/notify"
)

const defaultWorkers = 4

// Decision is the per-prescription classification result for one run.
// Created and consumed entirely within the run; never stored.
type Decision struct {
	PrescriptionID       string
	Kind                 notify.Kind
	UrgencyThresholdDays int // reorder-due only: the satisfied threshold
	Supply               forecast.SupplyInfo
}

// RunResult holds the counters reported once at the end of a run.
type RunResult struct {
	Day                  time.Time     `json:"day"`
	UsersFound           int           `json:"users_found"`
	UsersProcessed       int           `json:"users_processed"`
	UsersSkipped         int           `json:"users_skipped"`
	PrescriptionsScanned int           `json:"prescriptions_scanned"`
	MalformedRecords     int           `json:"malformed_records"`
	NotificationsSent    int           `json:"notifications_sent"`
	Errors               int           `json:"errors"`
	Duration             time.Duration `json:"duration"`
}

// Summary returns a human-readable one-line summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"day=%s users=%d processed=%d skipped=%d prescriptions=%d malformed=%d sent=%d errors=%d dur=%s",
		r.Day.Format("2006-01-02"), r.UsersFound, r.UsersProcessed, r.UsersSkipped,
		r.PrescriptionsScanned, r.MalformedRecords, r.NotificationsSent, r.Errors,
		r.Duration.Round(time.Millisecond))
}

// userStats accumulates one user's contribution to the run counters.
type userStats struct {
	processed     bool
	skipped       bool
	prescriptions int
	malformed     int
	sent          int
	errors        int
}

func (r *RunResult) merge(st userStats) {
	if st.processed {
		r.UsersProcessed++
	}
	if st.skipped {
		r.UsersSkipped++
	}
	r.PrescriptionsScanned += st.prescriptions
	r.MalformedRecords += st.malformed
	r.NotificationsSent += st.sent
	r.Errors += st.errors
}
