// Package forecast computes medication supply projections from a dosing
// rate and a replenishment history. Everything here is pure: the reference
// date is always an explicit parameter, never an ambient clock, so a scan
// for any calendar day is reproducible.
//
// All date comparisons are done on midnight-normalized values with
// whole-day granularity.
package forecast

import (
	"fmt"
	"math"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// ReorderBufferDays is subtracted from the run-out date to produce the
	// reorder date: the date by which a refill should be ordered.
	ReorderBufferDays = 10

	// DefaultThresholdDays is the reminder threshold applied when neither
	// the prescription nor the user settings configure one.
	DefaultThresholdDays = 10

	// NeverRunsOutDays is the DaysRemaining value for a zero or negative
	// daily dose. Large enough never to be reached by a real schedule.
	NeverRunsOutDays = 9999
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// DeliveryEvent is one logged replenishment of a prescription's supply.
type DeliveryEvent struct {
	Date     time.Time
	Quantity float64
}

// Prescription is the read-only view of a prescription record used by the
// forecaster and the scanner. Insertion order of SupplyLog is irrelevant;
// the log is always resummed.
type Prescription struct {
	ID              string
	UserID          string
	Name            string
	DailyDose       float64
	PackSize        int
	StartDate       time.Time
	StartSupply     float64
	SupplyLog       []DeliveryEvent
	EmailThresholds []int // empty = fall back to the user's defaults
}

// DeliveredOn reports whether any supply-log entry falls on the given
// calendar day.
func (p Prescription) DeliveredOn(day time.Time) bool {
	day = Midnight(day)
	for _, d := range p.SupplyLog {
		if SameDay(d.Date, day) {
			return true
		}
	}
	return false
}

// UserSettings holds the per-user notification defaults.
type UserSettings struct {
	DefaultEmailThresholds []int
}

// SupplyInfo is the derived forecast for one prescription on one reference
// date. It is recomputed fresh on every scan and never persisted.
type SupplyInfo struct {
	CurrentSupply float64   `json:"current_supply"`
	DaysRemaining int       `json:"days_remaining"`
	RunOutDate    time.Time `json:"run_out_date"`
	ReorderDate   time.Time `json:"reorder_date"`
}

// --------------------------------------------------------------------------
// Date helpers
// --------------------------------------------------------------------------

// Midnight truncates t to 00:00 in its own location, eliminating
// time-of-day noise from comparisons.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole number of calendar days from a to b.
// Negative when b precedes a. Both dates are re-anchored to UTC by their
// calendar components first, so a DST transition between them never
// shortens or stretches the count.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// --------------------------------------------------------------------------
// Forecast
// --------------------------------------------------------------------------

// Compute derives the current supply and the projected run-out/reorder
// dates for a prescription on the given reference date.
//
// A malformed record (missing start date, non-finite dose or quantity)
// yields a non-nil error together with the safe zero-state: zero supply,
// zero days remaining, both dates equal to today. Callers log the anomaly
// and keep scanning; one bad record never aborts a run.
func Compute(p Prescription, today time.Time) (SupplyInfo, error) {
	today = Midnight(today)
	zero := SupplyInfo{RunOutDate: today, ReorderDate: today}

	if p.StartDate.IsZero() {
		return zero, fmt.Errorf("prescription %s: missing start date", p.ID)
	}
	if !finite(p.DailyDose) {
		return zero, fmt.Errorf("prescription %s: non-numeric daily dose", p.ID)
	}
	if !finite(p.StartSupply) {
		return zero, fmt.Errorf("prescription %s: non-numeric start supply", p.ID)
	}

	totalAdded := p.StartSupply
	for _, d := range p.SupplyLog {
		if !finite(d.Quantity) {
			return zero, fmt.Errorf("prescription %s: non-numeric delivery quantity on %s",
				p.ID, d.Date.Format("2006-01-02"))
		}
		totalAdded += d.Quantity
	}

	// Future start dates never produce negative consumption.
	daysPassed := DaysBetween(p.StartDate, today)
	if daysPassed < 0 {
		daysPassed = 0
	}

	balance := totalAdded - float64(daysPassed)*p.DailyDose

	current := balance
	if current < 0 {
		current = 0
	}

	// A zero or undefined dose is treated as "never runs out". For a
	// positive dose the run-out offset comes from the unclamped balance:
	// a prescription exhausted days ago projects a run-out date that far
	// in the past, while CurrentSupply and DaysRemaining stay clamped.
	daysRemaining := NeverRunsOutDays
	runOutOffset := NeverRunsOutDays
	if p.DailyDose > 0 {
		runOutOffset = int(math.Floor(balance / p.DailyDose))
		daysRemaining = runOutOffset
		if daysRemaining < 0 {
			daysRemaining = 0
		}
	}

	runOut := today.AddDate(0, 0, runOutOffset)
	return SupplyInfo{
		CurrentSupply: current,
		DaysRemaining: daysRemaining,
		RunOutDate:    runOut,
		ReorderDate:   runOut.AddDate(0, 0, -ReorderBufferDays),
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
