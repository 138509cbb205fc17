// Package notify defines the combined outbound notification shape, the
// dispatcher backends that deliver it, and the idempotency ledger that is
// checked-and-set immediately before every dispatch so a repeated trigger
// on the same calendar day is a no-op.
//
// The engine is agnostic to how a notification is actually delivered;
// backends here cover a structured log (default), an AMQP queue, and a
// webhook POST.
package notify

import "time"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultQueue is the AMQP queue combined notifications are published to.
	DefaultQueue = "refill.notifications"

	// DefaultLedgerTTL bounds Redis ledger entries. Two days covers the
	// same-calendar-day dedup window with margin for timezone skew.
	DefaultLedgerTTL = 48 * time.Hour

	dispatchTimeout = 15 * time.Second
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Kind distinguishes the two combined notification kinds a user can
// receive in one run.
type Kind string

const (
	KindReorderDue  Kind = "reorder_due"
	KindRunOutToday Kind = "runout_today"
)

// Item is one prescription inside a combined notification.
type Item struct {
	PrescriptionID       string     `json:"prescription_id"`
	PrescriptionName     string     `json:"prescription_name"`
	RunOutDate           time.Time  `json:"run_out_date"`
	ReorderDate          *time.Time `json:"reorder_date,omitempty"`
	CurrentSupply        float64    `json:"current_supply"`
	UrgencyThresholdDays int        `json:"urgency_threshold_days,omitempty"`
}

// Notification is one combined per-user message: all of a user's
// prescriptions of the same kind, folded into a single dispatch call.
type Notification struct {
	Address     string    `json:"address"`
	DisplayName string    `json:"display_name,omitempty"`
	Kind        Kind      `json:"kind"`
	Day         time.Time `json:"day"`
	Items       []Item    `json:"items"`
}
