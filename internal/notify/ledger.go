package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger is the cross-run dedup record. Claim is a check-and-set: it
// returns true exactly once per (prescription, calendar day, kind) triple,
// so a scheduler that fires twice in one day sends nothing the second time.
type Ledger interface {
	Claim(ctx context.Context, prescriptionID string, day time.Time, kind Kind) (bool, error)
}

// --------------------------------------------------------------------------
// Postgres ledger
// --------------------------------------------------------------------------

// PGLedger stores claims in the notification_ledger table. The unique key
// on (prescription_id, calendar_day, kind) makes the insert the atomic
// check-and-set.
type PGLedger struct {
	pool *pgxpool.Pool
}

// NewPGLedger creates a Postgres-backed ledger.
func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

// Claim inserts the triple; a conflict means it was already sent today.
func (l *PGLedger) Claim(ctx context.Context, prescriptionID string, day time.Time, kind Kind) (bool, error) {
	tag, err := l.pool.Exec(ctx, `
		INSERT INTO notification_ledger (prescription_id, calendar_day, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		prescriptionID, day.Format("2006-01-02"), string(kind))
	if err != nil {
		return false, fmt.Errorf("claim ledger entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Purge deletes ledger rows older than keepDays and returns the number of
// rows removed. Retention sweep; the dedup window itself is one day.
func (l *PGLedger) Purge(ctx context.Context, keepDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays).Format("2006-01-02")
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM notification_ledger WHERE calendar_day < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// In-memory ledger
// --------------------------------------------------------------------------

// MemoryLedger keeps claims in a process-local map. Used by tests and by
// dry-run scans, where claims must not outlive the process.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[string]struct{})}
}

// Claim records the triple and reports whether it was new.
func (l *MemoryLedger) Claim(ctx context.Context, prescriptionID string, day time.Time, kind Kind) (bool, error) {
	key := ledgerKey(prescriptionID, day, kind)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.claimed[key]; dup {
		return false, nil
	}
	l.claimed[key] = struct{}{}
	return true, nil
}

func ledgerKey(prescriptionID string, day time.Time, kind Kind) string {
	return prescriptionID + "|" + day.Format("2006-01-02") + "|" + string(kind)
}
