// Package store provides read-only pgx access to prescriptions, their
// delivery logs, and user settings. The scan engine never writes through
// this package; the idempotency ledger lives in internal/notify.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosewatch/dosewatch/internal/forecast"
)

// ErrNotFound is returned when a prescription ID does not exist.
var ErrNotFound = errors.New("store: prescription not found")

// Store reads prescription data through prepared statements registered on
// the pool (see internal/db).
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store over the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListUserIDs enumerates the distinct owners of all prescriptions.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "scan_user_ids")
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PrescriptionsByUser returns one user's prescriptions with their delivery
// logs attached.
func (s *Store) PrescriptionsByUser(ctx context.Context, userID string) ([]forecast.Prescription, error) {
	rows, err := s.pool.Query(ctx, "prescriptions_by_user", userID)
	if err != nil {
		return nil, fmt.Errorf("prescriptions for user %s: %w", userID, err)
	}
	prescriptions, err := collectPrescriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("prescriptions for user %s: %w", userID, err)
	}

	if err := s.attachDeliveries(ctx, "deliveries_by_user", userID, prescriptions); err != nil {
		return nil, fmt.Errorf("deliveries for user %s: %w", userID, err)
	}
	return prescriptions, nil
}

// PrescriptionByID returns a single prescription with its delivery log.
func (s *Store) PrescriptionByID(ctx context.Context, id string) (forecast.Prescription, error) {
	rows, err := s.pool.Query(ctx, "prescription_by_id", id)
	if err != nil {
		return forecast.Prescription{}, fmt.Errorf("prescription %s: %w", id, err)
	}
	prescriptions, err := collectPrescriptions(rows)
	if err != nil {
		return forecast.Prescription{}, fmt.Errorf("prescription %s: %w", id, err)
	}
	if len(prescriptions) == 0 {
		return forecast.Prescription{}, ErrNotFound
	}

	if err := s.attachDeliveries(ctx, "deliveries_by_prescription", id, prescriptions); err != nil {
		return forecast.Prescription{}, fmt.Errorf("deliveries for prescription %s: %w", id, err)
	}
	return prescriptions[0], nil
}

// SettingsByUser returns the user's notification settings. A user without
// a settings row yields the zero value; downstream resolution falls back
// to the hardcoded default threshold.
func (s *Store) SettingsByUser(ctx context.Context, userID string) (forecast.UserSettings, error) {
	var raw []int32
	err := s.pool.QueryRow(ctx, "settings_by_user", userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return forecast.UserSettings{}, nil
	}
	if err != nil {
		return forecast.UserSettings{}, fmt.Errorf("settings for user %s: %w", userID, err)
	}
	return forecast.UserSettings{DefaultEmailThresholds: toInts(raw)}, nil
}

// --------------------------------------------------------------------------
// Row mapping
// --------------------------------------------------------------------------

func collectPrescriptions(rows pgx.Rows) ([]forecast.Prescription, error) {
	defer rows.Close()

	var out []forecast.Prescription
	for rows.Next() {
		var (
			p          forecast.Prescription
			packSize   *int32
			thresholds []int32
		)
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.DailyDose,
			&packSize, &p.StartDate, &p.StartSupply, &thresholds,
		); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		if packSize != nil {
			p.PackSize = int(*packSize)
		}
		p.EmailThresholds = toInts(thresholds)
		out = append(out, p)
	}
	return out, rows.Err()
}

// attachDeliveries loads delivery rows via the named statement and fans
// them out onto the matching prescriptions.
func (s *Store) attachDeliveries(ctx context.Context, stmt, arg string, prescriptions []forecast.Prescription) error {
	if len(prescriptions) == 0 {
		return nil
	}

	rows, err := s.pool.Query(ctx, stmt, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[string]*forecast.Prescription, len(prescriptions))
	for i := range prescriptions {
		byID[prescriptions[i].ID] = &prescriptions[i]
	}

	for rows.Next() {
		var (
			prescriptionID string
			deliveredOn    time.Time
			quantity       float64
		)
		if err := rows.Scan(&prescriptionID, &deliveredOn, &quantity); err != nil {
			return fmt.Errorf("scan delivery: %w", err)
		}
		if p, ok := byID[prescriptionID]; ok {
			p.SupplyLog = append(p.SupplyLog, forecast.DeliveryEvent{
				Date:     deliveredOn,
				Quantity: quantity,
			})
		}
	}
	return rows.Err()
}

func toInts(raw []int32) []int {
	if len(raw) == 0 {
		return nil
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = int(v)
	}
	return out
}
