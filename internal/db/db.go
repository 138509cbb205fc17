// Package db provides a pgxpool-based connection pool with prepared
// statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosewatch/dosewatch/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers every statement the scan engine,
// the contact resolver, and the API use. Prepared statements eliminate
// parse overhead on the per-user queries the daily scan issues in bulk.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Scan: user enumeration (storage-agnostic cross-user listing)
		"scan_user_ids": "SELECT DISTINCT user_id FROM prescriptions ORDER BY user_id",

		// Scan: prescriptions and delivery logs
		"prescriptions_by_user": `
			SELECT id, user_id, name, daily_dose, pack_size, start_date, start_supply, email_thresholds
			FROM prescriptions
			WHERE user_id = $1
			ORDER BY name, id`,
		"prescription_by_id": `
			SELECT id, user_id, name, daily_dose, pack_size, start_date, start_supply, email_thresholds
			FROM prescriptions
			WHERE id = $1`,
		"deliveries_by_user": `
			SELECT d.prescription_id, d.delivered_on, d.quantity
			FROM supply_deliveries d
			JOIN prescriptions p ON p.id = d.prescription_id
			WHERE p.user_id = $1`,
		"deliveries_by_prescription": `
			SELECT prescription_id, delivered_on, quantity
			FROM supply_deliveries
			WHERE prescription_id = $1`,

		// Scan: user settings
		"settings_by_user": "SELECT default_email_thresholds FROM user_settings WHERE user_id = $1",

		// Contact: user-document fallback strategy
		"contact_by_user": `
			SELECT email, COALESCE(display_name, '')
			FROM users
			WHERE id = $1 AND email IS NOT NULL AND email <> ''`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
