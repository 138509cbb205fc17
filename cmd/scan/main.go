// Command scan is the Dosewatch scan CLI.
//
// Usage:
//
//	dosewatch-scan run
//	dosewatch-scan run --date 2026-03-15 --dry-run
//	dosewatch-scan forecast --id rx-123
//	dosewatch-scan ledger purge --keep-days 30
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dosewatch/dosewatch/internal/app"
	"github.com/dosewatch/dosewatch/internal/config"
	"github.com/dosewatch/dosewatch/internal/db"
	"github.com/dosewatch/dosewatch/internal/forecast"
	"github.com/dosewatch/dosewatch/internal/notify"
	"github.com/dosewatch/dosewatch/internal/scan"
	"github.com/dosewatch/dosewatch/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "dosewatch-scan",
		Short: "Dosewatch refill scan CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(forecastCmd())
	root.AddCommand(ledgerCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		date    string
		workers int
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one notification scan for a calendar day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, err := time.LoadLocation(cfg.ScanTimezone)
				if err != nil {
					return fmt.Errorf("load timezone: %w", err)
				}
				today, err := refDate(date, loc)
				if err != nil {
					return err
				}

				var dispatcher notify.Dispatcher
				var ledger notify.Ledger
				if dryRun {
					// Log what would be sent without touching the shared ledger
					dispatcher = notify.NewLogDispatcher(logger)
					ledger = notify.NewMemoryLedger()
					logger.Info("Dry run: decisions are logged, not dispatched")
				} else {
					dispatcher = app.NewDispatcher(cfg, logger)
					var closeLedger func()
					ledger, closeLedger, err = app.NewLedger(cfg, pool)
					if err != nil {
						return fmt.Errorf("initialize ledger: %w", err)
					}
					if closeLedger != nil {
						defer closeLedger()
					}
				}

				if workers > 0 {
					cfg.ScanWorkers = workers
				}

				st := store.New(pool.Pool)
				resolver := app.NewContactResolver(cfg, pool, logger)
				scanner := scan.New(st, resolver, dispatcher, ledger, cfg.ScanWorkers, logger)

				start := time.Now()
				result, err := scanner.Run(ctx, today)
				if err != nil {
					return fmt.Errorf("scan: %w", err)
				}
				logger.Info("Scan finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Calendar day to scan (YYYY-MM-DD); empty = today")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent worker count; 0 = SCAN_WORKERS")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log decisions without dispatching or claiming the ledger")
	return cmd
}

// --------------------------------------------------------------------------
// forecast command
// --------------------------------------------------------------------------

func forecastCmd() *cobra.Command {
	var (
		id   string
		date string
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the supply forecast for one prescription",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			return withDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				loc, err := time.LoadLocation(cfg.ScanTimezone)
				if err != nil {
					return fmt.Errorf("load timezone: %w", err)
				}
				today, err := refDate(date, loc)
				if err != nil {
					return err
				}

				st := store.New(pool.Pool)
				p, err := st.PrescriptionByID(ctx, id)
				if err != nil {
					return fmt.Errorf("load prescription: %w", err)
				}

				info, err := forecast.Compute(p, today)
				if err != nil {
					return fmt.Errorf("forecast %s: %w", p.ID, err)
				}

				out, _ := json.MarshalIndent(map[string]interface{}{
					"prescription_id":   p.ID,
					"prescription_name": p.Name,
					"date":              forecast.Midnight(today).Format("2006-01-02"),
					"supply":            info,
				}, "", "  ")
				fmt.Println(string(out))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Prescription ID")
	cmd.Flags().StringVar(&date, "date", "", "Reference date (YYYY-MM-DD); empty = today")
	return cmd
}

// --------------------------------------------------------------------------
// ledger command
// --------------------------------------------------------------------------

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Maintain the idempotency ledger",
	}
	cmd.AddCommand(ledgerPurgeCmd())
	return cmd
}

func ledgerPurgeCmd() *cobra.Command {
	var keepDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete ledger entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				removed, err := notify.NewPGLedger(pool.Pool).Purge(ctx, keepDays)
				if err != nil {
					return fmt.Errorf("purge ledger: %w", err)
				}
				logger.Info("Ledger purged", "keep_days", keepDays, "removed", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keepDays, "keep-days", 30, "Keep entries newer than this many days")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withDB handles config loading, DB connection, and context cancellation.
func withDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// refDate parses --date or falls back to the current time in loc.
func refDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
