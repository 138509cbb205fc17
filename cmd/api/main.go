// Command api is the Dosewatch refill API server.
//
// Usage:
//
//	dosewatch-api
//	API_PORT=8080 dosewatch-api

// @title Dosewatch Refill API
// @version 1.0.0
// @description Medication supply forecasting and daily refill-reminder scan. Exposes on-demand forecasts, an external-scheduler scan trigger, and the last run summary.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Dosewatch
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/dosewatch/dosewatch/internal/api"
	"github.com/dosewatch/dosewatch/internal/api/handler"
	"github.com/dosewatch/dosewatch/internal/app"
	"github.com/dosewatch/dosewatch/internal/config"
	"github.com/dosewatch/dosewatch/internal/db"
	"github.com/dosewatch/dosewatch/internal/scan"
	"github.com/dosewatch/dosewatch/internal/schedule"
	"github.com/dosewatch/dosewatch/internal/store"

	_ "github.com/dosewatch/dosewatch/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Assemble the scan pipeline
	st := store.New(pool.Pool)

	dispatcher := app.NewDispatcher(cfg, logger)
	ledger, closeLedger, err := app.NewLedger(cfg, pool)
	if err != nil {
		logger.Error("Failed to initialize ledger", "backend", cfg.LedgerBackend, "error", err)
		os.Exit(1)
	}
	if closeLedger != nil {
		defer closeLedger()
	}
	logger.Info("Notification pipeline configured",
		"dispatch", cfg.DispatchBackend,
		"ledger", cfg.LedgerBackend)

	resolver := app.NewContactResolver(cfg, pool, logger)
	scanner := scan.New(st, resolver, dispatcher, ledger, cfg.ScanWorkers, logger)

	loc, err := time.LoadLocation(cfg.ScanTimezone)
	if err != nil {
		logger.Error("Invalid SCAN_TIMEZONE", "timezone", cfg.ScanTimezone, "error", err)
		os.Exit(1)
	}

	h := handler.New(pool, st, scanner, cfg, loc)

	// In-process daily trigger; SCAN_HOUR=-1 defers to an external scheduler
	if cfg.ScanHour >= 0 {
		go schedule.Start(ctx, cfg.ScanHour, loc, func(ctx context.Context, today time.Time) {
			result, err := scanner.Run(ctx, today)
			if err != nil {
				logger.Error("Scheduled scan failed", "error", err)
				return
			}
			h.RecordRun(result)
			logger.Info("Scheduled scan complete", "summary", result.Summary())
		}, logger)
	} else {
		logger.Info("In-process daily trigger disabled (SCAN_HOUR=-1)")
	}

	// Create router
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Dosewatch Refill API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
