// Package handler provides HTTP handlers for all API endpoints: health
// checks, the external-scheduler scan trigger, the last-run summary, and
// on-demand supply forecasts.
package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/dosewatch/dosewatch/internal/api/respond"
	"github.com/dosewatch/dosewatch/internal/config"
	"github.com/dosewatch/dosewatch/internal/db"
	"github.com/dosewatch/dosewatch/internal/scan"
	"github.com/dosewatch/dosewatch/internal/store"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool    *db.Pool
	store   *store.Store
	scanner *scan.Scanner
	cfg     *config.Config
	loc     *time.Location

	mu      sync.Mutex
	lastRun *scan.RunResult
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, st *store.Store, scanner *scan.Scanner, cfg *config.Config, loc *time.Location) *Handler {
	return &Handler{
		pool:    pool,
		store:   st,
		scanner: scanner,
		cfg:     cfg,
		loc:     loc,
	}
}

// RecordRun stores a run summary for the last-run endpoint. Also called by
// the in-process daily trigger so API consumers see scheduler-driven runs.
func (h *Handler) RecordRun(r scan.RunResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = &r
}

func (h *Handler) lastRecordedRun() *scan.RunResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastRun
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":        "Dosewatch Refill API",
		"version":     "1.0.0",
		"status":      "running",
		"environment": h.cfg.Environment,
		"docs":        "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
