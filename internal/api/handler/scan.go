package handler

import (
	"net/http"
	"time"

	"github.com/dosewatch/dosewatch/internal/api/respond"
)

// TriggerScan runs one notification scan for today and returns the run
// summary. This is the external scheduler's parameterless "run now" hook;
// the idempotency ledger makes a double trigger on the same day a no-op.
// @Summary Trigger the daily notification scan
// @Description Runs the notification-decision scan for the current calendar day and returns the run summary.
// @Tags scan
// @Produce json
// @Success 200 {object} scan.RunResult
// @Failure 500 {object} respond.ErrorResponse
// @Router /scan/run [post]
func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	today := time.Now().In(h.loc)

	result, err := h.scanner.Run(r.Context(), today)
	if err != nil {
		// Run-fatal: the scan could not even enumerate users.
		respond.WriteErrorDetail(w, http.StatusInternalServerError,
			"SCAN_FAILED", "Scan run aborted", err.Error())
		return
	}

	h.RecordRun(result)
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// LastScan returns the most recent run summary.
// @Summary Last scan summary
// @Description Returns the run counters of the most recent scan in this process.
// @Tags scan
// @Produce json
// @Success 200 {object} scan.RunResult
// @Failure 404 {object} respond.ErrorResponse
// @Router /scan/last [get]
func (h *Handler) LastScan(w http.ResponseWriter, r *http.Request) {
	last := h.lastRecordedRun()
	if last == nil {
		respond.WriteError(w, http.StatusNotFound, "NO_RUNS", "No scan has run yet")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, last)
}
