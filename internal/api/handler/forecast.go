package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dosewatch/dosewatch/internal/api/respond"
	"github.com/dosewatch/dosewatch/internal/forecast"
	"github.com/dosewatch/dosewatch/internal/store"
)

// GetForecast computes the supply forecast for one prescription as of
// today (or an explicit ?date=YYYY-MM-DD for reproducible inspection).
// @Summary Supply forecast for a prescription
// @Description Returns current supply, days remaining, and the projected run-out and reorder dates.
// @Tags forecast
// @Produce json
// @Param prescriptionID path string true "Prescription ID"
// @Param date query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /forecast/{prescriptionID} [get]
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prescriptionID")

	today := time.Now().In(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "BAD_DATE", "date must be YYYY-MM-DD")
			return
		}
		today = parsed
	}

	p, err := h.store.PrescriptionByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Unknown prescription")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError,
			"STORE_ERROR", "Failed to load prescription", err.Error())
		return
	}

	info, err := forecast.Compute(p, today)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusUnprocessableEntity,
			"MALFORMED_RECORD", "Prescription cannot produce a forecast", err.Error())
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"prescription_id":   p.ID,
		"prescription_name": p.Name,
		"date":              forecast.Midnight(today).Format("2006-01-02"),
		"supply":            info,
	})
}
