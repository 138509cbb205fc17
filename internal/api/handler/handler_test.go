package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dosewatch/dosewatch/internal/config"
	"github.com/dosewatch/dosewatch/internal/scan"
)

func TestRoot_ReportsEnvironment(t *testing.T) {
	h := New(nil, nil, nil, &config.Config{Environment: "staging"}, time.UTC)

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["environment"] != "staging" {
		t.Fatalf("want environment staging, got %v", body["environment"])
	}
}

func TestLastScan_LifeCycle(t *testing.T) {
	h := New(nil, nil, nil, &config.Config{}, time.UTC)

	rec := httptest.NewRecorder()
	h.LastScan(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/last", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("before any run: want 404, got %d", rec.Code)
	}

	h.RecordRun(scan.RunResult{
		Day:               time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		UsersFound:        3,
		NotificationsSent: 2,
	})

	rec = httptest.NewRecorder()
	h.LastScan(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/last", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("after a run: want 200, got %d", rec.Code)
	}
	var body scan.RunResult
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UsersFound != 3 || body.NotificationsSent != 2 {
		t.Fatalf("last run counters lost: %+v", body)
	}
}
