package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitMiddleware_RetryAfterMatchesWindow(t *testing.T) {
	handler := RateLimitMiddleware(2, 30*time.Second)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	// burst is 1 for a 2-per-window limit, so the second immediate
	// request from the same IP is rejected.
	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429 on burst exhaustion, got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After must advertise the configured window: want 30, got %q", got)
	}
}

func TestRateLimitMiddleware_IsolatesClientIPs(t *testing.T) {
	handler := RateLimitMiddleware(2, time.Minute)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	exhaust := httptest.NewRequest(http.MethodGet, "/", nil)
	exhaust.RemoteAddr = "10.0.0.1:40000"
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), exhaust)
	}

	// A different client still has its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:40000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client must not share the first client's bucket, got %d", rec.Code)
	}
}

func TestTimingMiddleware_SetsProcessTimeHeader(t *testing.T) {
	handler := TimingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Process-Time") == "" {
		t.Fatal("X-Process-Time header must be set")
	}
}
