package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRateLimiterPerClient(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if send("10.0.0.1") != http.StatusOK || send("10.0.0.1") != http.StatusOK {
		t.Fatal("burst should be allowed")
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other clients keep their own bucket, got %d", code)
	}
}

func TestRateLimiterKeysByUser(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	userA, userB := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{userA, userB} {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		req = req.WithContext(WithUserID(req.Context(), id))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("user %s: expected 200, got %d", id, w.Code)
		}
	}
}

func TestRateLimiterSweep(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	limiter.ttl = -1
	limiter.Allow("a")
	limiter.Sweep()
	if len(limiter.buckets) != 0 {
		t.Fatalf("expected idle bucket to be swept, got %d", len(limiter.buckets))
	}
}
