package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vulniq/vulniq-api/internal/clientip"
	"github.com/vulniq/vulniq-api/internal/response"
)

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) bool {
	s.keys = append(s.keys, key)
	return s.allow
}

func TestMiddlewareAllows(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	called := false
	handler := clientip.Middleware(Middleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	r := httptest.NewRequest("GET", "/api/v1/files", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !called {
		t.Error("handler not called for allowed request")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "203.0.113.9" {
		t.Errorf("limiter keys = %v, want composite IP key", limiter.keys)
	}
}

func TestMiddlewareBlocks(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	handler := clientip.Middleware(Middleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran for throttled request")
	})))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/files", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	var env response.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if env.Success {
		t.Error("success = true on 429")
	}
	if env.Code != response.CodeRateLimited {
		t.Errorf("code = %q, want %q", env.Code, response.CodeRateLimited)
	}
}

func TestMiddlewareWithKey(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	keyFunc := func(r *http.Request) string {
		return r.Header.Get("x-vulniq-user")
	}
	handler := clientip.Middleware(MiddlewareWithKey(limiter, keyFunc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	r.Header.Set("x-vulniq-user", "u42")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if len(limiter.keys) != 1 || limiter.keys[0] != "u42" {
		t.Errorf("limiter keys = %v, want user key", limiter.keys)
	}

	// Empty key falls back to the IP composite.
	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if len(limiter.keys) != 2 || limiter.keys[1] != "203.0.113.9" {
		t.Errorf("limiter keys = %v, want IP fallback", limiter.keys)
	}
}
