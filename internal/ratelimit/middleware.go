package ratelimit

import (
	"net/http"
	"time"

	"github.com/vulniq/vulniq-api/internal/clientip"
	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/response"
)

// retryAfterHint is advisory only; token buckets refill continuously, so
// the real wait depends on the configured rate.
const retryAfterHint = 10 * time.Second

// Middleware applies rate limiting keyed on the composite client IP key.
// Requires clientip.Middleware earlier in the chain. Exceeded requests get
// the uniform 429 RATE_LIMITED envelope with a Retry-After hint.
func Middleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientip.FromRequest(r).RateLimitKey
			if !limiter.Allow(r.Context(), key) {
				logger.Ctx(r.Context()).Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
				)
				response.RateLimited(w, "Rate limit exceeded. Please try again later.",
					response.RequestID(r.Context()), retryAfterHint)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareWithKey applies rate limiting with a custom key extractor
// (e.g. authenticated user ID); an empty key falls back to the IP key.
func MiddlewareWithKey(limiter Limiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				key = clientip.FromRequest(r).RateLimitKey
			}
			if !limiter.Allow(r.Context(), key) {
				logger.Ctx(r.Context()).Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
				)
				response.RateLimited(w, "Rate limit exceeded. Please try again later.",
					response.RequestID(r.Context()), retryAfterHint)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
