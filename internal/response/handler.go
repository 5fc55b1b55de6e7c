package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vulniq/vulniq-api/internal/logger"
)

// DefaultCircuitRetryAfter is used when a CircuitOpenError does not carry
// its own retry window.
const DefaultCircuitRetryAfter = 30 * time.Second

// CircuitOpenError marks a recognized recoverable condition: a downstream
// dependency's circuit breaker is open. The handler wrapper translates it to
// 503 + Retry-After instead of a generic 500.
type CircuitOpenError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s", e.Service)
}

// HandlerFunc is an http.HandlerFunc that reports failure by returning an
// error instead of writing its own 5xx. A handler that returns a non-nil
// error must not have written to the ResponseWriter.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type requestIDKey struct{}

// RequestID returns the correlation ID attached by Handler, or falls back
// to chi's request ID, or "" when neither is present.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}

// Handler wraps a HandlerFunc with request-ID correlation and the single
// error-to-response translation point. Internal errors are logged in full
// server-side and surfaced to clients as a generic 500; no other component
// is permitted to leak internal error detail.
func Handler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = NewRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		err := h(w, r.WithContext(ctx))
		if err == nil {
			return
		}

		log := logger.Ctx(ctx)
		log.Error("[API Error]",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)

		var circuitErr *CircuitOpenError
		if errors.As(err, &circuitErr) {
			retryAfter := circuitErr.RetryAfter
			if retryAfter <= 0 {
				retryAfter = DefaultCircuitRetryAfter
			}
			ServiceUnavailable(w, "Service temporarily unavailable", requestID, retryAfter)
			return
		}

		InternalError(w, "", requestID, map[string]any{"error": err.Error()})
	}
}
