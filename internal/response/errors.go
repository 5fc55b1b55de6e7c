package response

import (
	"net/http"
	"strconv"
	"time"
)

// Error codes shared across the API surface.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeDemoModeBlocked    = "DEMO_MODE_BLOCKED"
)

// genericInternalMessage is what clients see for unexpected failures.
// Callers must not pass raw exception text to InternalError in production;
// the real error belongs in the server-side log, keyed by request ID.
const genericInternalMessage = "An internal error occurred"

// BadRequest writes a 400 BAD_REQUEST envelope.
func BadRequest(w http.ResponseWriter, message, requestID string) {
	Error(w, message, &ErrorOptions{Status: http.StatusBadRequest, Code: CodeBadRequest, RequestID: requestID})
}

// Unauthorized writes a 401 UNAUTHORIZED envelope.
func Unauthorized(w http.ResponseWriter, message, requestID string) {
	Error(w, message, &ErrorOptions{Status: http.StatusUnauthorized, Code: CodeUnauthorized, RequestID: requestID})
}

// Forbidden writes a 403 FORBIDDEN envelope.
func Forbidden(w http.ResponseWriter, message, requestID string) {
	Error(w, message, &ErrorOptions{Status: http.StatusForbidden, Code: CodeForbidden, RequestID: requestID})
}

// NotFound writes a 404 NOT_FOUND envelope.
func NotFound(w http.ResponseWriter, message, requestID string) {
	Error(w, message, &ErrorOptions{Status: http.StatusNotFound, Code: CodeNotFound, RequestID: requestID})
}

// Conflict writes a 409 CONFLICT envelope.
func Conflict(w http.ResponseWriter, message, requestID string) {
	Error(w, message, &ErrorOptions{Status: http.StatusConflict, Code: CodeConflict, RequestID: requestID})
}

// ValidationError writes a 422 VALIDATION_ERROR envelope.
func ValidationError(w http.ResponseWriter, message, requestID string) {
	Error(w, message, &ErrorOptions{Status: http.StatusUnprocessableEntity, Code: CodeValidationError, RequestID: requestID})
}

// RateLimited writes a 429 RATE_LIMITED envelope. retryAfter, when positive,
// is emitted as a Retry-After header in whole seconds (rounded up).
func RateLimited(w http.ResponseWriter, message, requestID string, retryAfter time.Duration) {
	opts := &ErrorOptions{Status: http.StatusTooManyRequests, Code: CodeRateLimited, RequestID: requestID}
	if retryAfter > 0 {
		opts.Headers = map[string]string{"Retry-After": retryAfterSeconds(retryAfter)}
	}
	Error(w, message, opts)
}

// InternalError writes a 500 INTERNAL_ERROR envelope. An empty message is
// replaced with the generic client-safe string. details follows the
// development-only rule.
func InternalError(w http.ResponseWriter, message, requestID string, details any) {
	if message == "" {
		message = genericInternalMessage
	}
	Error(w, message, &ErrorOptions{
		Status:    http.StatusInternalServerError,
		Code:      CodeInternalError,
		RequestID: requestID,
		Details:   details,
	})
}

// ServiceUnavailable writes a 503 SERVICE_UNAVAILABLE envelope with a
// Retry-After header computed from retryAfter, rounded up to whole seconds.
func ServiceUnavailable(w http.ResponseWriter, message, requestID string, retryAfter time.Duration) {
	opts := &ErrorOptions{Status: http.StatusServiceUnavailable, Code: CodeServiceUnavailable, RequestID: requestID}
	if retryAfter > 0 {
		opts.Headers = map[string]string{"Retry-After": retryAfterSeconds(retryAfter)}
	}
	Error(w, message, opts)
}

// retryAfterSeconds converts a duration to whole seconds, rounding up so a
// client never retries before the window actually reopens.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
