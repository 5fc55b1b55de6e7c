// Package response builds the uniform JSON envelope every API endpoint
// returns. Success envelopes always carry success=true and the payload;
// error envelopes always carry success=false, a message, and usually a
// machine-readable code. The fixed security header set is attached to every
// response written here.
package response

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vulniq/vulniq-api/internal/security"
)

// RequestIDHeader carries the correlation ID on every response that has one.
const RequestIDHeader = "x-request-id"

// Envelope is the wire shape of every API response.
// Optional fields are omitted entirely rather than serialized as null.
type Envelope struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Code      string         `json:"code,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Details   any            `json:"details,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Options configures Success.
type Options struct {
	// Status is the HTTP status code; zero means 200.
	Status int

	// RequestID, when set, is included in the body and the x-request-id header.
	RequestID string

	// Meta holds supplemental response metadata (pagination, counts).
	Meta map[string]any

	// Headers are extra response headers. They are applied after the security
	// header set, so a caller-supplied value wins on conflict. Overriding the
	// no-cache headers this way is out of contract; the builder does not police it.
	Headers map[string]string
}

// ErrorOptions configures Error.
type ErrorOptions struct {
	// Status is the HTTP status code; zero means 500.
	Status int

	// Code is the machine-readable error code (e.g. "DEMO_MODE_BLOCKED").
	Code string

	// RequestID, when set, is included in the body and the x-request-id header.
	RequestID string

	// Details is diagnostic payload. It is serialized only when APP_ENV is
	// "development"; in every other environment it is dropped before the
	// envelope is written. Hard invariant: internal detail never reaches
	// clients in production.
	Details any

	// Headers are extra response headers (e.g. Retry-After).
	Headers map[string]string
}

// NewRequestID returns a correlation ID for audit-log matching. Uses a
// random UUID; if UUID generation fails (exhausted entropy source), falls
// back to a timestamp+random string. Uniqueness is best-effort.
func NewRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("req-%d-%06d", time.Now().UnixMilli(), rand.IntN(1000000))
	}
	return id.String()
}

// Success writes a success envelope. data, when nil, is omitted from the
// body entirely.
func Success(w http.ResponseWriter, data any, opts *Options) {
	if opts == nil {
		opts = &Options{}
	}
	status := opts.Status
	if status == 0 {
		status = http.StatusOK
	}

	env := Envelope{
		Success:   true,
		Data:      data,
		RequestID: opts.RequestID,
		Meta:      opts.Meta,
	}
	writeJSON(w, status, env, opts.RequestID, opts.Headers)
}

// Error writes an error envelope. message must be non-empty; Details is
// included only in development (see ErrorOptions.Details).
func Error(w http.ResponseWriter, message string, opts *ErrorOptions) {
	if opts == nil {
		opts = &ErrorOptions{}
	}
	status := opts.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	env := Envelope{
		Success:   false,
		Error:     message,
		Code:      opts.Code,
		RequestID: opts.RequestID,
	}
	if opts.Details != nil && IsDevelopment() {
		env.Details = opts.Details
	}
	writeJSON(w, status, env, opts.RequestID, opts.Headers)
}

// IsDevelopment reports whether the process runs with APP_ENV=development.
// Read per call so tests can flip it with t.Setenv.
func IsDevelopment() bool {
	return os.Getenv("APP_ENV") == "development"
}

func writeJSON(w http.ResponseWriter, status int, env Envelope, requestID string, extra map[string]string) {
	security.ApplyHeaders(w.Header())
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set(RequestIDHeader, requestID)
	}
	for k, v := range extra {
		w.Header().Set(k, v)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
