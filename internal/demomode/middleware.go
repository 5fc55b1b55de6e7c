package demomode

import (
	"net/http"

	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/response"
)

// BlockedMessage is the client-visible error for a demo request hitting a
// production-only operation.
const BlockedMessage = "Demo mode cannot access production APIs"

// BlockedHeader marks blocked responses so the edge and the frontend can
// distinguish a mode block from other 403s without parsing the body.
const BlockedHeader = "x-demo-blocked"

// Options configures ValidateRequestMode.
type Options struct {
	// AllowDemo opts an endpoint in to serving demo-classified requests.
	// Only stateless, data-free endpoints (health, formatting) qualify.
	AllowDemo bool
}

// Decision is the outcome of mode validation for one request.
type Decision struct {
	Allowed    bool
	IsDemoMode bool
}

// ValidateRequestMode classifies the request and decides whether it may
// proceed. Demo requests are allowed only when opts.AllowDemo is set.
func ValidateRequestMode(r *http.Request, opts Options) Decision {
	isDemo := IsDemoRequest(r.Header)
	return Decision{
		Allowed:    !isDemo || opts.AllowDemo,
		IsDemoMode: isDemo,
	}
}

// RequireProductionMode blocks demo-classified requests. When the request is
// demo, it writes the uniform 403 DEMO_MODE_BLOCKED envelope (with request
// ID and the blocked marker header), logs a warning keyed by that ID, and
// returns true. Production-classified requests return false untouched.
func RequireProductionMode(w http.ResponseWriter, r *http.Request) bool {
	if !IsDemoRequest(r.Header) {
		return false
	}

	requestID := response.RequestID(r.Context())
	if requestID == "" {
		requestID = response.NewRequestID()
	}

	logger.Ctx(r.Context()).Warn("demo request blocked from production API",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
	)

	response.Error(w, BlockedMessage, &response.ErrorOptions{
		Status:    http.StatusForbidden,
		Code:      response.CodeDemoModeBlocked,
		RequestID: requestID,
		Headers:   map[string]string{BlockedHeader: "true"},
	})
	return true
}

// RequireProduction is the middleware form of RequireProductionMode. On a
// blocked request the wrapped handler never runs, so its side effects cannot
// occur.
func RequireProduction(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequireProductionMode(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}
