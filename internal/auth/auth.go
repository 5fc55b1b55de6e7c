// Package auth is the trusted-edge identity boundary. Session and passkey
// verification happen upstream; by the time a request reaches this service
// the edge has either stripped the identity header or set it to a verified
// subject. This package only reads that header and carries the subject
// through the request context.
package auth

import (
	"context"
	"net/http"
	"regexp"

	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/response"
)

// UserHeader carries the verified subject, injected by the trusted edge
// layer after authentication. The same layer strips it from all inbound
// client traffic, so its presence is proof of a verified session.
const UserHeader = "x-vulniq-user"

// subjectPattern constrains subjects to characters that are safe inside
// storage keys; the edge issues IDs in this shape.
var subjectPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type ctxKey struct{}

// UserID returns the authenticated subject from context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithUserID stores a subject in context. Exposed for tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// Middleware requires a verified subject on the request and stores it in
// context. Requests without one (or with a malformed one, which indicates
// an edge misconfiguration) get a 401 envelope. The request-scoped logger is
// enriched with the subject so every downstream line carries user_id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get(UserHeader)
		if subject == "" || !subjectPattern.MatchString(subject) {
			response.Unauthorized(w, "Authentication required", response.RequestID(r.Context()))
			return
		}
		ctx := WithUserID(r.Context(), subject)
		ctx = logger.WithLogger(ctx, logger.Ctx(ctx).With("user_id", subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
