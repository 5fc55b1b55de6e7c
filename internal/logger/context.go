package logger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Middleware stores a request-scoped logger in context, stamped with req_id
// so demo-block and audit lines correlate with the x-request-id clients see.
// Must sit after chi's RequestID middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := slog.Default()
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			reqLog = reqLog.With("req_id", reqID)
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, reqLog)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Ctx returns the request-scoped logger, or the process default when the
// middleware did not run (startup, background work, tests).
func Ctx(ctx context.Context) *slog.Logger {
	if reqLog, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return reqLog
	}
	return slog.Default()
}

// WithLogger swaps an enriched logger into the context. The auth middleware
// uses this to stamp user_id on every line logged once identity is known.
func WithLogger(ctx context.Context, reqLog *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqLog)
}
