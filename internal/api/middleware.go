package api

import (
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vulniq/vulniq-api/internal/auth"
	"github.com/vulniq/vulniq-api/internal/demomode"
	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/response"
	"github.com/vulniq/vulniq-api/internal/security"
)

// requireSameOrigin rejects state-changing cross-origin requests with a 403
// FORBIDDEN envelope. GET/HEAD/OPTIONS pass through untouched.
func requireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if security.IsStateChanging(r.Method) && !security.IsSameOrigin(r) {
			logger.Ctx(r.Context()).Warn("cross-origin request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
				"host", r.Host,
			)
			response.Forbidden(w, "Forbidden", response.RequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// spanEnricher tags the active span with the request's mode classification
// so demo traffic is filterable in traces.
func spanEnricher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		span.SetAttributes(attribute.Bool("vulniq.demo_mode", demomode.IsDemoRequest(r.Header)))
		next.ServeHTTP(w, r)
	})
}

// validateContentType ensures JSON-body requests declare the right media type.
func validateContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if method == "POST" || method == "PUT" || method == "PATCH" {
			contentType := r.Header.Get("Content-Type")

			if contentType == "" {
				logger.Ctx(r.Context()).Info("request missing Content-Type header",
					"method", method, "path", r.URL.Path)
				response.Error(w, "Content-Type header required", &response.ErrorOptions{
					Status:    http.StatusUnsupportedMediaType,
					Code:      response.CodeBadRequest,
					RequestID: response.RequestID(r.Context()),
				})
				return
			}

			// Strip parameters: "application/json; charset=utf-8" → "application/json"
			mediaType := contentType
			if idx := strings.Index(contentType, ";"); idx != -1 {
				mediaType = strings.TrimSpace(contentType[:idx])
			}

			if mediaType != "application/json" {
				logger.Ctx(r.Context()).Info("request with invalid Content-Type",
					"method", method, "path", r.URL.Path, "content_type", mediaType)
				response.Error(w, "Content-Type must be application/json", &response.ErrorOptions{
					Status:    http.StatusUnsupportedMediaType,
					Code:      response.CodeBadRequest,
					RequestID: response.RequestID(r.Context()),
				})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requireAdmin restricts a route group to configured admin subjects. Must
// run after auth.Middleware.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok || !slices.Contains(s.cfg.AdminUsers, userID) {
			response.Forbidden(w, "Forbidden", response.RequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
