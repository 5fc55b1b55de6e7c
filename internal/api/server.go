// Package api wires the HTTP surface: the production API (demo-blocked,
// same-origin guarded), the demo mirror (allow-listed, sandbox-scoped), and
// the small CSRF-protected admin surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"

	"github.com/vulniq/vulniq-api/internal/auth"
	"github.com/vulniq/vulniq-api/internal/clientip"
	"github.com/vulniq/vulniq-api/internal/demomode"
	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/ratelimit"
	"github.com/vulniq/vulniq-api/internal/response"
	"github.com/vulniq/vulniq-api/internal/security"
	"github.com/vulniq/vulniq-api/internal/storage"
)

// Config holds the routing-relevant service configuration.
type Config struct {
	Version        string
	CSRFSecret     string
	AllowedOrigins []string

	// AdminUsers are the subjects permitted on the /admin surface.
	AdminUsers []string

	// SecureCookies controls the Secure flag on the CSRF cookie; disabled
	// only for local development over plain HTTP.
	SecureCookies bool
}

// Server holds dependencies for API handlers.
type Server struct {
	storage *storage.Gateway
	limiter ratelimit.Limiter
	cfg     Config
}

// NewServer creates a new API server.
func NewServer(store *storage.Gateway, limiter ratelimit.Limiter, cfg Config) *Server {
	return &Server{
		storage: store,
		limiter: limiter,
		cfg:     cfg,
	}
}

// SetupRoutes configures HTTP routes.
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Middleware. Order matters: request IDs and client IPs first so the
	// logger and rate limiter see them; security headers before anything
	// that can write a response.
	r.Use(middleware.RequestID)
	r.Use(clientip.Middleware)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(spanEnricher)
	r.Use(security.Headers)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(ratelimit.Middleware(s.limiter))

	// Health and service info are demo-safe: stateless, no user data.
	r.Get("/health", response.Handler(s.handleHealth))
	r.Get("/", response.Handler(s.handleRoot))

	// Production API surface. Demo-classified requests are blocked before
	// anything else runs; then the origin guard, then identity.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(demomode.RequireProduction)
		r.Use(requireSameOrigin)
		r.Use(decompressMiddleware())
		r.Use(validateContentType)
		r.Use(auth.Middleware)

		r.Post("/files/upload-url", response.Handler(s.handleCreateUploadURL(storage.Production)))
		r.Post("/files/download-url", response.Handler(s.handleCreateDownloadURL(storage.Production)))
		r.Delete("/files", response.Handler(s.handleDeleteFile(storage.Production)))

		r.Post("/prompts", response.Handler(s.handleSavePrompt))
		r.Get("/prompts/{promptID}", response.Handler(s.handleGetPrompt))

		r.Post("/profile-image/upload-url", response.Handler(s.handleProfileImageUploadURL))
	})

	// Demo mirror: the allow-listed stateless surface plus storage routes
	// scoped to the sandbox identity in the demo environment. No session
	// cookies exist here, so no CSRF layer; the origin guard still applies.
	r.Route("/demo/api/v1", func(r chi.Router) {
		r.Use(requireSameOrigin)
		r.Use(decompressMiddleware())
		r.Use(validateContentType)

		r.With(audited("demo.health")).Get("/health", response.Handler(s.handleHealth))
		r.With(audited("demo.files.upload_url")).Post("/files/upload-url",
			response.Handler(s.handleCreateUploadURL(storage.Demo)))
		r.With(audited("demo.files.download_url")).Post("/files/download-url",
			response.Handler(s.handleCreateDownloadURL(storage.Demo)))
		r.With(audited("demo.files.delete")).Delete("/files",
			response.Handler(s.handleDeleteFile(storage.Demo)))
	})

	// Admin surface: browser HTML forms, so gorilla/csrf on top of the
	// origin guard. Admin identity comes from the same trusted edge header.
	r.Route("/admin", func(r chi.Router) {
		r.Use(csrf.Protect([]byte(s.cfg.CSRFSecret),
			csrf.Secure(s.cfg.SecureCookies),
			csrf.Path("/admin"),
		))
		r.Use(demomode.RequireProduction)
		r.Use(auth.Middleware)
		r.Use(s.requireAdmin)

		r.Get("/", s.handleAdminPage)
		r.Post("/demo/purge", response.Handler(s.handleDemoPurge))
	})

	return r
}

// handleHealth returns server health status. Demo-safe by design.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	decision := demomode.ValidateRequestMode(r, demomode.Options{AllowDemo: true})
	response.Success(w, map[string]any{
		"status":  "ok",
		"version": s.cfg.Version,
	}, &response.Options{
		RequestID: response.RequestID(r.Context()),
		Meta:      map[string]any{"demoMode": decision.IsDemoMode},
	})
	return nil
}

// handleRoot returns API info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) error {
	response.Success(w, map[string]string{
		"service": "vulniq-api",
		"version": "v1",
	}, &response.Options{RequestID: response.RequestID(r.Context())})
	return nil
}

// audited emits a demo-surface audit line for the route.
func audited(routeName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			demomode.AuditAPIAccess(r, routeName)
			next.ServeHTTP(w, r)
		})
	}
}
