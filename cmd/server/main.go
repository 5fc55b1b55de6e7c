package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vulniq/vulniq-api/internal/api"
	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/ratelimit"
	"github.com/vulniq/vulniq-api/internal/storage"
)

var version string

func main() {
	// Start pprof debug server if enabled (for memory/CPU profiling)
	if os.Getenv("ENABLE_PPROF") == "true" {
		go startPprofServer()
	}

	// Initialize OpenTelemetry
	// Configured via env vars: OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_HEADERS
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		logger.Warn("failed to configure OpenTelemetry", "error", err)
		// Non-fatal: continue without tracing if OTEL env vars not set
	} else {
		defer otelShutdown()
	}

	config := loadConfig()

	// Storage gateway for both environments; buckets must exist before the
	// server starts serving.
	gateway := storage.NewGateway(config.StorageSettings)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := gateway.Verify(ctx); err != nil {
			cancel()
			logger.Fatal("failed to verify storage", "error", err)
		}
		cancel()
	}

	limiter := ratelimit.NewInMemory(config.RateLimitRPS, config.RateLimitBurst)
	defer limiter.Stop()

	server := api.NewServer(gateway, limiter, config.API)
	router := server.SetupRoutes()

	// Wrap router with OpenTelemetry HTTP instrumentation
	handler := otelhttp.NewHandler(router, "vulniq-api")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", config.Port, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	StorageSettings storage.Settings
	API             api.Config
}

func loadConfig() Config {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	// HTTP timeout configuration (defaults to 30s)
	readTimeout := 30 * time.Second
	if rt := os.Getenv("HTTP_READ_TIMEOUT"); rt != "" {
		if parsed, err := time.ParseDuration(rt); err == nil {
			readTimeout = parsed
		}
	}

	writeTimeout := 30 * time.Second
	if wt := os.Getenv("HTTP_WRITE_TIMEOUT"); wt != "" {
		if parsed, err := time.ParseDuration(wt); err == nil {
			writeTimeout = parsed
		}
	}

	// Rate limiting (per composite client IP key)
	rateLimitRPS := 10.0
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		fmt.Sscanf(v, "%f", &rateLimitRPS)
	}
	rateLimitBurst := 20
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		fmt.Sscanf(v, "%d", &rateLimitBurst)
	}

	// Storage configuration for both environments. Demo falls back to
	// shared production bucket/credentials with a logged warning.
	storageSettings, err := storage.SettingsFromEnv()
	if err != nil {
		logger.Fatal("invalid storage configuration", "error", err)
	}

	// Validate required security configuration
	csrfSecretKey := os.Getenv("CSRF_SECRET_KEY")
	if csrfSecretKey == "" {
		logger.Fatal("missing required env var", "var", "CSRF_SECRET_KEY", "hint", "must be at least 32 characters")
	}
	if len(csrfSecretKey) < 32 {
		logger.Fatal("invalid env var", "var", "CSRF_SECRET_KEY", "error", "must be at least 32 characters")
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		logger.Fatal("missing required env var", "var", "ALLOWED_ORIGINS", "hint", "comma-separated list of allowed origins")
	}

	var adminUsers []string
	if v := os.Getenv("ADMIN_USERS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				adminUsers = append(adminUsers, u)
			}
		}
	}
	if len(adminUsers) == 0 {
		logger.Info("no admin users configured; /admin surface is unreachable")
	}

	return Config{
		Port:            port,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		RateLimitRPS:    rateLimitRPS,
		RateLimitBurst:  rateLimitBurst,
		StorageSettings: storageSettings,
		API: api.Config{
			Version:        version,
			CSRFSecret:     csrfSecretKey,
			AllowedOrigins: strings.Split(allowedOrigins, ","),
			AdminUsers:     adminUsers,
			SecureCookies:  os.Getenv("APP_ENV") != "development",
		},
	}
}

// startPprofServer starts a pprof debug server on localhost:6060, only
// reachable through a local proxy tunnel.
func startPprofServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/allocs", pprof.Handler("allocs"))

	addr := "127.0.0.1:6060"
	logger.Info("pprof debug server starting", "addr", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("pprof server failed", "error", err)
	}
}
