// Package api assembles the HTTP surface of the service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/certgate/certgate/internal/api/handlers"
	apimiddleware "github.com/certgate/certgate/internal/api/middleware"
	"github.com/certgate/certgate/internal/logger"
)

// RouterConfig carries everything the router needs besides the pipeline.
type RouterConfig struct {
	// Backends names the resolved backends, reported on the admin endpoint.
	Backends handlers.Backends

	// Ready reports backend readiness for the readiness probe. Nil means
	// always ready.
	Ready func() error

	// RequestTimeout bounds in-flight request handling.
	RequestTimeout time.Duration
}

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /api/v1/session - Caller identity (authentication optional)
//   - GET /api/v1/admin - Administrative view (admin rule enforced)
func NewRouter(pipeline *apimiddleware.Pipeline, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Middleware stack - order matters
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	healthHandler := handlers.NewHealthHandler(cfg.Ready)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Session endpoint: authenticates only when the caller asks for it
		r.Group(func(r chi.Router) {
			r.Use(pipeline.Optional())
			r.Get("/session", handlers.NewSessionHandler().Get)
		})

		// Administrative endpoints: full pipeline plus the admin rule
		r.Group(func(r chi.Router) {
			r.Use(pipeline.Require())
			r.Use(pipeline.RequireAdmin())
			r.Get("/admin", handlers.NewAdminHandler(cfg.Backends).Get)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs requests using the internal logger. Healthcheck
// requests are logged at DEBUG level to reduce noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		logger.Debug("API request started",
			logger.KeyRequestID, requestID,
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyClientIP, r.RemoteAddr,
		)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			logger.KeyRequestID, requestID,
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyDurationMs, logger.Duration(start),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
