package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/config"
)

// Server is the HTTP API server.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer wraps the router in an http.Server with the configured
// timeouts.
func NewServer(cfg *config.APIConfig, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info("API server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
