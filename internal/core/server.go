// Package core provides the API chassis for the BioSentinel platform.
// It creates a chi router and enforces cross-cutting concerns -- security,
// logging, rate limiting, and error handling -- before requests reach
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"biosentinel/internal/config"
)

// Server encapsulates all dependencies for the BioSentinel API, allowing for
// easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	// RateLimitStore backs the per-IP request limiter. If nil, rate
	// limiting is disabled (tests).
	RateLimitStore RateLimitStore

	// HealthProbes are the subsystem checks executed by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars are populated by the application entry point and
	// mounted under /v1. This indirection avoids import cycles between
	// core and handler packages.
	V1RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route
// registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Closer is implemented by injected resources (DB pools) that need an
// orderly shutdown.
type Closer interface {
	Close() error
}

// Shutdown performs a graceful termination of server resources. Closers are
// closed in registration order.
func (s *Server) Shutdown(ctx context.Context, closers ...Closer) error {
	s.Logger.Info("server shutdown initiated")

	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			s.Logger.Error("error closing resource", "error", err)
			return fmt.Errorf("closing resource: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
