// Package core provides the API chassis for the PhoA service. It builds a chi
// router usable both as a plain HTTP server and behind API Gateway, and
// enforces the cross-cutting concerns (panic recovery, request IDs, logging,
// CORS, metrics, compression and error envelopes) before requests reach the
// domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"phoa/internal/config"
)

// MetricsCollector records API telemetry.
type MetricsCollector interface {
	// RecordRequest records latency and count under MetricAPILatency and
	// MetricAPIRequestCount.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server holds the chassis dependencies. Domain handlers are attached through
// V1RouteRegistrars before MountRoutes is called.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// V1RouteRegistrars mount domain routes under /v1.
	V1RouteRegistrars []func(chi.Router)

	// OnShutdown runs in order during Shutdown, e.g. closing the DB pool.
	OnShutdown []func()

	router *chi.Mux
}

// NewServer creates a Server with an empty router.
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

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")
	for _, fn := range s.OnShutdown {
		fn()
	}
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
