// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/api/handler"
	"github.com/openquant/hindsight/internal/api/job"
	"github.com/openquant/hindsight/internal/api/middleware"
	"github.com/openquant/hindsight/internal/app"
	"github.com/openquant/hindsight/internal/metrics"
)

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MaxJobs     int
	JobTTL      time.Duration
	MetricsPath string // Empty disables the metrics endpoint.
}

// Server is the HTTP front of the backtesting engine.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	jobs       *job.Store
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(cfg Config, a *app.App, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	jobs := job.NewStore(cfg.MaxJobs, cfg.JobTTL)
	scans := handler.NewScanHandler(jobs, a, logger)
	strategies := handler.NewStrategiesHandler(a)
	reports := handler.NewReportsHandler(a)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/v1/scans", scans.Create)
	apiMux.HandleFunc("GET /api/v1/scans/{id}", scans.GetStatus)
	apiMux.HandleFunc("GET /api/v1/strategies", strategies.List)
	apiMux.HandleFunc("GET /api/v1/reports", reports.List)

	auth := middleware.APIKeyAuth(cfg.APIKey)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", auth(apiMux))
	mux.HandleFunc("GET /api/health", handleHealth)
	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(
			a.Metrics().Registry,
			promhttp.HandlerOpts{},
		))
	}

	root := metrics.HTTPMiddleware(a.Metrics())(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		jobs:   jobs,
	}
}

// Handler exposes the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
