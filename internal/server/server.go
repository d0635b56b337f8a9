// Package server exposes the bpcgraph pipeline over HTTP.
//
// # Routes
//
//	POST /v1/transform          problem JSON → solution JSON
//	POST /v1/layout             {"graph", "config"} → layout JSON
//	POST /v1/render?format=...  {"graph", "operations"} → dot, svg, png, pdf or json
//	POST /v1/pipeline           pipeline options → solution, layout and artifacts
//	GET  /healthz               build information
//	GET  /metrics               Prometheus metrics
//
// Every failure is answered with {"code": ..., "message": ...} and a status
// derived from the error code. Requests are traced with otelhttp and reported
// to the registered observability HTTP hooks.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// Default server settings.
const (
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 4 << 20
	DefaultRequestTimeout  = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// Config configures a Server. Zero fields take their defaults.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Gatherer serves /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Logger receives request logs. Nil discards them.
	Logger *log.Logger
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Gatherer == nil {
		c.Gatherer = prometheus.DefaultGatherer
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Server serves the pipeline API.
type Server struct {
	runner  *pipeline.Runner
	cfg     Config
	logger  *log.Logger
	handler http.Handler
}

// New builds a server around runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	cfg.setDefaults()
	s := &Server{runner: runner, cfg: cfg, logger: cfg.Logger}
	s.handler = otelhttp.NewHandler(s.routes(), "bpcgraph")
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.observe)
	r.Use(s.timeout)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/transform", s.handleTransform)
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
		r.Post("/pipeline", s.handlePipeline)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, errNotFound(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, errMethodNotAllowed(r))
	})
	return r
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
