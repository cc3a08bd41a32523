// Package api exposes vanity seed searches over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Amr-9/SeedHunter/internal/config"
	apimiddleware "github.com/Amr-9/SeedHunter/pkg/api/middleware"
	"github.com/Amr-9/SeedHunter/pkg/grind"
)

const (
	serviceName             = "seedhunter"
	defaultProgressInterval = 500 * time.Millisecond
)

// Server represents the API server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *chi.Mux
	server   *http.Server
	limiter  *apimiddleware.RateLimiter
	registry *prometheus.Registry
	metrics  *Metrics

	// workers is the host-wide budget of worker goroutines shared by all grinds.
	workers     *semaphore.Weighted
	workerLimit int
	defaultCPUs int

	// ctx lives until Stop. Grinds derive from it so shutdown ends them,
	// including those on hijacked WebSocket connections, which
	// http.Server.Shutdown does not track.
	ctx     context.Context
	cancel  context.CancelFunc
	streams sync.WaitGroup

	version          string
	grindOptions     []grind.Option
	progressInterval time.Duration
}

// ServerOptions contains optional configuration for the API server
type ServerOptions struct {
	// Version is reported by / and /health.
	Version string
	// GrindOptions are passed to every grind session.
	GrindOptions []grind.Option
	// ProgressInterval is the period of /grind/stream progress messages.
	ProgressInterval time.Duration
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	return NewServerWithOptions(cfg, logger, nil)
}

// NewServerWithOptions creates a new API server with optional configurations
func NewServerWithOptions(cfg *config.Config, logger *zap.Logger, opts *ServerOptions) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		ctx:              ctx,
		cancel:           cancel,
		config:           cfg,
		logger:           logger,
		router:           chi.NewRouter(),
		registry:         registry,
		metrics:          NewMetrics(registry, serviceName),
		workers:          semaphore.NewWeighted(int64(cfg.Server.MaxConcurrentWorkers)),
		workerLimit:      cfg.Server.MaxConcurrentWorkers,
		defaultCPUs:      cfg.Grind.CPUs,
		version:          "dev",
		progressInterval: defaultProgressInterval,
	}

	if opts != nil {
		if opts.Version != "" {
			s.version = opts.Version
		}
		if opts.ProgressInterval > 0 {
			s.progressInterval = opts.ProgressInterval
		}
		s.grindOptions = opts.GrindOptions
	}

	if s.defaultCPUs > s.workerLimit {
		logger.Warn("configured grind cpus exceed the worker budget, clamping",
			zap.Int("cpus", s.defaultCPUs),
			zap.Int("max_concurrent_workers", s.workerLimit),
		)
		s.defaultCPUs = s.workerLimit
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     s.router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// Grinds run for as long as their own deadline allows, so there is no
		// server-wide write timeout.
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Server.TrustProxyHeaders {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(apimiddleware.Logger(s.logger))
	s.router.Use(apimiddleware.Recovery(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Group(func(r chi.Router) {
		if s.config.RateLimit.Enabled {
			s.limiter = apimiddleware.NewRateLimiter(
				s.config.RateLimit.PerSecond,
				s.config.RateLimit.Burst,
				s.logger,
			)
			r.Use(s.limiter.Handler)
			s.logger.Info("rate limiting enabled",
				zap.Float64("rate_per_second", s.config.RateLimit.PerSecond),
				zap.Int("burst", s.config.RateLimit.Burst),
			)
		}

		r.Get("/grind", s.handleGrind)
		r.Get("/grind/stream", s.handleGrindStream)
	})
}

// Router returns the HTTP handler serving all routes.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it is stopped.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		zap.String("address", s.config.Server.Address()),
		zap.Int("max_concurrent_workers", s.workerLimit),
		zap.Bool("rate_limit", s.config.RateLimit.Enabled),
		zap.Bool("trust_proxy_headers", s.config.Server.TrustProxyHeaders),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	// Running grinds end first so their responses and stream frames go out
	// before connections close.
	s.cancel()

	if s.limiter != nil {
		s.limiter.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	streamsDone := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(streamsDone)
	}()
	select {
	case <-streamsDone:
	case <-shutdownCtx.Done():
		return fmt.Errorf("grind streams still open: %w", shutdownCtx.Err())
	}

	s.logger.Info("API server stopped")
	return nil
}

// defaultWorkers is the worker count used when neither the config nor the
// request names one. It never exceeds the host budget.
func (s *Server) defaultWorkers() int {
	n := runtime.NumCPU()
	if n > s.workerLimit {
		n = s.workerLimit
	}
	return n
}
