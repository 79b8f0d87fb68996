package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/interceptor"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Probe and root paths.
const (
	RootPath    = "/"
	HealthzPath = "/healthz"
	ReadyzPath  = "/readyz"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Address         string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration

	// ServiceName names the tracer used for server spans.
	ServiceName string
	// Tracing starts a server span per request.
	Tracing bool
	// AccessLog logs every completed request except probes.
	AccessLog bool
	// MetricsPath serves Prometheus metrics when metrics are configured.
	MetricsPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Port:            3000,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
		MetricsPath:     "/metrics",
	}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics in m and serves them on
// Config.MetricsPath.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTracerProvider sets the provider server spans are started on.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// Server is the HTTP server. Every unhandled exception raised by a route,
// including unknown routes, is answered by the configured ExceptionHandler.
type Server struct {
	engine         *gin.Engine
	httpServer     *http.Server
	exceptions     interceptor.ExceptionHandler
	logger         observability.Logger
	metrics        *observability.Metrics
	tracerProvider trace.TracerProvider
	config         Config

	mu      sync.Mutex
	running bool
	ready   atomic.Bool
}

// New creates a Server with its middleware and routes registered.
func New(cfg Config, exceptions interceptor.ExceptionHandler, logger observability.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = observability.NopLogger()
	}

	// Set Gin mode based on environment (only once to avoid race conditions)
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:     gin.New(),
		exceptions: exceptions,
		logger:     logger,
		config:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware installs, outermost first: request ID, access log,
// tracing, metrics, exception interception.
func (s *Server) registerMiddleware() {
	s.engine.Use(RequestID())

	if s.config.AccessLog {
		s.engine.Use(AccessLog(AccessLogConfig{
			Logger:    s.logger,
			SkipPaths: []string{HealthzPath, ReadyzPath, s.config.MetricsPath},
		}))
	}

	if s.config.Tracing {
		s.engine.Use(Tracing(TracingConfig{
			TracerProvider: s.tracerProvider,
			ServiceName:    s.config.ServiceName,
			SkipPaths:      []string{HealthzPath, ReadyzPath, s.config.MetricsPath},
		}))
	}

	if s.metrics != nil {
		s.engine.Use(Metrics(s.metrics))
	}

	s.engine.Use(interceptor.Gin(s.exceptions))
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Engine returns the underlying gin engine, for registering more routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Address, fmt.Sprint(s.config.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called. It takes ownership of ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", ln.Addr().String()),
		observability.Duration("readTimeout", s.config.ReadTimeout),
		observability.Duration("writeTimeout", s.config.WriteTimeout),
	)
	s.ready.Store(true)

	err := srv.Serve(ln)
	s.ready.Store(false)

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.ready.Store(false)
	s.logger.Info("stopping HTTP server")

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetReady overrides the readiness reported on /readyz.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}
