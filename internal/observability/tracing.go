package observability

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/zapr"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials"
)

// OTLP exporter defaults.
const (
	// DefaultOTLPTimeout is the default timeout for OTLP exporter operations.
	DefaultOTLPTimeout = 10 * time.Second

	// DefaultOTLPReconnectionPeriod is the default reconnection period for OTLP gRPC connection.
	DefaultOTLPReconnectionPeriod = 10 * time.Second

	// DefaultBatchTimeout is the maximum delay before a batch of spans is exported.
	DefaultBatchTimeout = 5 * time.Second

	// LicenseKeyHeader carries the licence key on every export request.
	LicenseKeyHeader = "api-key"
)

// ErrExporterUnavailable is returned by the exporter while its circuit breaker is open.
var ErrExporterUnavailable = errors.New("span exporter unavailable")

// TracerConfig contains tracing configuration.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool

	// Endpoint is the OTLP/gRPC collector address (host:port).
	Endpoint   string
	Insecure   bool
	LicenseKey string
	Timeout    time.Duration

	SamplingRate float64

	// Breaker configures the circuit breaker guarding the exporter.
	// A zero value uses defaults.
	Breaker BreakerConfig
}

// BreakerConfig configures the exporter circuit breaker.
type BreakerConfig struct {
	// Failures is the number of consecutive failed exports that opens the breaker.
	Failures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Tracer wraps OpenTelemetry tracing functionality.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   TracerConfig
}

// NewTracer creates a new tracer. A disabled config yields a no-op tracer
// that still satisfies every call.
func NewTracer(cfg TracerConfig, logger Logger) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{
			config: cfg,
			tracer: noop.NewTracerProvider().Tracer(cfg.ServiceName),
		}, nil
	}

	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx, buildOTLPExporterOptions(cfg)...)
	if err != nil {
		return nil, err
	}

	return NewTracerWithExporter(cfg, NewBreakerExporter(exporter, cfg.Breaker, logger))
}

// NewTracerWithExporter creates an enabled tracer that batches spans to exporter.
func NewTracerWithExporter(cfg TracerConfig, exporter sdktrace.SpanExporter) (*Tracer, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(cfg.SamplingRate)),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(DefaultBatchTimeout)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(cfg.ServiceName),
		config:   cfg,
	}, nil
}

// createSampler creates a sampler based on the sampling rate.
func createSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// buildOTLPExporterOptions builds OTLP gRPC exporter options.
func buildOTLPExporterOptions(cfg TracerConfig) []otlptracegrpc.Option {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultOTLPTimeout
	}

	opts := make([]otlptracegrpc.Option, 0, 5)
	opts = append(opts,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(timeout),
		otlptracegrpc.WithReconnectionPeriod(DefaultOTLPReconnectionPeriod),
	)

	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	if cfg.LicenseKey != "" {
		opts = append(opts, otlptracegrpc.WithHeaders(map[string]string{
			LicenseKeyHeader: cfg.LicenseKey,
		}))
	}

	return opts
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// Provider returns the tracer provider, a no-op one when disabled.
func (t *Tracer) Provider() trace.TracerProvider {
	if t.provider != nil {
		return t.provider
	}
	return noop.NewTracerProvider()
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool {
	return t.provider != nil
}

// ForceFlush exports all buffered spans.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.ForceFlush(ctx)
	}
	return nil
}

// Shutdown flushes and shuts down the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// ContextWithSpan copies the trace and span IDs of span into ctx for logging.
func ContextWithSpan(ctx context.Context, span trace.Span) context.Context {
	sc := span.SpanContext()
	if sc.HasTraceID() {
		ctx = ContextWithTraceID(ctx, sc.TraceID().String())
	}
	if sc.HasSpanID() {
		ctx = ContextWithSpanID(ctx, sc.SpanID().String())
	}
	return ctx
}

// InstallOTelLogging routes OpenTelemetry's internal diagnostics and export
// errors to logger so collector failures never reach request handling.
func InstallOTelLogging(logger Logger) {
	otel.SetLogger(zapr.NewLogger(ZapLogger(logger).Named("otel")))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("telemetry export error", Error(err))
	}))
}

// breakerExporter guards a span exporter with a circuit breaker so an
// unreachable collector is not retried on every batch.
type breakerExporter struct {
	next sdktrace.SpanExporter
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerExporter wraps next with a circuit breaker.
func NewBreakerExporter(next sdktrace.SpanExporter, cfg BreakerConfig, logger Logger) sdktrace.SpanExporter {
	if logger == nil {
		logger = NopLogger()
	}

	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "otlp-exporter",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				String("name", name),
				String("from", from.String()),
				String("to", to.String()),
			)
		},
	}

	return &breakerExporter{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// ExportSpans exports spans unless the breaker is open.
func (e *breakerExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	_, err := e.cb.Execute(func() (interface{}, error) {
		return nil, e.next.ExportSpans(ctx, spans)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrExporterUnavailable
	}
	return err
}

// Shutdown shuts down the wrapped exporter.
func (e *breakerExporter) Shutdown(ctx context.Context) error {
	return e.next.Shutdown(ctx)
}
