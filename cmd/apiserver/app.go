package main

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/config"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/interceptor"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/server"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/telemetry"
)

const metricsNamespace = "apiserver"

// application holds all application components.
type application struct {
	config    *config.Config
	logger    observability.Logger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	telemetry *telemetry.Client // nil when reporting is off
	server    *server.Server
}

// appOption customizes how newApplication wires components.
type appOption func(*appOptions)

type appOptions struct {
	exporter sdktrace.SpanExporter
}

// withSpanExporter sends spans to exporter instead of the OTLP collector.
func withSpanExporter(exporter sdktrace.SpanExporter) appOption {
	return func(o *appOptions) {
		o.exporter = exporter
	}
}

// newApplication wires the components described by cfg.
func newApplication(cfg *config.Config, logger observability.Logger, opts ...appOption) (*application, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	observability.InstallOTelLogging(logger)

	metrics := observability.NewMetrics(metricsNamespace)
	metrics.InitVecMetrics()
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	if cfg.Enabled && cfg.LicenseKey == "" {
		logger.Warn("no licence key configured, error reporting is disabled")
	}
	reporting := cfg.ReportingEnabled()

	tracerCfg := observability.TracerConfig{
		ServiceName:    cfg.AppName,
		ServiceVersion: version,
		Enabled:        reporting,
		Endpoint:       cfg.Collector.Endpoint,
		Insecure:       cfg.Collector.Insecure,
		LicenseKey:     cfg.LicenseKey,
		Timeout:        cfg.Collector.Timeout.Duration(),
		SamplingRate:   1.0,
	}

	var (
		tracer *observability.Tracer
		err    error
	)
	if reporting && o.exporter != nil {
		tracer, err = observability.NewTracerWithExporter(tracerCfg, o.exporter)
	} else {
		tracer, err = observability.NewTracer(tracerCfg, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}

	notifier := telemetry.Disabled()
	if reporting {
		app.telemetry = telemetry.New(tracer.Tracer(), telemetry.Config{
			DistributedTracing: cfg.DistributedTracing.Enabled,
			Exclude:            cfg.Attributes.Exclude,
			MaxPerSecond:       cfg.ErrorCollector.MaxPerSecond,
			Burst:              cfg.ErrorCollector.Burst,
			QueueSize:          cfg.ErrorCollector.QueueSize,
		},
			telemetry.WithLogger(logger),
			telemetry.WithMetrics(metrics),
		)
		app.telemetry.Start()
		notifier = app.telemetry
	}

	exceptions := interceptor.New(logger, notifier, interceptor.WithMetrics(metrics))

	serverOpts := []server.Option{server.WithTracerProvider(tracer.Provider())}
	if cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, server.WithMetrics(metrics))
	}

	app.server = server.New(server.Config{
		Address:         cfg.Server.Address,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:    cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:     server.DefaultConfig().IdleTimeout,
		MaxHeaderBytes:  server.DefaultConfig().MaxHeaderBytes,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		ServiceName:     cfg.AppName,
		Tracing:         reporting && cfg.DistributedTracing.Enabled,
		AccessLog:       cfg.Log.Access,
		MetricsPath:     cfg.Metrics.Path,
	}, exceptions, logger, serverOpts...)

	return app, nil
}
