// Package observability provides logging, metrics, and tracing
// functionality for the API server.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Error("Not Found", observability.Stacktrace(trace))
//
// Logging never reports failures to the caller: zap writes its own sink
// errors to stderr.
//
// # Metrics
//
// Prometheus metrics for requests, intercepted exceptions and telemetry
// delivery, served from a dedicated registry:
//
//	metrics := observability.NewMetrics("apiserver")
//	handler := metrics.Handler()
//
// # Tracing
//
// OpenTelemetry tracing with OTLP/gRPC export. The exporter authenticates
// with the licence key header and sits behind a circuit breaker so an
// unreachable collector degrades to dropped batches.
package observability
