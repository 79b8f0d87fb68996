// Package telemetry forwards error notices to the monitoring backend.
//
// A Client turns each NoticeError call into an OpenTelemetry span named
// "error" carrying an exception event, which the tracer provider batches
// to the OTLP collector. NoticeError only snapshots the request and
// enqueues; a single worker records spans in the background, so response
// latency is never coupled to collector latency.
//
// Notices are dropped, and counted, when the queue is full, when the rate
// cap is exceeded, or after Shutdown. Request headers become
// request.headers.<name> attributes unless an exclusion pattern matches.
package telemetry
