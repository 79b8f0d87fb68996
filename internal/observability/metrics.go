package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exception kinds used as the "kind" label.
const (
	KindHTTPError  = "http_error"
	KindError      = "error"
	KindPanicValue = "panic_value"
)

// Reasons a telemetry notice is dropped.
const (
	DropQueueFull   = "queue_full"
	DropRateLimited = "rate_limited"
	DropShutdown    = "shutdown"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	exceptionsTotal *prometheus.CounterVec
	noticesSent     prometheus.Counter
	noticesDropped  *prometheus.CounterVec
	buildInfo       *prometheus.GaugeVec
	startTime       prometheus.Gauge
	registry        *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "apiserver"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route"},
	)

	m.exceptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exceptions_total",
			Help: "Total number of exceptions " +
				"intercepted while handling requests",
		},
		[]string{"status", "kind"},
	)

	m.noticesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "notices_recorded_total",
			Help: "Total number of error notices " +
				"recorded for the collector",
		},
	)

	m.noticesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "notices_dropped_total",
			Help: "Total number of error notices " +
				"dropped before recording",
		},
		[]string{"reason"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Start time in unix seconds",
		},
	)

	m.registerCollectors()

	m.startTime.SetToCurrentTime()

	return m
}

// registerCollectors registers all metric collectors with the
// Prometheus registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.exceptionsTotal,
		m.noticesSent,
		m.noticesDropped,
		m.buildInfo,
		m.startTime,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// InitVecMetrics pre-populates the drop reasons so they are exported
// before the first drop happens.
func (m *Metrics) InitVecMetrics() {
	for _, reason := range []string{DropQueueFull, DropRateLimited, DropShutdown} {
		m.noticesDropped.WithLabelValues(reason)
	}
}

// RecordRequest records a completed HTTP request.
// The route parameter should be the matched route pattern,
// not the raw request path, to prevent cardinality explosion.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordException records an intercepted exception.
func (m *Metrics) RecordException(status int, kind string) {
	m.exceptionsTotal.WithLabelValues(strconv.Itoa(status), kind).Inc()
}

// RecordNoticeRecorded records an error notice handed to the tracer.
func (m *Metrics) RecordNoticeRecorded() {
	m.noticesSent.Inc()
}

// RecordNoticeDropped records an error notice dropped for reason.
func (m *Metrics) RecordNoticeDropped(reason string) {
	m.noticesDropped.WithLabelValues(reason).Inc()
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
