package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/httperr"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

// Notifier forwards error notifications to the monitoring backend.
// NoticeError never blocks on the network and never fails the caller.
type Notifier interface {
	NoticeError(ctx context.Context, exc any)
}

// Span and attribute names.
const (
	NoticeSpanName = "error"

	AttrRequestMethod  = "request.method"
	AttrRequestURI     = "request.uri"
	AttrRequestID      = "request.id"
	AttrRequestHeaders = "request.headers."
	AttrValueType      = "exception.value_type"
	AttrStacktrace     = "exception.stacktrace"
)

// Defaults applied to zero Config fields.
const (
	DefaultQueueSize    = 1024
	DefaultMaxPerSecond = 100
	DefaultBurst        = 100
)

// Config controls notice delivery.
type Config struct {
	// DistributedTracing parents notice spans on the request's span.
	DistributedTracing bool

	// Exclude lists attribute patterns removed before recording.
	// An empty list means DefaultExclude.
	Exclude []string

	// MaxPerSecond caps recorded notices; excess notices are dropped.
	// Zero means DefaultMaxPerSecond, a negative value disables the cap.
	MaxPerSecond float64
	Burst        int

	QueueSize int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records delivery counters in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// notice is the snapshot of one NoticeError call handed to the worker.
type notice struct {
	err       error
	valueType string
	parent    trace.SpanContext
	attrs     []attribute.KeyValue
	stack     string
	at        time.Time
}

// Client records error notices as spans on an OpenTelemetry tracer.
type Client struct {
	tracer      trace.Tracer
	logger      observability.Logger
	metrics     *observability.Metrics
	exclude     *Matcher
	limiter     *rate.Limiter
	distributed bool

	queue     chan notice
	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	done      chan struct{}
}

// New creates a Client recording on tracer. Call Start before serving.
func New(tracer trace.Tracer, cfg Config, opts ...Option) *Client {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	exclude := cfg.Exclude
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}

	c := &Client{
		tracer:      tracer,
		logger:      observability.NopLogger(),
		exclude:     NewMatcher(exclude),
		limiter:     newLimiter(cfg.MaxPerSecond, cfg.Burst),
		distributed: cfg.DistributedTracing,
		queue:       make(chan notice, queueSize),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond < 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if perSecond == 0 {
		perSecond = DefaultMaxPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Start launches the delivery worker. It is safe to call more than once.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

// NoticeError queues exc for recording. The value is recorded as-is; values
// that are not errors are recorded under their printed form.
func (c *Client) NoticeError(ctx context.Context, exc any) {
	if !c.limiter.Allow() {
		c.drop(observability.DropRateLimited)
		return
	}

	n := c.snapshot(ctx, exc)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.drop(observability.DropShutdown)
		return
	}

	select {
	case c.queue <- n:
	default:
		c.drop(observability.DropQueueFull)
	}
}

// Shutdown stops accepting notices and waits for queued ones to be recorded.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	// Start the worker if Start was never called so the closed queue is
	// still drained.
	c.startOnce.Do(func() {
		go c.run()
	})

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining error notices: %w", ctx.Err())
	}
}

func (c *Client) run() {
	defer close(c.done)
	for n := range c.queue {
		c.record(n)
	}
}

func (c *Client) record(n notice) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("recording error notice failed", observability.Any("panic", r))
		}
	}()

	ctx := context.Background()
	if c.distributed && n.parent.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, n.parent)
	}

	_, span := c.tracer.Start(ctx, NoticeSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(n.at),
		trace.WithAttributes(n.attrs...),
	)

	eventAttrs := []attribute.KeyValue{attribute.String(AttrValueType, n.valueType)}
	if n.stack != "" {
		eventAttrs = append(eventAttrs, attribute.String(AttrStacktrace, n.stack))
	}
	span.RecordError(n.err, trace.WithTimestamp(n.at), trace.WithAttributes(eventAttrs...))
	span.SetStatus(codes.Error, n.err.Error())
	span.End()

	if c.metrics != nil {
		c.metrics.RecordNoticeRecorded()
	}
}

func (c *Client) drop(reason string) {
	if c.metrics != nil {
		c.metrics.RecordNoticeDropped(reason)
	}
	c.logger.Debug("error notice dropped", observability.String("reason", reason))
}

// snapshot copies everything the worker needs so it never touches the
// request after the handler has returned.
func (c *Client) snapshot(ctx context.Context, exc any) notice {
	n := notice{
		err:       asError(exc),
		valueType: fmt.Sprintf("%T", exc),
		parent:    trace.SpanContextFromContext(ctx),
		at:        time.Now(),
	}

	n.stack = StackFromContext(ctx)
	if n.stack == "" {
		if err, ok := exc.(error); ok {
			n.stack = httperr.StackOf(err)
		}
	}

	if id := observability.RequestIDFromContext(ctx); id != "" {
		n.attrs = c.appendAttr(n.attrs, AttrRequestID, id)
	}
	if r := RequestFromContext(ctx); r != nil {
		n.attrs = c.requestAttributes(n.attrs, r)
	}

	return n
}

func (c *Client) requestAttributes(attrs []attribute.KeyValue, r *http.Request) []attribute.KeyValue {
	attrs = c.appendAttr(attrs, AttrRequestMethod, r.Method)
	if r.URL != nil {
		attrs = c.appendAttr(attrs, AttrRequestURI, r.URL.Path)
	}

	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := AttrRequestHeaders + strings.ToLower(name)
		attrs = c.appendAttr(attrs, key, strings.Join(r.Header.Values(name), ", "))
	}
	return attrs
}

func (c *Client) appendAttr(attrs []attribute.KeyValue, key, value string) []attribute.KeyValue {
	if c.exclude.Excluded(key) {
		return attrs
	}
	return append(attrs, attribute.String(key, value))
}

func asError(exc any) error {
	switch v := exc.(type) {
	case error:
		return v
	case nil:
		return errors.New("nil panic value")
	default:
		return fmt.Errorf("%v", v)
	}
}

// Disabled returns a Notifier that discards every notice. It is used when
// the agent is turned off or has no licence key.
func Disabled() Notifier {
	return disabled{}
}

type disabled struct{}

func (disabled) NoticeError(context.Context, any) {}
