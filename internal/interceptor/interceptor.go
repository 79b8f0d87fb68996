package interceptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/telemetry"
)

// ExceptionHandler is the seam every unhandled exception of every request
// is routed to. It is registered once, at the outermost layer of request
// handling.
type ExceptionHandler interface {
	// HandleException answers the request that raised exc. The returned
	// error reports only a failure to write the response.
	HandleException(w http.ResponseWriter, r *http.Request, exc any) error
}

// ExceptionHandlerFunc adapts a function to ExceptionHandler.
type ExceptionHandlerFunc func(w http.ResponseWriter, r *http.Request, exc any) error

// HandleException calls f.
func (f ExceptionHandlerFunc) HandleException(w http.ResponseWriter, r *http.Request, exc any) error {
	return f(w, r, exc)
}

// ErrResponseCommitted is returned when the handler had already started the
// response before raising, so no error response can be written.
var ErrResponseCommitted = errors.New("response already committed")

// Response is the body written for every intercepted exception.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics counts intercepted exceptions in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// Handler logs, reports and answers exceptions. It keeps no per-request
// state and is safe for concurrent use.
type Handler struct {
	logger   observability.Logger
	notifier telemetry.Notifier
	metrics  *observability.Metrics
}

var _ ExceptionHandler = (*Handler)(nil)

// New creates a Handler. Nil collaborators are replaced by no-ops.
func New(logger observability.Logger, notifier telemetry.Notifier, opts ...Option) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if notifier == nil {
		notifier = telemetry.Disabled()
	}

	h := &Handler{
		logger:   logger,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleException classifies exc, logs it, notices it and writes the JSON
// error response, in that order. Logging and noticing are best-effort and
// never keep the response from being written.
func (h *Handler) HandleException(w http.ResponseWriter, r *http.Request, exc any) error {
	out := Classify(exc)
	ctx := r.Context()
	stack := traceOf(telemetry.StackFromContext(ctx), exc)

	h.guard("log", func() {
		fields := []observability.Field{
			observability.Stacktrace(stack),
			observability.Int("status", out.Status),
			observability.String("method", r.Method),
			observability.String("path", r.URL.Path),
		}
		if err, ok := exc.(error); ok {
			fields = append(fields, observability.Error(err))
		}
		h.logger.WithContext(ctx).Error(out.Message, fields...)
	})

	h.guard("notice", func() {
		h.notifier.NoticeError(telemetry.ContextWithRequest(ctx, r), exc)
	})

	if h.metrics != nil {
		h.metrics.RecordException(out.Status, out.Kind)
	}

	return writeResponse(w, out)
}

// guard runs a side effect, containing any panic it raises.
func (h *Handler) guard(step string, fn func()) {
	defer func() {
		if p := recover(); p != nil && step != "log" {
			h.guard("log", func() {
				h.logger.Warn("exception side effect failed",
					observability.String("step", step),
					observability.Any("panic", p),
				)
			})
		}
	}()
	fn()
}

func writeResponse(w http.ResponseWriter, out Outcome) error {
	if cw, ok := w.(interface{ Written() bool }); ok && cw.Written() {
		return ErrResponseCommitted
	}

	w.Header().Set("Content-Type", "application/json")

	if !bodyAllowed(out.Status) {
		w.WriteHeader(out.Status)
		return nil
	}

	body, err := json.Marshal(Response{StatusCode: out.Status, Message: out.Message})
	if err != nil {
		return fmt.Errorf("encoding exception response: %w", err)
	}

	w.WriteHeader(out.Status)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing exception response: %w", err)
	}
	return nil
}

// bodyAllowed reports whether a response with status may carry a body.
func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified
}
