package interceptor

import (
	"net/http"
	"runtime/debug"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/telemetry"
)

// HandlerFunc is an http handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Recover returns a middleware that routes panics to h. When h cannot write
// the response the connection is aborted with http.ErrAbortHandler, which is
// net/http's own fallback for a broken response.
func Recover(h ExceptionHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}

			defer func() {
				exc := recover()
				if exc == nil {
					return
				}
				if exc == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as net/http does
					panic(exc)
				}

				r = withRecoveredStack(r, debug.Stack())
				if err := h.HandleException(tw, r, exc); err != nil {
					panic(http.ErrAbortHandler)
				}
			}()

			next.ServeHTTP(tw, r)
		})
	}
}

// Wrap adapts an error-returning handler: a returned error and a panic are
// both routed to h.
func Wrap(h ExceptionHandler, fn HandlerFunc) http.Handler {
	return Recover(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		if herr := h.HandleException(w, r, err); herr != nil {
			panic(http.ErrAbortHandler)
		}
	}))
}

func withRecoveredStack(r *http.Request, stack []byte) *http.Request {
	return r.WithContext(telemetry.ContextWithStack(r.Context(), string(stack)))
}

// trackingWriter records whether the response has been started.
type trackingWriter struct {
	http.ResponseWriter
	written bool
}

// WriteHeader marks the response as started for final status codes.
func (w *trackingWriter) WriteHeader(code int) {
	if code >= http.StatusOK {
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write marks the response as started.
func (w *trackingWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Written reports whether headers or body have been sent.
func (w *trackingWriter) Written() bool {
	return w.written
}

// Flush implements http.Flusher interface for streaming support.
func (w *trackingWriter) Flush() {
	w.written = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Compile-time interface assertion.
var _ http.Flusher = (*trackingWriter)(nil)
