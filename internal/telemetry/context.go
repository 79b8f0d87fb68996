package telemetry

import (
	"context"
	"net/http"
)

type contextKey int

const (
	requestKey contextKey = iota
	stackKey
)

// ContextWithRequest attaches the request whose attributes describe a notice.
func ContextWithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey, r)
}

// RequestFromContext returns the request attached by ContextWithRequest.
func RequestFromContext(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestKey).(*http.Request)
	return r
}

// ContextWithStack attaches a stack trace captured outside the error value,
// such as the stack of a recovered panic.
func ContextWithStack(ctx context.Context, stack string) context.Context {
	if stack == "" {
		return ctx
	}
	return context.WithValue(ctx, stackKey, stack)
}

// StackFromContext returns the stack attached by ContextWithStack.
func StackFromContext(ctx context.Context) string {
	s, _ := ctx.Value(stackKey).(string)
	return s
}
