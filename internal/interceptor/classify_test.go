package interceptor

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/httperr"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

type teapotError struct{}

func (teapotError) Error() string   { return "short and stout" }
func (teapotError) StatusCode() int { return http.StatusTeapot }

func TestClassify(t *testing.T) {
	t.Parallel()

	var typedNil *httperr.Error

	tests := []struct {
		name string
		exc  any
		want Outcome
	}{
		{
			name: "not found without message",
			exc:  httperr.NotFound(""),
			want: Outcome{Status: 404, Message: "Not Found", Kind: observability.KindHTTPError},
		},
		{
			name: "http error keeps client message",
			exc:  httperr.Wrap(http.StatusBadGateway, "upstream failed", errors.New("dial tcp: refused")),
			want: Outcome{Status: 502, Message: "upstream failed", Kind: observability.KindHTTPError},
		},
		{
			name: "wrapped http error",
			exc:  fmt.Errorf("loading user: %w", httperr.Forbidden("no access")),
			want: Outcome{Status: 403, Message: "no access", Kind: observability.KindHTTPError},
		},
		{
			name: "wrapped http error hides its cause",
			exc: fmt.Errorf("loading user: %w", httperr.Wrap(http.StatusServiceUnavailable, "Service Unavailable",
				errors.New("dial tcp 10.0.0.3:5432: connection refused"))),
			want: Outcome{Status: 503, Message: "Service Unavailable", Kind: observability.KindHTTPError},
		},
		{
			name: "custom status coder",
			exc:  teapotError{},
			want: Outcome{Status: 418, Message: "short and stout", Kind: observability.KindHTTPError},
		},
		{
			name: "plain error",
			exc:  errors.New("divide by zero"),
			want: Outcome{Status: 500, Message: "divide by zero", Kind: observability.KindError},
		},
		{
			name: "error with empty message",
			exc:  errors.New(""),
			want: Outcome{Status: 500, Message: UnexpectedErrorMessage, Kind: observability.KindError},
		},
		{
			name: "out of range status",
			exc:  httperr.New(42, "odd"),
			want: Outcome{Status: 500, Message: "odd", Kind: observability.KindError},
		},
		{
			name: "informational status",
			exc:  httperr.New(http.StatusContinue, "later"),
			want: Outcome{Status: 500, Message: "later", Kind: observability.KindError},
		},
		{
			name: "typed nil http error",
			exc:  typedNil,
			want: Outcome{Status: 500, Message: UnexpectedErrorMessage, Kind: observability.KindError},
		},
		{
			name: "string",
			exc:  "boom",
			want: Outcome{Status: 500, Message: UnexpectedErrorMessage, Kind: observability.KindPanicValue},
		},
		{
			name: "integer",
			exc:  42,
			want: Outcome{Status: 500, Message: UnexpectedErrorMessage, Kind: observability.KindPanicValue},
		},
		{
			name: "nil",
			exc:  nil,
			want: Outcome{Status: 500, Message: UnexpectedErrorMessage, Kind: observability.KindPanicValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.exc))
		})
	}
}

func TestTraceOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "recovered", traceOf("recovered", httperr.Internal("")))
	assert.Contains(t, traceOf("", httperr.Internal("")), "TestTraceOf")
	assert.Empty(t, traceOf("", errors.New("plain")))
	assert.Empty(t, traceOf("", "string"))
}
