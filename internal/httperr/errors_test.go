package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        *Error
		wantStatus int
		wantMsg    string
	}{
		{name: "bad request", err: BadRequest("bad input"), wantStatus: http.StatusBadRequest, wantMsg: "bad input"},
		{name: "unauthorized", err: Unauthorized(""), wantStatus: http.StatusUnauthorized, wantMsg: "Unauthorized"},
		{name: "forbidden", err: Forbidden("no"), wantStatus: http.StatusForbidden, wantMsg: "no"},
		{name: "not found", err: NotFound("Not Found"), wantStatus: http.StatusNotFound, wantMsg: "Not Found"},
		{name: "internal", err: Internal(""), wantStatus: http.StatusInternalServerError, wantMsg: "Internal Server Error"},
		{name: "new", err: New(http.StatusTeapot, ""), wantStatus: http.StatusTeapot, wantMsg: "I'm a teapot"},
		{name: "errorf", err: Errorf(http.StatusUnprocessableEntity, "field %s", "name"), wantStatus: 422, wantMsg: "field name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Wrap(http.StatusBadGateway, "upstream failed", cause)

	assert.Equal(t, "upstream failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upstream failed", err.Message)
}

func TestIs(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, NotFound("user"), New(http.StatusNotFound, "other"))
	assert.NotErrorIs(t, NotFound("user"), New(http.StatusConflict, "other"))
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
	}{
		{name: "direct", err: NotFound("x"), wantStatus: 404, wantOK: true},
		{name: "wrapped", err: fmt.Errorf("loading: %w", Forbidden("x")), wantStatus: 403, wantOK: true},
		{name: "plain error", err: errors.New("divide by zero"), wantOK: false},
		{name: "nil", err: nil, wantOK: false},
		{name: "out of range", err: &Error{Status: 42, Message: "bogus"}, wantOK: false},
		{name: "custom coder", err: statusErr(http.StatusTooManyRequests), wantStatus: 429, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, ok := StatusOf(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestStackTrace(t *testing.T) {
	t.Parallel()

	err := NotFound("missing")

	require.NotEmpty(t, err.StackTrace())
	assert.Contains(t, err.StackTrace(), "TestStackTrace")
	assert.NotContains(t, err.StackTrace(), "httperr.newError")
	assert.Equal(t, err.StackTrace(), StackOf(fmt.Errorf("wrapped: %w", err)))
	assert.Empty(t, StackOf(errors.New("plain")))
}

type statusErr int

func (s statusErr) Error() string   { return http.StatusText(int(s)) }
func (s statusErr) StatusCode() int { return int(s) }
