package interceptor

import (
	"errors"
	"net/http"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/httperr"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

// UnexpectedErrorMessage answers exceptions that expose no message.
const UnexpectedErrorMessage = "Unexpected error"

// Outcome is the response an exception is answered with.
type Outcome struct {
	Status  int
	Message string
	// Kind is one of the observability.Kind* labels.
	Kind string
}

// Classify maps any exception value to its Outcome. It never fails:
// values without a recognised status get 500, values without a message get
// UnexpectedErrorMessage.
func Classify(exc any) Outcome {
	out := Outcome{
		Status:  http.StatusInternalServerError,
		Message: UnexpectedErrorMessage,
		Kind:    observability.KindPanicValue,
	}

	err, ok := exc.(error)
	if !ok {
		return out
	}
	out.Kind = observability.KindError

	if status, ok := httperr.StatusOf(err); ok {
		out.Status = status
		out.Kind = observability.KindHTTPError
	}

	if msg := messageOf(err); msg != "" {
		out.Message = msg
	}
	return out
}

// messageOf returns the client-facing message of err. When an
// *httperr.Error is anywhere in the chain its Message is used, so neither
// the wrapping context nor its cause reaches the client. A typed nil error
// whose Error method panics has no message.
func messageOf(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()

	var he *httperr.Error
	if errors.As(err, &he) && he != nil {
		return he.Message
	}
	return err.Error()
}

// traceOf returns the stack trace recorded for exc, preferring the one
// captured when a panic was recovered.
func traceOf(recovered string, exc any) string {
	if recovered != "" {
		return recovered
	}
	if err, ok := exc.(error); ok {
		return httperr.StackOf(err)
	}
	return ""
}
