// Package interceptor turns any exception raised while handling a request
// into a JSON error response.
//
// An exception is a recovered panic value or an error returned by a
// handler. Every exception is answered with
//
//	{"statusCode": S, "message": M}
//
// where S is the status carried by the error (see package httperr) or 500,
// and M is the error's message or "Unexpected error". Before the response
// is written the exception is logged once at error level with its stack
// trace and handed, unmodified, to the telemetry notifier. Both side effects
// are best-effort: a failing logger or notifier never keeps the client from
// getting its response.
//
// Recover and Wrap install the Handler in a net/http middleware chain; Gin
// installs it in a gin engine.
package interceptor
