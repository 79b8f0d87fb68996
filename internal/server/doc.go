// Package server provides the gin HTTP server.
//
// Requests pass through request ID assignment, optional tracing, request
// metrics and finally the exception interceptor, so every panic and every
// error attached with c.Error is answered with the JSON error body. Unknown
// routes are answered the same way with a 404.
package server
