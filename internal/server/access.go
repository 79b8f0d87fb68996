package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

// DefaultSensitiveParams are query parameters redacted in access logs.
var DefaultSensitiveParams = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"apikey",
	"access_token",
	"refresh_token",
	"license_key",
}

// AccessLogConfig holds configuration for access logging.
type AccessLogConfig struct {
	Logger observability.Logger

	// SkipPaths is a list of paths to skip logging.
	SkipPaths []string

	// SensitiveParams is a list of query parameters to redact.
	// Nil means DefaultSensitiveParams.
	SensitiveParams []string
}

// AccessLog returns a middleware that logs one entry per completed request.
// Failed requests are logged at warn level: the exception interceptor owns
// the single error-level entry for each exception.
func AccessLog(cfg AccessLogConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}
	if cfg.SensitiveParams == nil {
		cfg.SensitiveParams = DefaultSensitiveParams
	}

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}
	sensitive := make(map[string]bool, len(cfg.SensitiveParams))
	for _, p := range cfg.SensitiveParams {
		sensitive[strings.ToLower(p)] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipPaths[path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		fields := []observability.Field{
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.Int("status", status),
			observability.Duration("latency", latency),
			observability.String("client_ip", c.ClientIP()),
			observability.Int("response_size", c.Writer.Size()),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, observability.String("query", redactQueryParams(query, sensitive)))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, observability.String("user_agent", ua))
		}

		logger := cfg.Logger.WithContext(c.Request.Context())
		if status >= 400 {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}

// redactQueryParams redacts sensitive query parameters.
func redactQueryParams(query string, sensitive map[string]bool) string {
	parts := strings.Split(query, "&")
	for i, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && sensitive[strings.ToLower(kv[0])] {
			parts[i] = kv[0] + "=[REDACTED]"
		}
	}
	return strings.Join(parts, "&")
}
