package config

import (
	"fmt"
	"strings"
)

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the configuration. A missing licence key is not an
// error: reporting is simply off (see ReportingEnabled).
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.AppName) == "" {
		add("app_name", "is required")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "unknown level %q", c.Log.Level)
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		add("log.format", "unknown format %q", c.Log.Format)
	}
	if c.Log.Output == "" {
		add("log.output", "is required")
	}

	if c.ReportingEnabled() {
		if c.Collector.Endpoint == "" {
			add("collector.endpoint", "is required when reporting is enabled")
		}
		if c.Collector.Timeout < 0 {
			add("collector.timeout", "must not be negative")
		}
	}

	if c.ErrorCollector.MaxPerSecond < 0 {
		add("error_collector.max_per_second", "must not be negative")
	}
	if c.ErrorCollector.Burst < 0 {
		add("error_collector.burst", "must not be negative")
	}
	if c.ErrorCollector.QueueSize < 0 {
		add("error_collector.queue_size", "must not be negative")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		add("server", "timeouts must not be negative")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path", "must start with /")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
