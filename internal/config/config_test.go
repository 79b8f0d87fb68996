package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	assert.Equal(t, DefaultAppName, cfg.AppName)
	assert.True(t, cfg.Enabled)
	assert.Empty(t, cfg.LicenseKey)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.DistributedTracing.Enabled)
	assert.Nil(t, cfg.Attributes.Exclude)
	assert.Equal(t, "otlp.nr-data.net:4317", cfg.Collector.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Collector.Timeout.Duration())
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ReportingEnabled(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.False(t, cfg.ReportingEnabled(), "no licence key")

	cfg.LicenseKey = "abc"
	assert.True(t, cfg.ReportingEnabled())

	cfg.Enabled = false
	assert.False(t, cfg.ReportingEnabled())
}

func TestConfig_StringMasksLicenseKey(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.LicenseKey = "eu01xx-secret-licence-key"

	s := cfg.String()
	assert.NotContains(t, s, "secret-licence")
	assert.Contains(t, s, maskedSecret)
	assert.Contains(t, s, "timeout: 10s")
	assert.Equal(t, "eu01xx-secret-licence-key", cfg.LicenseKey)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{"empty app name", func(c *Config) { c.AppName = " " }, "app_name"},
		{"unknown level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty output", func(c *Config) { c.Log.Output = "" }, "log.output"},
		{"negative rate", func(c *Config) { c.ErrorCollector.MaxPerSecond = -1 }, "error_collector.max_per_second"},
		{"negative burst", func(c *Config) { c.ErrorCollector.Burst = -1 }, "error_collector.burst"},
		{"negative queue", func(c *Config) { c.ErrorCollector.QueueSize = -1 }, "error_collector.queue_size"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = -1 }, "server"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{
			"reporting without endpoint",
			func(c *Config) {
				c.LicenseKey = "abc"
				c.Collector.Endpoint = ""
			},
			"collector.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantPath, verrs[0].Path)
		})
	}
}

func TestConfig_ValidateAcceptsTraceLevel(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Log.Level = "TRACE"
	cfg.Log.Format = "console"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateWithoutLicenseKeyIgnoresCollector(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Collector.Endpoint = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "a: bad", ValidationErrors{{Path: "a", Message: "bad"}}.Error())

	multi := ValidationErrors{{Path: "a", Message: "bad"}, {Message: "worse"}}.Error()
	assert.Contains(t, multi, "2 validation errors")
	assert.Contains(t, multi, "1. a: bad")
	assert.Contains(t, multi, "2. worse")
}
