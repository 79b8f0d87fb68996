package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultAppName          = "rsssb-api"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultLogOutput        = "stdout"
	DefaultCollectorAddress = "otlp.nr-data.net:4317"
	DefaultCollectorTimeout = 10 * time.Second
	DefaultMaxPerSecond     = 100
	DefaultBurst            = 100
	DefaultQueueSize        = 1024
	DefaultPort             = 3000
	DefaultServerTimeout    = 30 * time.Second
	DefaultMetricsPath      = "/metrics"
)

const maskedSecret = "****"

// Config is the complete service configuration.
type Config struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	// Enabled turns error reporting to the collector on. It has no effect
	// without a licence key.
	Enabled bool `yaml:"enabled"`

	Log                LogConfig                `yaml:"log"`
	DistributedTracing DistributedTracingConfig `yaml:"distributed_tracing"`
	Attributes         AttributesConfig         `yaml:"attributes"`
	Collector          CollectorConfig          `yaml:"collector"`
	ErrorCollector     ErrorCollectorConfig     `yaml:"error_collector"`
	Server             ServerConfig             `yaml:"server"`
	Metrics            MetricsConfig            `yaml:"metrics"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	// Access logs one line per completed request.
	Access bool `yaml:"access"`
}

// DistributedTracingConfig configures trace context propagation.
type DistributedTracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AttributesConfig configures which attributes are kept off error notices.
type AttributesConfig struct {
	// Exclude lists attribute names; a trailing * matches any suffix.
	// Empty means the built-in list.
	Exclude []string `yaml:"exclude"`
}

// CollectorConfig configures the OTLP endpoint notices are exported to.
type CollectorConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Insecure bool     `yaml:"insecure"`
	Timeout  Duration `yaml:"timeout"`
}

// ErrorCollectorConfig bounds the error notice pipeline.
type ErrorCollectorConfig struct {
	MaxPerSecond float64 `yaml:"max_per_second"`
	Burst        int     `yaml:"burst"`
	QueueSize    int     `yaml:"queue_size"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		AppName: DefaultAppName,
		Enabled: true,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
			Access: true,
		},
		DistributedTracing: DistributedTracingConfig{Enabled: true},
		Collector: CollectorConfig{
			Endpoint: DefaultCollectorAddress,
			Timeout:  Duration(DefaultCollectorTimeout),
		},
		ErrorCollector: ErrorCollectorConfig{
			MaxPerSecond: DefaultMaxPerSecond,
			Burst:        DefaultBurst,
			QueueSize:    DefaultQueueSize,
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     Duration(DefaultServerTimeout),
			WriteTimeout:    Duration(DefaultServerTimeout),
			ShutdownTimeout: Duration(DefaultServerTimeout),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

// ReportingEnabled reports whether error notices are sent to the collector.
func (c *Config) ReportingEnabled() bool {
	return c.Enabled && c.LicenseKey != ""
}

// String renders the configuration as YAML with the licence key masked.
func (c *Config) String() string {
	masked := *c
	if masked.LicenseKey != "" {
		masked.LicenseKey = maskedSecret
	}

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return "<invalid config>"
	}
	return string(out)
}
