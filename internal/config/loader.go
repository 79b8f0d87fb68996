package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override except PORT.
const EnvPrefix = "NEW_RELIC"

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// envOverrides holds the NEW_RELIC_* variables. Nil fields were not set.
type envOverrides struct {
	AppName                   *string  `split_words:"true"`
	LicenseKey                *string  `split_words:"true"`
	Enabled                   *bool    `split_words:"true"`
	LogLevel                  *string  `split_words:"true"`
	DistributedTracingEnabled *bool    `split_words:"true"`
	AttributesExclude         []string `split_words:"true"`
	OTLPEndpoint              *string  `split_words:"true"`
}

type portOverride struct {
	Port *int
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}

		data, err := os.ReadFile(absPath) //nolint:gosec // path is operator supplied
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := parseInto(cfg, data); err != nil {
			return nil, err
		}
	}

	return finish(cfg)
}

// LoadFromReader is Load with the YAML document read from r.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := parseInto(cfg, data); err != nil {
		return nil, err
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseInto decodes YAML over cfg, keeping values the document omits.
func parseInto(cfg *Config, data []byte) error {
	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func substituteEnvVars(content string) string {
	// $$ escapes a literal dollar sign.
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return defaultValue
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

// applyEnv overlays the environment variables that are set.
func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read %s_* environment: %w", EnvPrefix, err)
	}

	if env.AppName != nil {
		cfg.AppName = *env.AppName
	}
	if env.LicenseKey != nil {
		cfg.LicenseKey = *env.LicenseKey
	}
	if env.Enabled != nil {
		cfg.Enabled = *env.Enabled
	}
	if env.LogLevel != nil {
		cfg.Log.Level = *env.LogLevel
	}
	if env.DistributedTracingEnabled != nil {
		cfg.DistributedTracing.Enabled = *env.DistributedTracingEnabled
	}
	if env.AttributesExclude != nil {
		cfg.Attributes.Exclude = trimAll(env.AttributesExclude)
	}
	if env.OTLPEndpoint != nil {
		cfg.Collector.Endpoint = *env.OTLPEndpoint
	}

	var port portOverride
	if err := envconfig.Process("", &port); err != nil {
		return fmt.Errorf("failed to read PORT: %w", err)
	}
	if port.Port != nil {
		cfg.Server.Port = *port.Port
	}

	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
