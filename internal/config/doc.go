// Package config loads the service configuration.
//
// Configuration is read once at startup from an optional YAML file and the
// environment, then treated as immutable. Values are resolved in order:
//
//  1. defaults (see Default)
//  2. the YAML file, after ${VAR} and ${VAR:-default} substitution
//  3. NEW_RELIC_* environment variables and PORT
//
// Load a configuration:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The licence key is masked whenever the configuration is printed.
package config
