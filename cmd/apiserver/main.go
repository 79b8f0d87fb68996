// Package main is the entry point for the API server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/config"
	"github.com/Rwanda-Social-Security-Board/rsssb.newrelic.github/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg, flags)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting apiserver",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.String("app_name", cfg.AppName),
		observability.Bool("reporting", cfg.ReportingEnabled()),
	)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", observability.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	if err := run(app); err != nil {
		logger.Error("apiserver stopped with error", observability.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// parseFlags parses command line flags.
func parseFlags(args []string) cliFlags {
	fs := flag.NewFlagSet("apiserver", flag.ExitOnError)

	configPath := fs.String("config", getEnvOrDefault("APISERVER_CONFIG_PATH", ""),
		"Path to configuration file (optional)")
	logLevel := fs.String("log-level", "",
		"Log level (trace, debug, info, warn, error); overrides the configuration")
	logFormat := fs.String("log-format", "",
		"Log format (json, console); overrides the configuration")
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(args)

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("apiserver version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// logConfig merges the configured logging with command line overrides.
func logConfig(cfg *config.Config, flags cliFlags) observability.LogConfig {
	lc := observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		InitialFields: map[string]string{
			"app": cfg.AppName,
		},
	}
	if flags.logLevel != "" {
		lc.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		lc.Format = flags.logFormat
	}
	return lc
}

// initLogger initializes the logger.
func initLogger(cfg *config.Config, flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(logConfig(cfg, flags))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}
