package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/internal/config"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

// NewLogger configures the default logger from the application
// configuration and returns it.
//
// Log level precedence (highest to lowest):
//  1. --log-level flag (explicit always wins)
//  2. -v/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. LOG_LEVEL environment variable
//  5. Default (info)
func NewLogger(cfg *config.Config) zerolog.Logger {
	logging.Configure(&logging.Config{
		Level:   determineLogLevel(cfg),
		Format:  cfg.LogFormat,
		Output:  cfg.LogOutput,
		NoColor: cfg.NoColor,
	})
	return *logging.Default()
}

// determineLogLevel applies the precedence rules.
func determineLogLevel(cfg *config.Config) string {
	if cfg.LogLevel != "" {
		return validateLogLevel(cfg.LogLevel)
	}

	if cfg.Verbose && cfg.Quiet {
		fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		return "warn"
	}
	if cfg.Verbose {
		return "debug"
	}
	if cfg.Quiet {
		return "warn"
	}

	return "info"
}

// validateLogLevel falls back to info on unknown levels.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using \"info\"\n", level)
	return "info"
}
