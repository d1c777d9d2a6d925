// Package logging configures the zerolog root logger that every
// component logger derives from via With().Str("component", ...).
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output. Unknown values fall
	// back to info.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// Setup configures and returns the root logger. The zerolog global
// logger is pointed at the same sink so stray zerolog/log calls land
// in the configured output too.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Resolution chain layer hits (index, memo, remote)
//   - Session lifecycle (created, consumed, expired)
//   - Gate scheduling decisions
//
// Info: Normal operation events
//   - Remote lookups that resolved a new name
//   - Bulk dataset load completion
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Single-market query failures (siblings unaffected)
//   - Material prices that could not be resolved
//   - Provider errors degraded to a reply message
//
// Error: Error conditions requiring attention
//   - Bulk dataset load failure (index stays not-ready)
//   - Configuration errors
//   - Sink delivery failures
//
// Context Fields:
//   - component: emitting component name
//   - endpoint: provider endpoint (lookup, orders, types, groups, offers, dataset)
//   - status: HTTP status code
//   - error_class: error classification (client, server, network)
//   - market: trading venue name
//   - type_id: item identifier
//   - session_id: interactive session identifier
