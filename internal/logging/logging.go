// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers, adapted from cuemby-warren's pkg/log.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, configured once via Init.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// Level mirrors the subset of zerolog levels exposed through configuration.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds the fields internal/config.Config.Logging maps onto.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init reconfigures the global logger. Safe to call once at startup from
// cmd/reifydb before any subsystem is constructed.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
}

// WithComponent returns a child logger tagging every entry with the
// subsystem that produced it (e.g. "txn", "retention", "flow").
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithFlow returns a child logger scoped to one registered flow.
func WithFlow(flowID string) zerolog.Logger {
	return Logger.With().Str("flow_id", flowID).Logger()
}
