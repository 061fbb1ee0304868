package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the package-level logger every component derives its
// component-scoped child from.
var Logger zerolog.Logger

func init() {
	// Disabled by default: importing this library is silent unless the
	// embedder calls Init.
	Logger = zerolog.New(io.Discard).Level(zerolog.Disabled)
}

// Level mirrors zerolog's levels without exposing the dependency to
// callers that only want to configure one.
type Level string

const (
	DebugLevel    Level = "debug"
	InfoLevel     Level = "info"
	WarnLevel     Level = "warn"
	ErrorLevel    Level = "error"
	DisabledLevel Level = "disabled"
)

// Config configures the global logger.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init installs the global logger. Safe to call multiple times; the last
// call wins.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	case DisabledLevel, "":
		level = zerolog.Disabled
	default:
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagged with the given component
// name.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithRunID returns a child logger additionally tagged with a manager run
// id, so log lines from several concurrent MultipolygonManager instances
// in one process stay distinguishable.
func WithRunID(component, runID string) zerolog.Logger {
	return Logger.With().Str("component", component).Str("run_id", runID).Logger()
}
