// pkg/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logWriter io.Writer

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// ConfigureGlobal sets the global log level and rebuilds the global logger.
// Run-scoped loggers for the orchestrator and unit runners are derived from
// it via With(), so lifecycle context (run_id, unit) travels with each line.
func ConfigureGlobal(levelStr string) {
	level := ParseLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(logWriter).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to error.
func ParseLevel(levelStr string) zerolog.Level {
	if levelStr == "" {
		return zerolog.ErrorLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Error().Err(err).Str("logLevel", levelStr).Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// SetLogWriter replaces the destination used by ConfigureGlobal; tests use it
// to capture output.
func SetLogWriter(w io.Writer) {
	logWriter = w
}
