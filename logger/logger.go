// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultFile is the log file used when none is given on the command line.
const DefaultFile = "autocare.log"

// InitWithOptions initializes the logger. Log level comes from LOG_LEVEL
// (trace, debug, info, warn, error).
// If logFile is empty, logs go to stdout; pretty switches stdout to the
// human-readable console format and is ignored when logFile is set.
func InitWithOptions(logFile string, pretty bool) (zerolog.Logger, error) {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))

	var (
		output io.Writer
		target string
	)
	switch {
	case logFile != "":
		//nolint:gosec // G304: user-specified log file path is intentional
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		output, target = file, logFile
	case pretty:
		output, target = zerolog.ConsoleWriter{Out: os.Stdout}, "stdout (pretty)"
	default:
		output, target = os.Stdout, "stdout"
	}

	log := New(output, level)
	log.Debug().Str("output", target).Str("level", level.String()).Msg("Logger initialized")
	return log, nil
}

// New builds a timestamped logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
