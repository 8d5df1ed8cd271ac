package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application logger instance
var Logger = zerolog.Nop()

// Init initializes the process logger on stdout and installs it globally
func Init(level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level, zerolog.InfoLevel))
	Logger = New(os.Stdout, format)
	log.Logger = Logger
}

// New builds a logger writing to w. format "json" emits one JSON object per
// line, anything else is the colored console format.
func New(w io.Writer, format string) zerolog.Logger {
	if strings.ToLower(format) == "json" {
		return zerolog.New(w).With().
			Timestamp().
			Caller().
			Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().
		Timestamp().
		Logger()
}

// ForCLI returns a console logger on w filtered at level, defaulting to warn
// so command output stays clean.
func ForCLI(w io.Writer, level string) zerolog.Logger {
	return New(w, "console").Level(ParseLevel(level, zerolog.WarnLevel))
}

// ParseLevel parses a level name, returning fallback for unknown names
func ParseLevel(level string, fallback zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return fallback
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
