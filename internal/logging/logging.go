package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New constructs the service logger. Development gets a human readable
// console writer, everything else gets JSON lines on stderr.
func New(appEnv, level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, appEnv, level)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, appEnv, level string) zerolog.Logger {
	lvl := ParseLevel(level, appEnv)

	if appEnv == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// ParseLevel resolves a level name, defaulting to debug in development and
// info elsewhere
func ParseLevel(level, appEnv string) zerolog.Level {
	if level = strings.TrimSpace(level); level != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
	}
	if appEnv == "development" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
