// Package sysutil holds process-level helpers shared by the commands:
// global logger setup and small string utilities.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a LOG_LEVEL value to a zerolog level. Supported values
// (case-insensitive): debug, info, warn|warning, error, fatal, panic.
// Anything else is info.
func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// ConfigureLogger sets the global zerolog level and replaces log.Logger
// with a timestamped logger writing to w (stderr when nil). Pretty selects
// the human-readable console writer for local development.
func ConfigureLogger(level string, pretty bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// FirstNonEmpty returns the first value that is not blank, unchanged. If all
// values are blank it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
