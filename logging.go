package svchost

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables that override logger defaults
const (
	EnvLogLevel   = "SVCHOST_LOG_LEVEL"
	EnvLogNoColor = "SVCHOST_LOG_NOCOLOR"
)

// logConfig is the resolved logger configuration
type logConfig struct {
	level   zerolog.Level
	noColor bool
}

// NewLogger returns the host logger writing to w.
//
// Interactive sessions get human readable console output; services write JSON
// lines for the service manager's log capture.
func NewLogger(w io.Writer, app string, interactive bool) zerolog.Logger {
	cfg := logConfig{level: zerolog.InfoLevel}
	applyEnvOverrides(&cfg)

	out := w
	if interactive {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.noColor,
		}
	}

	return zerolog.New(out).
		Level(cfg.level).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}

func applyEnvOverrides(cfg *logConfig) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.noColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
