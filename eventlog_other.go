//go:build !windows

package svchost

import "github.com/rs/zerolog"

// openEventLog returns the event log for source
func openEventLog(source string, logger zerolog.Logger) EventLog {
	return loggerEventLog{logger: logger.With().Str("source", source).Logger()}
}
