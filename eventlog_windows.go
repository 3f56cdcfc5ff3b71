//go:build windows

package svchost

import (
	"github.com/rs/zerolog"
	"golang.org/x/sys/windows/svc/eventlog"
)

// Event IDs written to the Windows event log
const (
	eventIDInfo  = 1
	eventIDError = 2
)

// windowsEventLog writes to the Windows application event log and mirrors
// every entry to the logger
type windowsEventLog struct {
	log    *eventlog.Log
	logger zerolog.Logger
}

// openEventLog returns the event log for source. It falls back to the logger
// when the source was never registered.
func openEventLog(source string, logger zerolog.Logger) EventLog {
	l, err := eventlog.Open(source)
	if err != nil {
		logger.Debug().Err(err).Str("source", source).Msg("event log unavailable")
		return loggerEventLog{logger: logger}
	}
	return &windowsEventLog{log: l, logger: logger}
}

func (w *windowsEventLog) Info(msg string) {
	_ = w.log.Info(eventIDInfo, msg)
	w.logger.Info().Msg(msg)
}

func (w *windowsEventLog) Error(msg string) {
	_ = w.log.Error(eventIDError, msg)
	w.logger.Error().Msg(msg)
}

func (w *windowsEventLog) Close() error {
	return w.log.Close()
}
