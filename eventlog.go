package svchost

import "github.com/rs/zerolog"

// EventLog records daemon lifecycle events where the platform keeps them
type EventLog interface {
	Info(msg string)
	Error(msg string)
	Close() error
}

// loggerEventLog writes events through zerolog; under systemd and runit the
// output is captured by the journal or svlogd
type loggerEventLog struct {
	logger zerolog.Logger
}

func (l loggerEventLog) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l loggerEventLog) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l loggerEventLog) Close() error {
	return nil
}
