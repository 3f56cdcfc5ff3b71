//go:build unix

package svchost

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/axondata/go-svchost/internal/unix"
)

// runDaemon runs w under a Unix service manager until SIGTERM or SIGINT.
// Every failure, including a panic, is written to the event log.
func (h *Host) runDaemon(ctx context.Context, cfg *Configuration, w Workload, logger zerolog.Logger) (err error) {
	name := cfg.InstancedServiceName()
	elog := openEventLog(name, logger)
	defer func() { _ = elog.Close() }()

	defer func() {
		if r := recover(); r != nil {
			err = &OpError{Op: OpRun, Service: name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			elog.Error(err.Error())
		}
	}()

	interrupts, release := h.interruptChannel(unix.Signals()...)
	defer release()

	if err := w.Start(ctx); err != nil {
		if w.Closer != nil {
			_ = w.Closer.Close()
		}
		return &OpError{Op: OpRun, Service: name, Err: err}
	}
	elog.Info(fmt.Sprintf("%s started", name))

	select {
	case sig, ok := <-interrupts:
		if ok {
			logger.Info().Str("signal", sig.String()).Msg("stopping")
		}
	case <-ctx.Done():
		logger.Info().Err(ctx.Err()).Msg("stopping")
	}

	stopCtx, cancel := stopContext(ctx, cfg.Timeout())
	defer cancel()

	if err := w.shutdown(stopCtx); err != nil {
		return &OpError{Op: OpStop, Service: name, Err: err}
	}

	elog.Info(fmt.Sprintf("%s stopped", name))
	return nil
}
