//go:build windows

package svchost

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows/svc"
)

// Service specific exit codes reported to the Service Control Manager
const (
	exitStartFailed = 1
	exitStopFailed  = 2
	exitPanic       = 3
)

// serviceHandler adapts a Workload to svc.Handler
type serviceHandler struct {
	ctx      context.Context
	cfg      *Configuration
	workload Workload
	elog     EventLog
	logger   zerolog.Logger
	err      error
}

// Execute starts the workload and stops it on a Stop or Shutdown request
func (s *serviceHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, code uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown
	name := s.cfg.InstancedServiceName()

	// Execute runs on the service dispatcher's goroutine
	defer func() {
		if r := recover(); r != nil {
			s.err = &OpError{Op: OpRun, Service: name, Err: fmt.Errorf("panic: %v", r)}
			ssec, code = true, exitPanic
		}
	}()

	changes <- svc.Status{State: svc.StartPending}

	if err := s.workload.Start(s.ctx); err != nil {
		if s.workload.Closer != nil {
			_ = s.workload.Closer.Close()
		}
		s.err = &OpError{Op: OpRun, Service: name, Err: err}
		return true, exitStartFailed
	}

	changes <- svc.Status{State: svc.Running, Accepts: accepted}
	s.elog.Info(fmt.Sprintf("%s started", name))

loop:
	for {
		select {
		case c := <-requests:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info().Uint32("cmd", uint32(c.Cmd)).Msg("stopping")
				break loop
			default:
				s.logger.Debug().Uint32("cmd", uint32(c.Cmd)).Msg("unexpected control request")
			}
		case <-s.ctx.Done():
			break loop
		}
	}

	changes <- svc.Status{State: svc.StopPending}

	stopCtx, cancel := stopContext(s.ctx, s.cfg.Timeout())
	defer cancel()

	if err := s.workload.shutdown(stopCtx); err != nil {
		s.err = &OpError{Op: OpStop, Service: name, Err: err}
		return true, exitStopFailed
	}

	s.elog.Info(fmt.Sprintf("%s stopped", name))
	return false, 0
}

// runDaemon hands control to the Service Control Manager. Every failure,
// including a panic, is written to the event log.
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

	handler := &serviceHandler{
		ctx:      ctx,
		cfg:      cfg,
		workload: w,
		elog:     elog,
		logger:   logger,
	}

	if err := svc.Run(name, handler); err != nil {
		return &OpError{Op: OpRun, Service: name, Err: err}
	}
	return handler.err
}
