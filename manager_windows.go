//go:build windows

package svchost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

// WindowsManager registers and controls services through the Service Control Manager
type WindowsManager struct {
	// PollMin and PollMax bound the status polling interval used by Wait
	PollMin time.Duration
	PollMax time.Duration
}

// NewWindowsManager creates a WindowsManager
func NewWindowsManager() *WindowsManager {
	return &WindowsManager{
		PollMin: DefaultPollMin,
		PollMax: DefaultPollMax,
	}
}

// Name returns "windows"
func (m *WindowsManager) Name() string {
	return "windows"
}

// withService connects to the SCM, opens name and runs fn
func (m *WindowsManager) withService(op Operation, name string, fn func(s *mgr.Service) error) error {
	scm, err := mgr.Connect()
	if err != nil {
		return &OpError{Op: op, Service: name, Err: err}
	}
	defer func() { _ = scm.Disconnect() }()

	s, err := scm.OpenService(name)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return &OpError{Op: op, Service: name, Err: ErrNotInstalled}
		}
		return &OpError{Op: op, Service: name, Err: err}
	}
	defer func() { _ = s.Close() }()

	return wrapOp(op, name, fn(s))
}

// Install creates the service and registers it as an event log source
func (m *WindowsManager) Install(_ context.Context, spec InstallSpec) error {
	scm, err := mgr.Connect()
	if err != nil {
		return &OpError{Op: OpInstall, Service: spec.Name, Err: err}
	}
	defer func() { _ = scm.Disconnect() }()

	if s, err := scm.OpenService(spec.Name); err == nil {
		_ = s.Close()
		return &OpError{Op: OpInstall, Service: spec.Name, Err: ErrAlreadyInstalled}
	}

	cfg := mgr.Config{
		DisplayName:      spec.DisplayName,
		Description:      spec.Description,
		StartType:        windowsStartType(spec.StartMode),
		ServiceStartName: spec.Username,
		Password:         spec.Password,
		DelayedAutoStart: spec.StartMode == StartAutomatic && spec.DelayedAutoStart,
	}

	s, err := scm.CreateService(spec.Name, spec.Executable, cfg, spec.Args...)
	if err != nil {
		return &OpError{Op: OpInstall, Service: spec.Name, Err: err}
	}
	defer func() { _ = s.Close() }()

	if err := eventlog.InstallAsEventCreate(spec.Name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		_ = s.Delete()
		return &OpError{Op: OpInstall, Service: spec.Name, Err: fmt.Errorf("registering event source: %w", err)}
	}

	return nil
}

// Uninstall marks the service for deletion and removes its event source
func (m *WindowsManager) Uninstall(_ context.Context, name string) error {
	return m.withService(OpUninstall, name, func(s *mgr.Service) error {
		var errs MultiError
		errs.Add(s.Delete())
		errs.Add(eventlog.Remove(name))
		return errs.Err()
	})
}

// Start starts the service
func (m *WindowsManager) Start(_ context.Context, name string) error {
	return m.withService(OpStart, name, func(s *mgr.Service) error {
		return s.Start()
	})
}

// Stop sends the stop control
func (m *WindowsManager) Stop(_ context.Context, name string) error {
	return m.withService(OpStop, name, func(s *mgr.Service) error {
		_, err := s.Control(svc.Stop)
		return err
	})
}

// Status queries the service state
func (m *WindowsManager) Status(_ context.Context, name string) (Status, error) {
	var st Status
	err := m.withService(OpStatus, name, func(s *mgr.Service) error {
		q, err := s.Query()
		if err != nil {
			return err
		}
		st.State = windowsState(q.State)
		st.PID = int(q.ProcessId)
		return nil
	})
	if errors.Is(err, ErrNotInstalled) {
		return Status{State: StateNotInstalled}, nil
	}
	return st, err
}

// Wait polls the service state until it reaches one of states
func (m *WindowsManager) Wait(ctx context.Context, name string, states []State) (Status, error) {
	status := func(ctx context.Context) (Status, error) {
		return m.Status(ctx, name)
	}
	st, err := pollWait(ctx, status, states, m.PollMin, m.PollMax)
	return st, wrapOp(OpWait, name, err)
}

func windowsStartType(mode StartMode) uint32 {
	switch mode {
	case StartManual:
		return mgr.StartManual
	case StartDisabled:
		return mgr.StartDisabled
	default:
		return mgr.StartAutomatic
	}
}

func windowsState(s svc.State) State {
	switch s {
	case svc.Stopped:
		return StateStopped
	case svc.StartPending, svc.ContinuePending:
		return StateStartPending
	case svc.Running:
		return StateRunning
	case svc.StopPending, svc.PausePending:
		return StateStopPending
	case svc.Paused:
		return StatePaused
	default:
		return StateUnknown
	}
}
