//go:build linux

package svchost

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// SystemdManager registers and controls services as systemd units
type SystemdManager struct {
	// UnitDir is the directory where unit files are written
	UnitDir string

	// SystemctlPath is the path to the systemctl binary
	SystemctlPath string

	// PollMin and PollMax bound the status polling interval used by Wait
	PollMin time.Duration
	PollMax time.Duration
}

// SystemdOption configures a SystemdManager
type SystemdOption func(*SystemdManager)

// WithUnitDir sets the systemd unit directory
func WithUnitDir(dir string) SystemdOption {
	return func(m *SystemdManager) {
		m.UnitDir = dir
	}
}

// WithSystemctlPath sets the systemctl binary
func WithSystemctlPath(path string) SystemdOption {
	return func(m *SystemdManager) {
		m.SystemctlPath = path
	}
}

// NewSystemdManager creates a SystemdManager for the system instance of systemd
func NewSystemdManager(opts ...SystemdOption) *SystemdManager {
	m := &SystemdManager{
		UnitDir:       "/etc/systemd/system",
		SystemctlPath: "systemctl",
		PollMin:       DefaultPollMin,
		PollMax:       DefaultPollMax,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns "systemd"
func (m *SystemdManager) Name() string {
	return "systemd"
}

func (m *SystemdManager) unitPath(name string) string {
	return filepath.Join(m.UnitDir, systemdUnitName(name))
}

// systemctl runs a systemctl command and returns its standard output
func (m *SystemdManager) systemctl(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, m.SystemctlPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("systemctl %s: %w", args[0], ctx.Err())
		}
		return "", fmt.Errorf("systemctl %s: %w (stderr: %s)", args[0], err, stderr.String())
	}

	return stdout.String(), nil
}

// Install writes the unit file, reloads systemd and enables automatic units
func (m *SystemdManager) Install(ctx context.Context, spec InstallSpec) error {
	path := m.unitPath(spec.Name)
	if _, err := os.Stat(path); err == nil {
		return &OpError{Op: OpInstall, Service: spec.Name, Err: ErrAlreadyInstalled}
	}

	if err := renameio.WriteFile(path, []byte(renderSystemdUnit(spec)), 0o644); err != nil {
		return &OpError{Op: OpInstall, Service: spec.Name, Err: err}
	}

	if _, err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return &OpError{Op: OpInstall, Service: spec.Name, Err: err}
	}

	if spec.StartMode == StartAutomatic {
		if _, err := m.systemctl(ctx, "enable", systemdUnitName(spec.Name)); err != nil {
			return &OpError{Op: OpInstall, Service: spec.Name, Err: err}
		}
	}

	return nil
}

// Uninstall stops and disables the unit, removes its file and reloads systemd
func (m *SystemdManager) Uninstall(ctx context.Context, name string) error {
	path := m.unitPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &OpError{Op: OpUninstall, Service: name, Err: ErrNotInstalled}
	}

	unit := systemdUnitName(name)

	// Stop and disable are best effort; the unit may be neither running nor enabled
	_, _ = m.systemctl(ctx, "stop", unit)
	_, _ = m.systemctl(ctx, "disable", unit)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &OpError{Op: OpUninstall, Service: name, Err: err}
	}

	if _, err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return &OpError{Op: OpUninstall, Service: name, Err: err}
	}

	return nil
}

// Start starts the unit
func (m *SystemdManager) Start(ctx context.Context, name string) error {
	_, err := m.systemctl(ctx, "start", "--no-block", systemdUnitName(name))
	return wrapOp(OpStart, name, err)
}

// Stop stops the unit
func (m *SystemdManager) Stop(ctx context.Context, name string) error {
	_, err := m.systemctl(ctx, "stop", "--no-block", systemdUnitName(name))
	return wrapOp(OpStop, name, err)
}

// Status reads the unit's state from systemctl show
func (m *SystemdManager) Status(ctx context.Context, name string) (Status, error) {
	out, err := m.systemctl(ctx, "show", "--no-page",
		"-p", "LoadState,ActiveState,SubState,MainPID,StateChangeTimestamp",
		systemdUnitName(name))
	if err != nil {
		return Status{}, wrapOp(OpStatus, name, err)
	}
	return parseSystemdShow(out), nil
}

// Wait polls the unit's status until it reaches one of states
func (m *SystemdManager) Wait(ctx context.Context, name string, states []State) (Status, error) {
	status := func(ctx context.Context) (Status, error) {
		return m.Status(ctx, name)
	}
	st, err := pollWait(ctx, status, states, m.PollMin, m.PollMax)
	if err != nil {
		return st, wrapOp(OpWait, name, err)
	}
	return st, nil
}
