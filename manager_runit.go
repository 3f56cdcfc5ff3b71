//go:build linux || darwin

package svchost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/axondata/go-svchost/internal/unix"
)

// runit defaults
const (
	// DefaultRunitServiceDir holds the service directories
	DefaultRunitServiceDir = "/etc/sv"

	// DefaultRunitScanDir is the directory runsvdir supervises
	DefaultRunitScanDir = "/etc/service"

	// DefaultChpstPath is the default path to the chpst binary
	DefaultChpstPath = "chpst"

	// DefaultSvlogdPath is the default path to the svlogd binary
	DefaultSvlogdPath = "svlogd"

	// DefaultWatchDebounce is the default debounce time for status file watching
	DefaultWatchDebounce = 25 * time.Millisecond

	// DefaultDialTimeout is the default timeout for control socket connections
	DefaultDialTimeout = 2 * time.Second

	// DefaultWriteTimeout is the default timeout for control write operations
	DefaultWriteTimeout = 1 * time.Second

	// DefaultBackoffMin is the minimum backoff duration for retries
	DefaultBackoffMin = 10 * time.Millisecond

	// DefaultBackoffMax is the maximum backoff duration for retries
	DefaultBackoffMax = 1 * time.Second

	// DefaultMaxAttempts is the default maximum number of retry attempts
	DefaultMaxAttempts = 10
)

// File modes for generated service directories
const (
	dirMode  = 0o755
	fileMode = 0o644
	execMode = 0o755
)

// RunitManager registers and controls services supervised by runit.
// It talks to supervise through the control FIFO and status file directly,
// without shelling out to sv.
type RunitManager struct {
	// ServiceDir holds one directory per installed service
	ServiceDir string

	// ScanDir is the runsvdir directory that service directories are linked into
	ScanDir string

	// ChpstPath and SvlogdPath are written into generated scripts
	ChpstPath  string
	SvlogdPath string

	// DialTimeout is the timeout for establishing control socket connections
	DialTimeout time.Duration

	// WriteTimeout is the timeout for writing control commands
	WriteTimeout time.Duration

	// BackoffMin is the minimum duration between retry attempts
	BackoffMin time.Duration

	// BackoffMax is the maximum duration between retry attempts
	BackoffMax time.Duration

	// MaxAttempts is the maximum number of retry attempts for control operations
	MaxAttempts int

	// WatchDebounce coalesces rapid status file changes during Wait
	WatchDebounce time.Duration

	// mu serializes control writes
	mu sync.Mutex
}

// RunitOption configures a RunitManager
type RunitOption func(*RunitManager)

// WithRunitServiceDir sets the directory service directories are created in
func WithRunitServiceDir(dir string) RunitOption {
	return func(m *RunitManager) {
		m.ServiceDir = dir
	}
}

// WithRunitScanDir sets the runsvdir scan directory
func WithRunitScanDir(dir string) RunitOption {
	return func(m *RunitManager) {
		m.ScanDir = dir
	}
}

// WithBackoff sets the minimum and maximum backoff durations for control retries
func WithBackoff(minBackoff, maxBackoff time.Duration) RunitOption {
	return func(m *RunitManager) {
		m.BackoffMin = minBackoff
		m.BackoffMax = maxBackoff
	}
}

// WithMaxAttempts sets the maximum number of control retry attempts
func WithMaxAttempts(n int) RunitOption {
	return func(m *RunitManager) {
		m.MaxAttempts = n
	}
}

// WithWatchDebounce sets the debounce duration for status watches
func WithWatchDebounce(d time.Duration) RunitOption {
	return func(m *RunitManager) {
		m.WatchDebounce = d
	}
}

// NewRunitManager creates a RunitManager with default directories
func NewRunitManager(opts ...RunitOption) *RunitManager {
	m := &RunitManager{
		ServiceDir:    DefaultRunitServiceDir,
		ScanDir:       DefaultRunitScanDir,
		ChpstPath:     DefaultChpstPath,
		SvlogdPath:    DefaultSvlogdPath,
		DialTimeout:   DefaultDialTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		BackoffMin:    DefaultBackoffMin,
		BackoffMax:    DefaultBackoffMax,
		MaxAttempts:   DefaultMaxAttempts,
		WatchDebounce: DefaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns "runit"
func (m *RunitManager) Name() string {
	return "runit"
}

func (m *RunitManager) serviceDir(name string) string {
	return filepath.Join(m.ServiceDir, instanceFileName(name))
}

func (m *RunitManager) linkPath(name string) string {
	return filepath.Join(m.ScanDir, instanceFileName(name))
}

// Install creates the service directory and links it into the scan directory.
// Manual services get a down file; disabled services are not linked. A failed
// install removes the partial service directory.
func (m *RunitManager) Install(_ context.Context, spec InstallSpec) error {
	dir := m.serviceDir(spec.Name)
	if _, err := os.Stat(dir); err == nil {
		return &OpError{Op: OpInstall, Service: spec.Name, Err: ErrAlreadyInstalled}
	}

	if err := m.install(dir, spec); err != nil {
		var errs MultiError
		errs.Add(err)
		if rerr := os.RemoveAll(dir); rerr != nil {
			errs.Add(fmt.Errorf("removing partial service directory: %w", rerr))
		}
		return &OpError{Op: OpInstall, Service: spec.Name, Err: errs.Err()}
	}
	return nil
}

func (m *RunitManager) install(dir string, spec InstallSpec) error {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating service directory: %w", err)
	}

	if spec.StartMode != StartAutomatic {
		if err := renameio.WriteFile(filepath.Join(dir, runitDownFile), nil, fileMode); err != nil {
			return fmt.Errorf("writing down file: %w", err)
		}
	}

	logDir := filepath.Join(dir, runitLogDir)
	if err := os.MkdirAll(filepath.Join(logDir, "main"), dirMode); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(logDir, runitRunFile), []byte(renderRunitLogRun(m.SvlogdPath)), execMode); err != nil {
		return fmt.Errorf("writing log/run script: %w", err)
	}

	// The run script goes last; runsv treats its presence as a complete service
	if err := renameio.WriteFile(filepath.Join(dir, runitRunFile), []byte(renderRunitRun(spec, m.ChpstPath)), execMode); err != nil {
		return fmt.Errorf("writing run script: %w", err)
	}

	if spec.StartMode == StartDisabled {
		return nil
	}

	if err := os.Symlink(dir, m.linkPath(spec.Name)); err != nil && !os.IsExist(err) {
		return fmt.Errorf("linking into scan directory: %w", err)
	}
	return nil
}

// Uninstall stops the service, unlinks it and removes its directory
func (m *RunitManager) Uninstall(ctx context.Context, name string) error {
	dir := m.serviceDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &OpError{Op: OpUninstall, Service: name, Err: ErrNotInstalled}
	}

	var errs MultiError

	if err := os.Remove(m.linkPath(name)); err != nil && !os.IsNotExist(err) {
		errs.Add(fmt.Errorf("unlinking: %w", err))
	}

	if m.supervised(name) {
		// Best effort; supervise may already be gone after the unlink
		_ = m.send(ctx, name, OpStop, runitCmdDown)
		_ = m.send(ctx, name, OpUninstall, runitCmdExit)
	}

	if err := os.RemoveAll(dir); err != nil {
		errs.Add(fmt.Errorf("removing service directory: %w", err))
	}

	if err := errs.Err(); err != nil {
		return &OpError{Op: OpUninstall, Service: name, Err: err}
	}
	return nil
}

// Start sets the service to want up
func (m *RunitManager) Start(ctx context.Context, name string) error {
	return m.send(ctx, name, OpStart, runitCmdUp)
}

// Stop sets the service to want down
func (m *RunitManager) Stop(ctx context.Context, name string) error {
	return m.send(ctx, name, OpStop, runitCmdDown)
}

// Status reads and decodes the supervise status file
func (m *RunitManager) Status(_ context.Context, name string) (Status, error) {
	dir := m.serviceDir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return Status{State: StateNotInstalled}, nil
	}

	statusPath := filepath.Join(dir, runitSuperviseDir, runitStatusFile)
	file, err := os.Open(statusPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Installed but not yet picked up by runsvdir
			return Status{State: StateStopped}, nil
		}
		return Status{}, &OpError{Op: OpStatus, Service: name, Err: err}
	}
	defer func() { _ = file.Close() }()

	var buf [runitStatusSize]byte
	n, err := io.ReadFull(file, buf[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Status{}, &OpError{Op: OpStatus, Service: name, Err: err}
	}
	if n != runitStatusSize {
		return Status{}, &OpError{Op: OpStatus, Service: name, Err: ErrDecode}
	}

	st, err := decodeRunitStatus(buf[:])
	if err != nil {
		return Status{}, &OpError{Op: OpStatus, Service: name, Err: err}
	}
	return st, nil
}

// supervised reports whether a supervise directory exists for the service
func (m *RunitManager) supervised(name string) bool {
	_, err := os.Stat(filepath.Join(m.serviceDir(name), runitSuperviseDir))
	return err == nil
}

// send writes a single control byte to the service's control socket or FIFO.
// It retries with exponential backoff while supervise is not ready.
func (m *RunitManager) send(ctx context.Context, name string, op Operation, cmd byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.serviceDir(name)); os.IsNotExist(err) {
		return &OpError{Op: op, Service: name, Err: ErrNotInstalled}
	}

	controlPath := filepath.Join(m.serviceDir(name), runitSuperviseDir, runitControlFile)

	var lastErr error
	backoff := m.BackoffMin

	for attempt := 0; attempt < m.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &OpError{Op: op, Service: name, Err: ctx.Err()}
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > m.BackoffMax {
				backoff = m.BackoffMax
			}
		}

		if err := m.write(controlPath, cmd); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = ErrControlNotReady
	}
	return &OpError{Op: op, Service: name, Err: lastErr}
}

// write delivers cmd over a unix socket, falling back to a non-blocking FIFO open
func (m *RunitManager) write(controlPath string, cmd byte) error {
	conn, err := net.DialTimeout("unix", controlPath, m.DialTimeout)
	if err == nil {
		defer func() { _ = conn.Close() }()

		if m.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(m.WriteTimeout))
		}
		_, err = conn.Write([]byte{cmd})
		return err
	}

	file, err := os.OpenFile(controlPath, os.O_WRONLY|unix.ONonblock, 0)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write([]byte{cmd})
	return err
}
