package svchost

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ServiceManager is the interface every platform backend implements.
// Services are addressed by their instanced name (name or name$instance).
type ServiceManager interface {
	// Name identifies the backend (systemd, runit, windows)
	Name() string

	// Install registers a service
	Install(ctx context.Context, spec InstallSpec) error

	// Uninstall removes a service registration
	Uninstall(ctx context.Context, name string) error

	// Start asks the service manager to start the service
	Start(ctx context.Context, name string) error

	// Stop asks the service manager to stop the service
	Stop(ctx context.Context, name string) error

	// Status returns the current status. A service unknown to the manager
	// reports StateNotInstalled rather than an error.
	Status(ctx context.Context, name string) (Status, error)

	// Wait blocks until the service reaches one of the specified states.
	// If states is empty it waits for any state change.
	Wait(ctx context.Context, name string, states []State) (Status, error)
}

// InstallSpec describes a service registration
type InstallSpec struct {
	// Name is the instanced service name
	Name string
	// DisplayName is the human readable name
	DisplayName string
	// Description is the long description
	Description string
	// Executable is the absolute path of the program to run
	Executable string
	// Args are passed to Executable when the service starts
	Args []string
	// Username is the account to run as, empty for the default account
	Username string
	// Password is the account password, if the platform needs one
	Password string
	// StartMode selects automatic, manual or disabled start
	StartMode StartMode
	// DelayedAutoStart delays an automatic start until the system settles
	DelayedAutoStart bool
	// Timeout bounds how long the manager waits for the service to stop
	Timeout time.Duration
}

// NewInstallSpec derives a registration from a configuration. The service
// re-invokes executable with the canonical arguments; credentials are carried
// in the account fields instead of the argument list.
func NewInstallSpec(cfg *Configuration, executable string) InstallSpec {
	return InstallSpec{
		Name:             cfg.InstancedServiceName(),
		DisplayName:      cfg.DisplayName(),
		Description:      cfg.Description(),
		Executable:       executable,
		Args:             cfg.serviceArgs(),
		Username:         cfg.Username(),
		Password:         cfg.Password(),
		StartMode:        cfg.StartMode(),
		DelayedAutoStart: cfg.DelayedAutoStart(),
		Timeout:          cfg.Timeout(),
	}
}

// instanceFileName maps an instanced service name to a file system name.
// The instance separator $ becomes @, the systemd template separator.
func instanceFileName(name string) string {
	return strings.Replace(name, "$", "@", 1)
}

// wrapOp attaches operation context to err unless it already carries it
func wrapOp(op Operation, name string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Service: name, Err: err}
}
