package svchost

import (
	"errors"
	"fmt"
)

// Common errors returned by svchost operations
var (
	// ErrNoServiceName indicates the service name was read before it was set
	ErrNoServiceName = errors.New("svchost: no service name has been specified")

	// ErrEmptyValue indicates a configuration value was given as an empty string
	ErrEmptyValue = errors.New("svchost: value must not be empty")

	// ErrControlCharacter indicates a configuration value contains a control character
	ErrControlCharacter = errors.New("svchost: value must not contain control characters")

	// ErrInvalidStartMode indicates a start mode outside Automatic, Manual and Disabled
	ErrInvalidStartMode = errors.New("svchost: invalid start mode")

	// ErrPartialCredentials indicates only one of username and password was given
	ErrPartialCredentials = errors.New("svchost: username and password must both be specified or both be empty")

	// ErrPathNotFound indicates the configured service path does not exist
	ErrPathNotFound = errors.New("svchost: service path does not exist")

	// ErrConflictingActions indicates mutually exclusive actions were requested together
	ErrConflictingActions = errors.New("svchost: conflicting actions")

	// ErrTimeout indicates the service did not reach the target state in time
	ErrTimeout = errors.New("svchost: timeout")

	// ErrNotInstalled indicates the service manager does not know the service
	ErrNotInstalled = errors.New("svchost: service not installed")

	// ErrAlreadyInstalled indicates a service with the same name is already registered
	ErrAlreadyInstalled = errors.New("svchost: service already installed")

	// ErrNotPrivileged indicates install or uninstall was attempted without administrator rights
	ErrNotPrivileged = errors.New("svchost: administrator privilege is required")

	// ErrUnsupportedPlatform indicates no service manager is available on this host
	ErrUnsupportedPlatform = errors.New("svchost: no supported service manager")

	// ErrNoStart indicates a Workload without a Start function
	ErrNoStart = errors.New("svchost: workload has no start function")

	// ErrDecode indicates a supervise status file could not be decoded
	ErrDecode = errors.New("svchost: status decode error")

	// ErrControlNotReady indicates the supervise control endpoint is not accepting commands
	ErrControlNotReady = errors.New("svchost: control not ready")
)

// ConfigError reports an invalid configuration value
type ConfigError struct {
	// Field is the configuration key, spelled as on the command line
	Field string
	// Value is the rejected value as supplied
	Value string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("svchost: invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("svchost: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// OpError represents an error from a service manager operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Service is the instanced service name the operation targeted
	Service string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("svchost %s %q: %v", e.Op.String(), e.Service, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// MultiError aggregates multiple errors from cleanup sequences
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred: %v", len(m.Errors), errors.Join(m.Errors...))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
