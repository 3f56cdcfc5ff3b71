package svchost

import (
	"os"

	"github.com/rs/zerolog"
)

// options holds the collaborators shared by Dispatcher and Host
type options struct {
	manager     ServiceManager
	logger      *zerolog.Logger
	console     *Console
	interactive *bool
	interrupts  <-chan os.Signal
	executable  string
	privilege   func() error
	builder     *Builder
}

// Option configures a Dispatcher or Host
type Option func(*options)

// WithServiceManager sets the service manager backend instead of detecting one
func WithServiceManager(m ServiceManager) Option {
	return func(o *options) {
		o.manager = m
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithConsole sets the operator console used in interactive sessions
func WithConsole(c *Console) Option {
	return func(o *options) {
		o.console = c
	}
}

// WithInteractive overrides interactive session detection
func WithInteractive(interactive bool) Option {
	return func(o *options) {
		o.interactive = &interactive
	}
}

// WithInterrupts sets the channel that delivers interrupt requests instead of
// the process signals
func WithInterrupts(ch <-chan os.Signal) Option {
	return func(o *options) {
		o.interrupts = ch
	}
}

// WithExecutable sets the program path registered with the service manager
func WithExecutable(path string) Option {
	return func(o *options) {
		o.executable = path
	}
}

// WithPrivilegeCheck replaces the administrator check run before install and uninstall
func WithPrivilegeCheck(check func() error) Option {
	return func(o *options) {
		o.privilege = check
	}
}

// WithBuilder sets the configuration builder that arguments are applied to
func WithBuilder(b *Builder) Option {
	return func(o *options) {
		o.builder = b
	}
}

// resolve fills unset collaborators with process defaults
func (o *options) resolve() {
	if o.interactive == nil {
		interactive := IsInteractive()
		o.interactive = &interactive
	}
	if o.executable == "" {
		if exe, err := os.Executable(); err == nil {
			o.executable = exe
		}
	}
	if o.logger == nil {
		logger := NewLogger(os.Stderr, programName(o.executable), *o.interactive)
		o.logger = &logger
	}
	if o.console == nil {
		o.console = StdConsole()
	}
	if o.privilege == nil {
		o.privilege = checkPrivilege
	}
	if o.builder == nil {
		o.builder = DefaultBuilder()
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	o.resolve()
	return o
}
