package svchost

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed help.txt
var helpText string

// Dispatcher turns invocation arguments into a configuration and performs the
// lifecycle action they request
type Dispatcher struct {
	opts   *options
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(opts ...Option) *Dispatcher {
	o := newOptions(opts)
	return &Dispatcher{
		opts:   o,
		logger: *o.logger,
	}
}

// Interactive reports whether the dispatcher treats the session as interactive
func (d *Dispatcher) Interactive() bool {
	return *d.opts.interactive
}

// Logger returns the dispatcher's logger, including any level raised by /debug
func (d *Dispatcher) Logger() zerolog.Logger {
	return d.logger
}

// serviceManager returns the configured backend or detects one
func (d *Dispatcher) serviceManager() (ServiceManager, error) {
	if d.opts.manager != nil {
		return d.opts.manager, nil
	}
	m, err := DetectServiceManager()
	if err != nil {
		return nil, err
	}
	d.opts.manager = m
	return m, nil
}

// Dispatch applies tokens to b and performs the requested action.
// handled is false when no lifecycle action was requested and the caller
// should run the workload with the returned configuration.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, b *Builder) (*Configuration, bool, error) {
	if HelpRequested(tokens) {
		d.opts.console.Println(strings.ReplaceAll(helpText, "<program>", programName(d.opts.executable)))
		return nil, true, nil
	}

	args, err := ParseArguments(tokens)
	if err != nil {
		return nil, false, err
	}

	if path, ok := args.Get(keyConfigFile); ok && path != "" {
		b.WithFile(path)
	} else if path := defaultConfigFile(); path != "" {
		d.logger.Debug().Str("path", path).Msg("loading configuration file")
		b.WithFile(path)
	}

	b.WithArguments(args)
	if err := b.Err(); err != nil {
		return nil, false, err
	}

	action, err := resolveAction(args)
	if err != nil {
		return nil, false, err
	}

	if v, ok := args.Get(keyTimeout); ok && v != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			d.logger.Warn().Str("timeout", v).Int("default", DefaultTimeout).Msg("invalid timeout, using default")
			ms = DefaultTimeout
		}
		b.WithTimeout(ms)
	}

	cfg, err := b.Build()
	if err != nil {
		return nil, false, err
	}

	if args.Bool(keyDebug) {
		if err := d.debug(); err != nil {
			return cfg, true, err
		}
	}

	d.logger.Debug().
		Str("service", cfg.InstancedServiceName()).
		Str("action", action.String()).
		Msg("dispatching")

	switch action {
	case ActionUninstall:
		return cfg, true, d.uninstall(ctx, cfg)
	case ActionInstall:
		return cfg, true, d.install(ctx, cfg)
	case ActionStart, ActionStop:
		m, err := d.serviceManager()
		if err != nil {
			return cfg, true, err
		}
		c := NewController(cfg, m, d.logger)
		if action == ActionStart {
			return cfg, true, c.Start(ctx)
		}
		return cfg, true, c.Stop(ctx)
	}

	return cfg, false, nil
}

// Execute runs Dispatch inside the error boundary. In an interactive session
// failures are shown in red and swallowed after a keypress; otherwise they are
// logged at fatal level and returned. Any error makes the invocation handled.
func (d *Dispatcher) Execute(ctx context.Context, tokens []string, b *Builder) (cfg *Configuration, handled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg, handled = nil, true
			err = d.report(fmt.Errorf("svchost: panic: %v", r))
		}
	}()

	cfg, handled, err = d.Dispatch(ctx, tokens, b)
	if err == nil {
		return cfg, handled, nil
	}
	return cfg, true, d.report(err)
}

// report delivers err to the operator and returns what the caller should see
func (d *Dispatcher) report(err error) error {
	if d.Interactive() {
		d.opts.console.Fatal("%v", err)
		d.opts.console.Println()
		if kerr := d.opts.console.WaitForKey("Press any key to close..."); kerr != nil {
			d.logger.Debug().Err(kerr).Msg("wait for key")
		}
		return nil
	}

	d.logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("service host failed")
	return err
}

// debug raises the log level and pauses so a debugger can attach
func (d *Dispatcher) debug() error {
	d.logger = d.logger.Level(zerolog.DebugLevel)
	d.logger.Debug().Int("pid", os.Getpid()).Msg("debug mode")

	if !d.Interactive() {
		return nil
	}
	d.opts.console.Progress("Process %d is waiting for a debugger (dlv attach %d).", os.Getpid(), os.Getpid())
	return d.opts.console.WaitForKey("Press any key to continue...")
}

func (d *Dispatcher) install(ctx context.Context, cfg *Configuration) error {
	if err := cfg.ValidateAccount(); err != nil {
		return err
	}

	name := cfg.InstancedServiceName()
	if cfg.ServicePath() != "" {
		return NewInvoker(d.logger).Invoke(ctx, cfg, ActionInstall)
	}

	if err := d.opts.privilege(); err != nil {
		return &OpError{Op: OpInstall, Service: name, Err: err}
	}
	m, err := d.serviceManager()
	if err != nil {
		return &OpError{Op: OpInstall, Service: name, Err: err}
	}

	spec := NewInstallSpec(cfg, d.opts.executable)
	d.logger.Info().
		Str("service", name).
		Str("manager", m.Name()).
		Str("startMode", spec.StartMode.String()).
		Msg("installing service")

	if err := m.Install(ctx, spec); err != nil {
		return wrapOp(OpInstall, name, err)
	}

	d.opts.console.Progress("Service '%s' has been installed.", name)
	return nil
}

func (d *Dispatcher) uninstall(ctx context.Context, cfg *Configuration) error {
	if err := cfg.ValidateAccount(); err != nil {
		return err
	}

	name := cfg.InstancedServiceName()
	if cfg.ServicePath() != "" {
		return NewInvoker(d.logger).Invoke(ctx, cfg, ActionUninstall)
	}

	if err := d.opts.privilege(); err != nil {
		return &OpError{Op: OpUninstall, Service: name, Err: err}
	}
	m, err := d.serviceManager()
	if err != nil {
		return &OpError{Op: OpUninstall, Service: name, Err: err}
	}

	d.logger.Info().Str("service", name).Str("manager", m.Name()).Msg("uninstalling service")

	if err := m.Uninstall(ctx, name); err != nil {
		return wrapOp(OpUninstall, name, err)
	}

	d.opts.console.Progress("Service '%s' has been uninstalled.", name)
	return nil
}

// resolveAction picks the single action requested by args. Named flags take
// precedence over a positional alias.
func resolveAction(args *Arguments) (Action, error) {
	install := args.Bool(keyInstall)
	uninstall := args.Bool(keyUninstall)
	start := args.Bool(keyStart)
	stop := args.Bool(keyStop)

	if !install && !uninstall && !start && !stop {
		switch ParseAction(args.Alias()) {
		case ActionInstall:
			install = true
		case ActionUninstall:
			uninstall = true
		case ActionStart:
			start = true
		case ActionStop:
			stop = true
		}
	}

	if install && uninstall {
		return ActionNone, fmt.Errorf("%w: cannot specify /%s and /%s together", ErrConflictingActions, keyInstall, keyUninstall)
	}
	if start && stop {
		return ActionNone, fmt.Errorf("%w: cannot specify /%s and /%s together", ErrConflictingActions, keyStart, keyStop)
	}

	switch {
	case uninstall:
		return ActionUninstall, nil
	case install:
		return ActionInstall, nil
	case start:
		return ActionStart, nil
	case stop:
		return ActionStop, nil
	}
	return ActionNone, nil
}
