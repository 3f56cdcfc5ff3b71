package svchost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// invokeWaitDelay bounds how long output is drained after the process is killed
const invokeWaitDelay = time.Second

// Invoker delegates install and uninstall to another service executable,
// passing it the canonical configuration arguments
type Invoker struct {
	logger zerolog.Logger
}

// NewInvoker creates an Invoker
func NewInvoker(logger zerolog.Logger) *Invoker {
	return &Invoker{logger: logger}
}

// Invoke runs cfg's service path with /install or /uninstall followed by the
// configuration arguments. It waits at most the configured timeout; when that
// expires the outcome is unknown and ErrTimeout is returned.
func (i *Invoker) Invoke(ctx context.Context, cfg *Configuration, action Action) error {
	var op Operation
	switch action {
	case ActionInstall:
		op = OpInstall
	case ActionUninstall:
		op = OpUninstall
	default:
		return fmt.Errorf("svchost: cannot invoke action %s", action)
	}

	name := cfg.InstancedServiceName()
	path := cfg.ServicePath()
	args := append([]string{"/" + action.String()}, cfg.Args()...)

	ictx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	cmd := exec.CommandContext(ictx, path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = invokeWaitDelay

	i.logger.Info().
		Str("service", name).
		Str("path", path).
		Str("action", action.String()).
		Msg("invoking service executable")

	err := cmd.Run()
	if ictx.Err() != nil && ctx.Err() == nil {
		return &OpError{Op: OpInvoke, Service: name, Err: fmt.Errorf("%w: %s did not finish, result is inconclusive", ErrTimeout, path)}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &OpError{Op: op, Service: name, Err: fmt.Errorf("%s exited with code %d: %s", path, exitErr.ExitCode(), strings.TrimSpace(out.String()))}
		}
		return &OpError{Op: op, Service: name, Err: err}
	}

	i.logger.Debug().Str("service", name).Str("output", strings.TrimSpace(out.String())).Msg("service executable finished")
	return nil
}
