package svchost

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"vawter.tech/stopper"
)

// Host runs a Workload either as a service or in the console, after letting
// the Dispatcher handle any lifecycle action in the arguments
type Host struct {
	opts *options
}

// NewHost creates a Host. Collaborators that are not configured are taken
// from the running process.
func NewHost(opts ...Option) *Host {
	return &Host{opts: newOptions(opts)}
}

// Run dispatches tokens (the arguments without the program name). When no
// lifecycle action was requested it runs w until the service manager or the
// operator asks it to stop.
func (h *Host) Run(ctx context.Context, tokens []string, w Workload) error {
	if w.Start == nil {
		return ErrNoStart
	}

	d := &Dispatcher{opts: h.opts, logger: *h.opts.logger}
	cfg, handled, err := d.Execute(ctx, tokens, h.opts.builder)
	if handled {
		return err
	}

	logger := d.Logger().With().Str("service", cfg.InstancedServiceName()).Logger()
	if d.Interactive() {
		return h.runConsole(ctx, d, cfg, w, logger)
	}
	return h.runDaemon(ctx, cfg, w, logger)
}

// interruptChannel returns the configured interrupt source, or one subscribed
// to sigs. The returned function releases the subscription.
func (h *Host) interruptChannel(sigs ...os.Signal) (<-chan os.Signal, func()) {
	if h.opts.interrupts != nil {
		return h.opts.interrupts, func() {}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	return ch, func() { signal.Stop(ch) }
}

// stopContext bounds workload shutdown by the configured timeout. It outlives
// cancellation of ctx so that Stop always gets its full window.
func stopContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// runConsole runs w in the foreground until the first interrupt
func (h *Host) runConsole(ctx context.Context, d *Dispatcher, cfg *Configuration, w Workload, logger zerolog.Logger) error {
	console := h.opts.console
	name := cfg.InstancedServiceName()

	if m, err := d.serviceManager(); err == nil {
		if st, err := m.Status(ctx, name); err == nil && st.State == StateRunning {
			console.Warn("[warning] The service '%s' is already running under %s.", name, m.Name())
		}
	}

	// Interrupts during Start stay queued until the handler below runs
	interrupts, release := h.interruptChannel(os.Interrupt)
	defer release()

	if err := w.Start(ctx); err != nil {
		if w.Closer != nil {
			_ = w.Closer.Close()
		}
		console.Fatal("[failed] %v", err)
		return &OpError{Op: OpRun, Service: name, Err: err}
	}

	sctx := stopper.WithContext(ctx)
	done := make(chan struct{})

	var stopping atomic.Bool
	requestStop := func(reason string) {
		if !stopping.CompareAndSwap(false, true) {
			logger.Debug().Str("reason", reason).Msg("stop already requested, ignoring")
			return
		}
		console.Warn("[stopping]")
		logger.Info().Str("reason", reason).Msg("stopping")
		sctx.Stop(cfg.Timeout())
	}

	sctx.Go(func(_ *stopper.Context) error {
		in := interrupts
		ctxDone := ctx.Done()
		for {
			select {
			case <-done:
				return nil
			case <-ctxDone:
				ctxDone = nil
				requestStop("context canceled")
			case sig, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				requestStop(sig.String())
			}
		}
	})

	console.Progress("[started] %s. Press Ctrl+C to stop.", name)
	logger.Info().Msg("running in console")

	<-sctx.Stopping()

	stopCtx, cancel := stopContext(ctx, cfg.Timeout())
	defer cancel()

	err := w.shutdown(stopCtx)
	close(done)
	if werr := sctx.Wait(); werr != nil {
		logger.Debug().Err(werr).Msg("interrupt handler")
	}

	if err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
		return &OpError{Op: OpRun, Service: name, Err: err}
	}

	console.Progress("[stopped] %s", name)
	logger.Info().Msg("stopped")
	return nil
}

// Main runs w with the process arguments and returns the exit code:
// 0 when the invocation succeeded or was handled, 1 on error.
//
//	func main() {
//	    os.Exit(svchost.Main(svchost.RunFunc(work)))
//	}
func Main(w Workload, opts ...Option) int {
	if err := NewHost(opts...).Run(context.Background(), os.Args[1:], w); err != nil {
		return 1
	}
	return 0
}
