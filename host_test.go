package svchost

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWorkload records how often each hook runs
type countingWorkload struct {
	starts  atomic.Int32
	stops   atomic.Int32
	closes  atomic.Int32
	started chan struct{}

	startErr error
	stopErr  error
	closeErr error
}

func newCountingWorkload() *countingWorkload {
	return &countingWorkload{started: make(chan struct{}, 1)}
}

func (c *countingWorkload) Close() error {
	c.closes.Add(1)
	return c.closeErr
}

func (c *countingWorkload) Workload() Workload {
	return Workload{
		Start: func(context.Context) error {
			c.starts.Add(1)
			if c.startErr != nil {
				return c.startErr
			}
			c.started <- struct{}{}
			return nil
		},
		Stop: func(context.Context) error {
			c.stops.Add(1)
			return c.stopErr
		},
		Closer: c,
	}
}

func runHost(t *testing.T, h *Host, tokens []string, w Workload) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(context.Background(), tokens, w) }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("host did not return")
		return nil
	}
}

func waitStarted(t *testing.T, w *countingWorkload) {
	t.Helper()
	select {
	case <-w.started:
	case <-time.After(5 * time.Second):
		t.Fatal("workload was not started")
	}
}

func TestHostConsoleSingleInterrupt(t *testing.T) {
	env := newTestEnv()
	interrupts := make(chan os.Signal, 1)
	h := NewHost(env.options(true, WithInterrupts(interrupts))...)
	w := newCountingWorkload()

	errCh := runHost(t, h, []string{"/serviceName=Demo"}, w.Workload())
	waitStarted(t, w)

	interrupts <- os.Interrupt
	require.NoError(t, waitErr(t, errCh))

	assert.EqualValues(t, 1, w.starts.Load())
	assert.EqualValues(t, 1, w.stops.Load())
	assert.EqualValues(t, 1, w.closes.Load())

	out := env.out.String()
	assert.Contains(t, out, "[started] Demo. Press Ctrl+C to stop.")
	assert.Equal(t, 1, strings.Count(out, "[stopping]"))
	assert.Contains(t, out, "[stopped] Demo")
}

func TestHostConsoleRepeatedInterrupts(t *testing.T) {
	env := newTestEnv()
	interrupts := make(chan os.Signal, 3)
	h := NewHost(env.options(true, WithInterrupts(interrupts))...)

	w := newCountingWorkload()
	release := make(chan struct{})
	wl := w.Workload()
	stop := wl.Stop
	wl.Stop = func(ctx context.Context) error {
		<-release
		return stop(ctx)
	}

	errCh := runHost(t, h, []string{"/serviceName=Demo"}, wl)
	waitStarted(t, w)

	interrupts <- os.Interrupt
	interrupts <- os.Interrupt
	interrupts <- os.Interrupt

	require.Eventually(t, func() bool {
		return strings.Contains(env.logs.String(), "stop already requested")
	}, 5*time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, waitErr(t, errCh))
	assert.EqualValues(t, 1, w.stops.Load())
	assert.Equal(t, 1, strings.Count(env.out.String(), "[stopping]"))
}

func TestHostConsoleInterruptDuringStart(t *testing.T) {
	env := newTestEnv()
	interrupts := make(chan os.Signal, 2)
	h := NewHost(env.options(true, WithInterrupts(interrupts))...)

	w := newCountingWorkload()
	wl := w.Workload()
	start := wl.Start
	wl.Start = func(ctx context.Context) error {
		interrupts <- os.Interrupt
		interrupts <- os.Interrupt
		return start(ctx)
	}

	require.NoError(t, waitErr(t, runHost(t, h, []string{"/serviceName=Demo"}, wl)))
	assert.EqualValues(t, 1, w.starts.Load())
	assert.EqualValues(t, 1, w.stops.Load())
	assert.EqualValues(t, 1, w.closes.Load())
	assert.Equal(t, 1, strings.Count(env.out.String(), "[stopping]"))
	assert.Contains(t, env.out.String(), "[stopped] Demo")
}

func TestHostConsoleContextCanceled(t *testing.T) {
	env := newTestEnv()
	h := NewHost(env.options(true, WithInterrupts(make(chan os.Signal)))...)
	w := newCountingWorkload()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx, []string{"/serviceName=Demo"}, w.Workload()) }()

	waitStarted(t, w)
	cancel()

	require.NoError(t, waitErr(t, errCh))
	assert.EqualValues(t, 1, w.stops.Load())
}

func TestHostHandledActionSkipsWorkload(t *testing.T) {
	env := newTestEnv()
	h := NewHost(env.options(true)...)
	w := newCountingWorkload()

	err := h.Run(context.Background(), []string{"/install", "/serviceName=Demo"}, w.Workload())
	require.NoError(t, err)
	assert.EqualValues(t, 0, w.starts.Load())
	assert.Equal(t, []string{"install:Demo"}, env.manager.Calls())
}

func TestHostRequiresStart(t *testing.T) {
	env := newTestEnv()
	h := NewHost(env.options(true)...)

	err := h.Run(context.Background(), nil, Workload{})
	require.ErrorIs(t, err, ErrNoStart)
}

func TestHostConsoleStartFailure(t *testing.T) {
	env := newTestEnv()
	h := NewHost(env.options(true, WithInterrupts(make(chan os.Signal)))...)
	w := newCountingWorkload()
	w.startErr = errors.New("port in use")

	err := h.Run(context.Background(), []string{"/serviceName=Demo"}, w.Workload())
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpRun, opErr.Op)
	assert.EqualValues(t, 0, w.stops.Load())
	assert.EqualValues(t, 1, w.closes.Load())
	assert.Contains(t, env.out.String(), "[failed] port in use")
}

func TestHostConsoleShutdownErrors(t *testing.T) {
	env := newTestEnv()
	interrupts := make(chan os.Signal, 1)
	h := NewHost(env.options(true, WithInterrupts(interrupts))...)

	w := newCountingWorkload()
	errStop := errors.New("drain failed")
	errClose := errors.New("flush failed")
	w.stopErr = errStop
	w.closeErr = errClose

	errCh := runHost(t, h, []string{"/serviceName=Demo"}, w.Workload())
	waitStarted(t, w)
	interrupts <- os.Interrupt

	err := waitErr(t, errCh)
	require.ErrorIs(t, err, errStop)
	require.ErrorIs(t, err, errClose)

	var multi *MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
	assert.NotContains(t, env.out.String(), "[stopped]")
}

func TestHostConsoleWarnsWhenServiceRunning(t *testing.T) {
	env := newTestEnv()
	env.manager.set("Demo", StateRunning)
	interrupts := make(chan os.Signal, 1)
	h := NewHost(env.options(true, WithInterrupts(interrupts))...)
	w := newCountingWorkload()

	errCh := runHost(t, h, []string{"/serviceName=Demo"}, w.Workload())
	waitStarted(t, w)
	interrupts <- os.Interrupt
	require.NoError(t, waitErr(t, errCh))

	assert.Contains(t, env.out.String(), "[warning] The service 'Demo' is already running under fake.")
}

func TestRunFunc(t *testing.T) {
	running := make(chan struct{})
	w := RunFunc(func(ctx context.Context) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	})

	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	<-running
	require.NoError(t, w.Stop(context.Background()))
}

func TestRunFuncReturnsWorkError(t *testing.T) {
	errWork := errors.New("lost connection")
	w := RunFunc(func(context.Context) error { return errWork })

	require.NoError(t, w.Start(context.Background()))
	require.ErrorIs(t, w.Stop(context.Background()), errWork)
}

func TestRunFuncStopDeadline(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	w := RunFunc(func(context.Context) error {
		<-block
		return nil
	})
	require.NoError(t, w.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Stop(ctx), context.DeadlineExceeded)
}
