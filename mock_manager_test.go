package svchost

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// fakeManager is an in-memory ServiceManager that records every call
type fakeManager struct {
	mu        sync.Mutex
	calls     []string
	states    map[string]State
	installed map[string]InstallSpec

	// stuck leaves the state unchanged on Start and Stop
	stuck bool
	// panicOn panics when the named operation is called
	panicOn string
	// failWith is returned from Install, Uninstall, Start and Stop
	failWith error
	// blockIssue makes Start and Stop block until their context is done
	blockIssue bool
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		states:    make(map[string]State),
		installed: make(map[string]InstallSpec),
	}
}

func (f *fakeManager) record(op, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+name)
	if f.panicOn == op {
		panic("fake manager " + op)
	}
}

func (f *fakeManager) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeManager) set(name string, st State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[name] = st
}

func (f *fakeManager) Name() string { return "fake" }

func (f *fakeManager) Install(_ context.Context, spec InstallSpec) error {
	f.record("install", spec.Name)
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed[spec.Name] = spec
	f.states[spec.Name] = StateStopped
	return nil
}

func (f *fakeManager) Uninstall(_ context.Context, name string) error {
	f.record("uninstall", name)
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.installed, name)
	delete(f.states, name)
	return nil
}

func (f *fakeManager) Start(ctx context.Context, name string) error {
	f.record("start", name)
	if f.failWith != nil {
		return f.failWith
	}
	if f.blockIssue {
		<-ctx.Done()
		return ctx.Err()
	}
	if !f.stuck {
		f.set(name, StateRunning)
	}
	return nil
}

func (f *fakeManager) Stop(ctx context.Context, name string) error {
	f.record("stop", name)
	if f.failWith != nil {
		return f.failWith
	}
	if f.blockIssue {
		<-ctx.Done()
		return ctx.Err()
	}
	if !f.stuck {
		f.set(name, StateStopped)
	}
	return nil
}

func (f *fakeManager) Status(_ context.Context, name string) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[name]
	if !ok {
		return Status{State: StateNotInstalled}, nil
	}
	return Status{State: st}, nil
}

func (f *fakeManager) Wait(ctx context.Context, name string, states []State) (Status, error) {
	status := func(ctx context.Context) (Status, error) {
		return f.Status(ctx, name)
	}
	return pollWait(ctx, status, states, time.Millisecond, 5*time.Millisecond)
}

// syncBuffer is a strings.Builder safe for concurrent writers
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// testEnv bundles the collaborators tests pass to Dispatcher and Host
type testEnv struct {
	manager *fakeManager
	out     *syncBuffer
	logs    *syncBuffer
}

func newTestEnv() *testEnv {
	return &testEnv{
		manager: newFakeManager(),
		out:     &syncBuffer{},
		logs:    &syncBuffer{},
	}
}

// options returns the options for an interactive or service session
func (e *testEnv) options(interactive bool, extra ...Option) []Option {
	opts := []Option{
		WithServiceManager(e.manager),
		WithInteractive(interactive),
		WithConsole(NewConsole(e.out, strings.NewReader(strings.Repeat("\n", 16)))),
		WithLogger(zerolog.New(e.logs).Level(zerolog.DebugLevel)),
		WithExecutable("/usr/local/bin/demo"),
		WithPrivilegeCheck(func() error { return nil }),
		WithBuilder(NewBuilder()),
	}
	return append(opts, extra...)
}
