//go:build linux || darwin

package svchost

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// watchEvent is one status change observed by a watch
type watchEvent struct {
	status Status
	err    error
}

// Wait blocks until the service reaches one of states. It watches the
// supervise directory with fsnotify and falls back to polling while the
// service is not supervised yet.
func (m *RunitManager) Wait(ctx context.Context, name string, states []State) (Status, error) {
	current, err := m.Status(ctx, name)
	if err != nil {
		return Status{}, wrapOp(OpWait, name, err)
	}
	if len(states) > 0 && stateIn(current.State, states) {
		return current, nil
	}

	if !m.supervised(name) {
		status := func(ctx context.Context) (Status, error) {
			return m.Status(ctx, name)
		}
		st, err := pollWait(ctx, status, states, DefaultPollMin, DefaultPollMax)
		return st, wrapOp(OpWait, name, err)
	}

	events, cleanup, err := m.watch(ctx, name)
	if err != nil {
		return Status{}, wrapOp(OpWait, name, err)
	}
	defer func() { _ = cleanup() }()

	initial := current.State
	for {
		select {
		case event := <-events:
			if event.err != nil {
				return Status{}, wrapOp(OpWait, name, event.err)
			}
			current = event.status
			if len(states) == 0 {
				if current.State != initial {
					return current, nil
				}
				continue
			}
			if stateIn(current.State, states) {
				return current, nil
			}
		case <-ctx.Done():
			return current, &OpError{Op: OpWait, Service: name, Err: ctx.Err()}
		}
	}
}

// watch emits the service status whenever the supervise status file changes.
// The first event carries the status at the time the watch was established.
func (m *RunitManager) watch(ctx context.Context, name string) (<-chan watchEvent, func() error, error) {
	superviseDir := filepath.Join(m.serviceDir(name), runitSuperviseDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(superviseDir); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	ch := make(chan watchEvent, 10)

	sctx := stopper.WithContext(ctx)
	// ch is left open; a debounced read may still be in flight after Stop
	sctx.Defer(func() {
		_ = watcher.Close()
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	var (
		mu        sync.Mutex
		last      Status
		seen      bool
		debouncer *time.Timer
	)

	emit := func(event watchEvent) {
		if sctx.IsStopping() {
			return
		}
		select {
		case ch <- event:
		case <-sctx.Stopping():
		}
	}

	readAndSend := func() {
		if sctx.IsStopping() {
			return
		}

		status, err := m.Status(ctx, name)
		if err != nil {
			emit(watchEvent{err: err})
			return
		}

		mu.Lock()
		changed := !seen || !sameStatus(status, last)
		last, seen = status, true
		mu.Unlock()

		if changed {
			emit(watchEvent{status: status})
		}
	}

	readAndSend()

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			mu.Lock()
			if debouncer != nil {
				debouncer.Stop()
			}
			mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != runitStatusFile {
					continue
				}

				mu.Lock()
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = time.AfterFunc(m.WatchDebounce, readAndSend)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					emit(watchEvent{err: err})
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}

// sameStatus reports whether two snapshots describe the same supervise state
func sameStatus(a, b Status) bool {
	return a.State == b.State && a.PID == b.PID && a.Since.Equal(b.Since)
}
