package svchost

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Workload is the program hosted as a service.
//
// Start must return once the work is running. Stop and Closer are optional;
// Stop is called exactly once on shutdown, then Closer is closed.
type Workload struct {
	Start  func(ctx context.Context) error
	Stop   func(ctx context.Context) error
	Closer io.Closer
}

// RunFunc adapts a blocking function into a Workload. Start runs fn in a
// goroutine; Stop cancels its context and waits for it to return.
func RunFunc(fn func(ctx context.Context) error) Workload {
	var (
		mu     sync.Mutex
		cancel context.CancelFunc
		done   chan error
	)

	return Workload{
		Start: func(ctx context.Context) error {
			runCtx, c := context.WithCancel(ctx)

			mu.Lock()
			cancel = c
			done = make(chan error, 1)
			ch := done
			mu.Unlock()

			go func() { ch <- fn(runCtx) }()
			return nil
		},
		Stop: func(ctx context.Context) error {
			mu.Lock()
			c, ch := cancel, done
			mu.Unlock()

			if c == nil {
				return nil
			}
			c()

			select {
			case err := <-ch:
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// shutdown stops the workload once and closes it, collecting both errors
func (w Workload) shutdown(ctx context.Context) error {
	var errs MultiError
	if w.Stop != nil {
		errs.Add(w.Stop(ctx))
	}
	if w.Closer != nil {
		errs.Add(w.Closer.Close())
	}
	return errs.Err()
}
