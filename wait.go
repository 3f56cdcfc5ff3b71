package svchost

import (
	"context"
	"time"
)

const (
	// DefaultPollMin is the first interval between status polls
	DefaultPollMin = 50 * time.Millisecond

	// DefaultPollMax caps the interval between status polls
	DefaultPollMax = time.Second
)

// statusFunc returns the current status of one service
type statusFunc func(ctx context.Context) (Status, error)

// pollWait polls status with exponential backoff until it reports one of
// states, or until it changes when states is empty
func pollWait(ctx context.Context, status statusFunc, states []State, minInterval, maxInterval time.Duration) (Status, error) {
	current, err := status(ctx)
	if err != nil {
		return Status{}, err
	}
	if len(states) > 0 && stateIn(current.State, states) {
		return current, nil
	}

	initial := current.State
	backoff := minInterval

	for {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxInterval {
			backoff = maxInterval
		}

		current, err = status(ctx)
		if err != nil {
			return Status{}, err
		}

		if len(states) == 0 {
			if current.State != initial {
				return current, nil
			}
			continue
		}
		if stateIn(current.State, states) {
			return current, nil
		}
	}
}
