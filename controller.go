package svchost

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Controller starts and stops an installed service and waits for the
// transition to finish within the configured timeout
type Controller struct {
	cfg     *Configuration
	manager ServiceManager
	logger  zerolog.Logger
}

// NewController creates a Controller for cfg's instanced service
func NewController(cfg *Configuration, manager ServiceManager, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		manager: manager,
		logger:  logger,
	}
}

// Start starts the service unless it is already running
func (c *Controller) Start(ctx context.Context) error {
	return c.transition(ctx, OpStart, StateRunning, c.manager.Start)
}

// Stop stops the service unless it is already stopped
func (c *Controller) Stop(ctx context.Context) error {
	return c.transition(ctx, OpStop, StateStopped, c.manager.Stop)
}

func (c *Controller) transition(ctx context.Context, op Operation, target State, issue func(context.Context, string) error) error {
	name := c.cfg.InstancedServiceName()
	log := c.logger.With().Str("service", name).Str("op", op.String()).Logger()

	st, err := c.manager.Status(ctx, name)
	if err != nil {
		return wrapOp(op, name, err)
	}

	switch st.State {
	case StateNotInstalled:
		return &OpError{Op: op, Service: name, Err: ErrNotInstalled}
	case target:
		log.Info().Str("state", st.State.String()).Msg("service already in requested state")
		return nil
	}

	// The request and the wait share one deadline
	wctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	log.Info().Str("state", st.State.String()).Msg("requesting state change")
	if err := issue(wctx, name); err != nil {
		return c.failed(ctx, log, op, name, err)
	}

	st, err = c.manager.Wait(wctx, name, []State{target})
	if err != nil {
		return c.failed(ctx, log, op, name, err)
	}

	log.Info().Str("state", st.State.String()).Int("pid", st.PID).Msg("service state changed")
	return nil
}

// failed maps an expired transition deadline to ErrTimeout
func (c *Controller) failed(ctx context.Context, log zerolog.Logger, op Operation, name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		log.Error().Dur("timeout", c.cfg.Timeout()).Msg("service did not reach requested state")
		return &OpError{Op: op, Service: name, Err: ErrTimeout}
	}
	return wrapOp(op, name, err)
}
