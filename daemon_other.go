//go:build !unix && !windows

package svchost

import (
	"context"

	"github.com/rs/zerolog"
)

// runDaemon reports that services cannot be hosted on this platform
func (h *Host) runDaemon(_ context.Context, cfg *Configuration, _ Workload, _ zerolog.Logger) error {
	return &OpError{Op: OpRun, Service: cfg.InstancedServiceName(), Err: ErrUnsupportedPlatform}
}
