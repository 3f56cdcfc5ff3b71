//go:build unix

// Package unix provides Unix process and file helpers used by the service
// manager backends.
package unix

import (
	"os"
	"syscall"
)

// ONonblock is the non-blocking open flag for control FIFOs
const ONonblock = syscall.O_NONBLOCK

// IsPrivileged reports whether the process runs with an effective user ID of root
func IsPrivileged() bool {
	return os.Geteuid() == 0
}

// Signals returns the signals that ask a daemon to shut down
func Signals() []os.Signal {
	return []os.Signal{syscall.SIGTERM, os.Interrupt}
}
