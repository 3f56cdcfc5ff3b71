//go:build !windows

package svchost

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether the process runs in an operator session
// rather than under a service manager
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
