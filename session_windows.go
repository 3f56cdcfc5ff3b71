//go:build windows

package svchost

import (
	"golang.org/x/sys/windows/svc"
)

// IsInteractive reports whether the process runs in an operator session
// rather than under the Service Control Manager
func IsInteractive() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return true
	}
	return !isService
}
