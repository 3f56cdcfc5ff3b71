//go:build windows

package svchost

import "golang.org/x/sys/windows"

// checkPrivilege requires an elevated token for service registration
func checkPrivilege() error {
	if !windows.GetCurrentProcessToken().IsElevated() {
		return ErrNotPrivileged
	}
	return nil
}
