//go:build unix

package svchost

import "github.com/axondata/go-svchost/internal/unix"

// checkPrivilege requires root for service registration
func checkPrivilege() error {
	if !unix.IsPrivileged() {
		return ErrNotPrivileged
	}
	return nil
}
