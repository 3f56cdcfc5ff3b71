//go:build !unix && !windows

package svchost

// checkPrivilege has nothing to check where no backend exists
func checkPrivilege() error {
	return nil
}
