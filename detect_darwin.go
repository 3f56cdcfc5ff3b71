//go:build darwin

package svchost

import (
	"os/exec"
)

// DetectServiceManager returns runit when runsvdir is installed
func DetectServiceManager() (ServiceManager, error) {
	if _, err := exec.LookPath("runsvdir"); err == nil {
		return NewRunitManager(WithRunitScanDir("/usr/local/var/service")), nil
	}
	return nil, ErrUnsupportedPlatform
}
