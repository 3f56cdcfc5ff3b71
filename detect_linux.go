//go:build linux

package svchost

import (
	"os"
	"os/exec"
)

// runitScanDirs are the runsvdir directories used by common distributions
var runitScanDirs = []string{"/etc/service", "/var/service", "/etc/runit/runsvdir/default"}

// DetectServiceManager returns systemd when it is the running init system,
// otherwise runit when runsvdir is installed
func DetectServiceManager() (ServiceManager, error) {
	if fi, err := os.Stat("/run/systemd/system"); err == nil && fi.IsDir() {
		return NewSystemdManager(), nil
	}

	if _, err := exec.LookPath("runsvdir"); err == nil {
		for _, dir := range runitScanDirs {
			if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
				return NewRunitManager(WithRunitScanDir(dir)), nil
			}
		}
	}

	return nil, ErrUnsupportedPlatform
}
