//go:build !linux && !darwin && !windows

package svchost

// DetectServiceManager reports that no backend is available on this platform
func DetectServiceManager() (ServiceManager, error) {
	return nil, ErrUnsupportedPlatform
}
