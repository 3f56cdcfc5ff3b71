//go:build windows

package svchost

// DetectServiceManager returns the Service Control Manager backend
func DetectServiceManager() (ServiceManager, error) {
	return NewWindowsManager(), nil
}
