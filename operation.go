package svchost

// Operation represents a service manager operation type
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpInstall registers the service with the service manager
	OpInstall
	// OpUninstall removes the service from the service manager
	OpUninstall
	// OpStart asks the service manager to start the service
	OpStart
	// OpStop asks the service manager to stop the service
	OpStop
	// OpStatus represents a status query operation
	OpStatus
	// OpWait waits for the service to reach a target state
	OpWait
	// OpInvoke runs a remote service executable
	OpInvoke
	// OpRun runs the hosted workload
	OpRun
)

// Operation string constants
const (
	opUnknownStr   = "unknown"
	opInstallStr   = "install"
	opUninstallStr = "uninstall"
	opStartStr     = "start"
	opStopStr      = "stop"
	opStatusStr    = "status"
	opWaitStr      = "wait"
	opInvokeStr    = "invoke"
	opRunStr       = "run"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpInstall:
		return opInstallStr
	case OpUninstall:
		return opUninstallStr
	case OpStart:
		return opStartStr
	case OpStop:
		return opStopStr
	case OpStatus:
		return opStatusStr
	case OpWait:
		return opWaitStr
	case OpInvoke:
		return opInvokeStr
	case OpRun:
		return opRunStr
	default:
		return opUnknownStr
	}
}
