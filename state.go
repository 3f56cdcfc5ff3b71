package svchost

import "time"

// State represents the state of a service as reported by the service manager
type State int

const (
	// StateUnknown indicates the state could not be determined
	StateUnknown State = iota
	// StateNotInstalled indicates the service manager has no such service
	StateNotInstalled
	// StateStopped indicates the service is installed but not running
	StateStopped
	// StateStartPending indicates the service wants to be up but is not running yet
	StateStartPending
	// StateRunning indicates the service is running
	StateRunning
	// StateStopPending indicates the service is running but wants to be down
	StateStopPending
	// StatePaused indicates the service process is paused
	StatePaused
)

// State string constants
const (
	stateUnknownStr      = "unknown"
	stateNotInstalledStr = "not-installed"
	stateStoppedStr      = "stopped"
	stateStartPendingStr = "start-pending"
	stateRunningStr      = "running"
	stateStopPendingStr  = "stop-pending"
	statePausedStr       = "paused"
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNotInstalled:
		return stateNotInstalledStr
	case StateStopped:
		return stateStoppedStr
	case StateStartPending:
		return stateStartPendingStr
	case StateRunning:
		return stateRunningStr
	case StateStopPending:
		return stateStopPendingStr
	case StatePaused:
		return statePausedStr
	default:
		return stateUnknownStr
	}
}

// Status is a snapshot of a service's state
type Status struct {
	// State is the inferred service state
	State State
	// PID is the process ID of the service (0 if not running or unknown)
	PID int
	// Since is when the service entered its current state, if known
	Since time.Time
}

// stateIn reports whether s is one of states
func stateIn(s State, states []State) bool {
	for _, target := range states {
		if s == target {
			return true
		}
	}
	return false
}
