package svchost

import "strings"

// Action is the lifecycle action selected by the invocation arguments
type Action int

const (
	// ActionNone runs the workload
	ActionNone Action = iota
	// ActionHelp prints usage
	ActionHelp
	// ActionInstall registers the service
	ActionInstall
	// ActionUninstall removes the service registration
	ActionUninstall
	// ActionStart starts the installed service
	ActionStart
	// ActionStop stops the installed service
	ActionStop
)

// String returns the flag spelling of the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionHelp:
		return keyHelp
	case ActionInstall:
		return keyInstall
	case ActionUninstall:
		return keyUninstall
	case ActionStart:
		return keyStart
	case ActionStop:
		return keyStop
	default:
		return "unknown"
	}
}

// ParseAction maps a token to an action. Unknown tokens map to ActionNone.
func ParseAction(s string) Action {
	switch canonicalKey(strings.TrimSpace(s)) {
	case keyHelp:
		return ActionHelp
	case keyInstall:
		return ActionInstall
	case keyUninstall:
		return ActionUninstall
	case keyStart:
		return ActionStart
	case keyStop:
		return ActionStop
	default:
		return ActionNone
	}
}
