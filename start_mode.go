package svchost

import (
	"strconv"
	"strings"
)

// StartMode controls how the service manager starts an installed service
type StartMode int

const (
	// StartAutomatic starts the service when the host boots
	StartAutomatic StartMode = iota
	// StartManual installs the service without starting it at boot
	StartManual
	// StartDisabled installs the service but refuses to start it
	StartDisabled
)

// StartMode string constants, as accepted on the command line
const (
	startAutomaticStr = "Automatic"
	startManualStr    = "Manual"
	startDisabledStr  = "Disabled"
)

// String returns the canonical name of the start mode
func (m StartMode) String() string {
	switch m {
	case StartAutomatic:
		return startAutomaticStr
	case StartManual:
		return startManualStr
	case StartDisabled:
		return startDisabledStr
	default:
		return "StartMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Valid reports whether m is one of the defined start modes
func (m StartMode) Valid() bool {
	return m >= StartAutomatic && m <= StartDisabled
}

// ParseStartMode parses a start mode name, ignoring case
func ParseStartMode(s string) (StartMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "automatic":
		return StartAutomatic, nil
	case "manual":
		return StartManual, nil
	case "disabled":
		return StartDisabled, nil
	}
	return StartAutomatic, &ConfigError{Field: keyStartMode, Value: s, Err: ErrInvalidStartMode}
}
