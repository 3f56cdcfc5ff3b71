package svchost

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// systemdUnitName maps an instanced service name to a unit name
func systemdUnitName(name string) string {
	return instanceFileName(name) + ".service"
}

// renderSystemdUnit generates the unit file for spec
func renderSystemdUnit(spec InstallSpec) string {
	var unit strings.Builder

	unit.WriteString("[Unit]\n")
	unit.WriteString(fmt.Sprintf("Description=%s\n", unitValue(spec.DisplayName)))
	if spec.Description != "" {
		unit.WriteString(fmt.Sprintf("# %s\n", unitValue(spec.Description)))
	}
	if spec.StartMode == StartAutomatic && spec.DelayedAutoStart {
		unit.WriteString("Wants=network-online.target\n")
		unit.WriteString("After=network-online.target\n")
	} else {
		unit.WriteString("After=network.target\n")
	}
	if spec.StartMode == StartDisabled {
		unit.WriteString("RefuseManualStart=yes\n")
	}
	unit.WriteString("# Managed by go-svchost\n")
	unit.WriteString("\n")

	unit.WriteString("[Service]\n")
	unit.WriteString("Type=simple\n")
	unit.WriteString("Restart=on-failure\n")
	unit.WriteString("RestartSec=1\n")
	unit.WriteString("KillMode=mixed\n")
	unit.WriteString("KillSignal=SIGTERM\n")
	if spec.Timeout > 0 {
		secs := int((spec.Timeout + time.Second - 1) / time.Second)
		unit.WriteString(fmt.Sprintf("TimeoutStopSec=%d\n", secs))
	}
	if spec.Username != "" {
		unit.WriteString(fmt.Sprintf("User=%s\n", unitValue(spec.Username)))
	}

	execStart := quoteExecArg(spec.Executable)
	for _, arg := range spec.Args {
		execStart += " " + quoteExecArg(arg)
	}
	unit.WriteString(fmt.Sprintf("ExecStart=%s\n", execStart))
	unit.WriteString("StandardOutput=journal\n")
	unit.WriteString("StandardError=journal\n")
	unit.WriteString(fmt.Sprintf("SyslogIdentifier=%s\n", instanceFileName(spec.Name)))

	if spec.StartMode != StartDisabled {
		unit.WriteString("\n")
		unit.WriteString("[Install]\n")
		unit.WriteString("WantedBy=multi-user.target\n")
	}

	return unit.String()
}

// unitValue flattens control characters to spaces and escapes specifiers so
// s stays a single unit file value
func unitValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.ReplaceAll(s, "%", "%%")
}

// quoteExecArg quotes arg for an Exec= line and escapes systemd specifiers
func quoteExecArg(arg string) string {
	if strings.ContainsAny(arg, " \t\n\"'\\") {
		arg = strconv.Quote(arg)
	}
	arg = strings.ReplaceAll(arg, "%", "%%")
	return strings.ReplaceAll(arg, "$", "$$")
}

// systemdTimestampLayout is the format of timestamp properties in systemctl show
const systemdTimestampLayout = "Mon 2006-01-02 15:04:05 MST"

// parseSystemdShow converts systemctl show key=value output into a Status
func parseSystemdShow(output string) Status {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	var st Status
	if props["LoadState"] == "not-found" {
		st.State = StateNotInstalled
		return st
	}

	switch props["ActiveState"] {
	case "active", "reloading":
		st.State = StateRunning
	case "activating":
		st.State = StateStartPending
	case "deactivating":
		st.State = StateStopPending
	case "inactive", "failed":
		st.State = StateStopped
	default:
		st.State = StateUnknown
	}

	if pid, err := strconv.Atoi(props["MainPID"]); err == nil && pid > 0 {
		st.PID = pid
	}
	if ts := props["StateChangeTimestamp"]; ts != "" {
		if t, err := time.Parse(systemdTimestampLayout, ts); err == nil {
			st.Since = t
		}
	}

	return st
}
