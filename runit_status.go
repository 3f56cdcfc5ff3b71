package svchost

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// runit service directory layout
const (
	runitSuperviseDir = "supervise"
	runitControlFile  = "control"
	runitStatusFile   = "status"
	runitDownFile     = "down"
	runitRunFile      = "run"
	runitLogDir       = "log"

	// runitStatusSize is the size of the supervise status record
	runitStatusSize = 20

	// tai64Base is the TAI64 label of the Unix epoch (1970-01-01 00:00:10 TAI)
	tai64Base = uint64(1<<62) + 10
)

// Status record offsets
const (
	offsetTAI64Sec  = 0
	offsetTAI64Nano = 8
	offsetPID       = 12
	offsetPaused    = 16
	offsetWant      = 17
	offsetTerm      = 18
	offsetRun       = 19
)

// runit control commands
const (
	runitCmdUp   = 'u'
	runitCmdDown = 'd'
	runitCmdExit = 'x'
)

// decodeRunitStatus decodes a 20-byte supervise status record.
// The format is:
//
//	bytes 0-7:   TAI64N seconds (big-endian uint64)
//	bytes 8-11:  TAI64N nanoseconds (big-endian uint32)
//	bytes 12-15: PID (little-endian uint32)
//	byte 16:     paused flag
//	byte 17:     want flag ('u' for up, 'd' for down)
//	byte 18:     term flag (finish script running)
//	byte 19:     run state
func decodeRunitStatus(data []byte) (Status, error) {
	if len(data) != runitStatusSize {
		return Status{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrDecode, runitStatusSize, len(data))
	}

	var st Status
	st.PID = int(binary.LittleEndian.Uint32(data[offsetPID:offsetPaused]))

	sec := binary.BigEndian.Uint64(data[offsetTAI64Sec:offsetTAI64Nano])
	nano := binary.BigEndian.Uint32(data[offsetTAI64Nano:offsetPID])
	if sec > tai64Base {
		unixSec := int64(sec - tai64Base)
		if unixSec < 253402300800 {
			st.Since = time.Unix(unixSec, int64(nano))
		}
	}

	running := st.PID > 0
	paused := data[offsetPaused] != 0
	finishing := data[offsetTerm] != 0
	wantDown := data[offsetWant] == 'd'
	wantUp := data[offsetWant] == 'u'

	switch {
	case running && paused:
		st.State = StatePaused
	case running && (wantDown || finishing):
		st.State = StateStopPending
	case running:
		st.State = StateRunning
	case finishing:
		st.State = StateStopPending
	case wantUp:
		st.State = StateStartPending
	default:
		st.State = StateStopped
	}

	return st, nil
}

// encodeRunitStatus builds a status record, the inverse of decodeRunitStatus
func encodeRunitStatus(pid int, want byte, since time.Time) []byte {
	data := make([]byte, runitStatusSize)
	if !since.IsZero() {
		binary.BigEndian.PutUint64(data[offsetTAI64Sec:], uint64(since.Unix())+tai64Base)
		binary.BigEndian.PutUint32(data[offsetTAI64Nano:], uint32(since.Nanosecond()))
	}
	binary.LittleEndian.PutUint32(data[offsetPID:], uint32(pid))
	data[offsetWant] = want
	if pid > 0 {
		data[offsetRun] = 1
	}
	return data
}

// renderRunitRun generates the run script for spec
func renderRunitRun(spec InstallSpec, chpstPath string) string {
	lines := []string{
		"#!/bin/sh",
		"# " + spec.DisplayName,
		"exec 2>&1",
	}

	parts := make([]string, 0, len(spec.Args)+4)
	if spec.Username != "" {
		parts = append(parts, chpstPath, "-u", shellQuote(spec.Username))
	}
	parts = append(parts, shellQuote(spec.Executable))
	for _, arg := range spec.Args {
		parts = append(parts, shellQuote(arg))
	}

	lines = append(lines, "exec "+strings.Join(parts, " "))
	return strings.Join(lines, "\n") + "\n"
}

// renderRunitLogRun generates the log/run script that feeds svlogd
func renderRunitLogRun(svlogdPath string) string {
	return "#!/bin/sh\nexec " + svlogdPath + " -tt ./main\n"
}

// shellQuote escapes a string for safe use in shell scripts
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}

	if !needsShellQuoting(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// needsShellQuoting checks if a string contains characters that require shell quoting
func needsShellQuoting(s string) bool {
	const specialChars = " \t\n'\"\\$`!*?[](){}<>|&;~#"

	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
