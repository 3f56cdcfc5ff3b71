//go:build linux || darwin

package svchost

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/renameio/v2"
	"github.com/stretchr/testify/require"
)

// fakeSupervise creates the supervise directory runsv would maintain for a
// service. The control endpoint is a regular file, so the last command
// written can be read back.
type fakeSupervise struct {
	t           *testing.T
	dir         string
	controlPath string
	statusPath  string
}

func newFakeSupervise(t *testing.T, serviceDir string) *fakeSupervise {
	t.Helper()
	f := &fakeSupervise{
		t:           t,
		dir:         filepath.Join(serviceDir, runitSuperviseDir),
		controlPath: filepath.Join(serviceDir, runitSuperviseDir, runitControlFile),
		statusPath:  filepath.Join(serviceDir, runitSuperviseDir, runitStatusFile),
	}
	require.NoError(t, os.MkdirAll(f.dir, 0o755))
	require.NoError(t, os.WriteFile(f.controlPath, nil, 0o644))
	f.setStatus(0, 'd')
	return f
}

// setStatus atomically replaces the status file
func (f *fakeSupervise) setStatus(pid int, want byte) {
	f.t.Helper()
	data := encodeRunitStatus(pid, want, time.Now())
	require.NoError(f.t, renameio.WriteFile(f.statusPath, data, 0o644))
}

// lastCommand returns the last control byte written, or 0
func (f *fakeSupervise) lastCommand() byte {
	f.t.Helper()
	data, err := os.ReadFile(f.controlPath)
	require.NoError(f.t, err)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}
