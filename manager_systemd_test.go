//go:build linux

package svchost

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSystemctl is a systemctl stand-in that appends its arguments to a log
// and answers show with the contents of a state file
type fakeSystemctl struct {
	t         *testing.T
	path      string
	logPath   string
	statePath string
}

func newFakeSystemctl(t *testing.T, exitCode int) *fakeSystemctl {
	t.Helper()
	dir := t.TempDir()
	f := &fakeSystemctl{
		t:         t,
		path:      filepath.Join(dir, "systemctl"),
		logPath:   filepath.Join(dir, "calls.log"),
		statePath: filepath.Join(dir, "state"),
	}

	script := "#!/bin/sh\n" +
		"echo \"$*\" >> '" + f.logPath + "'\n" +
		"if [ \"$1\" = show ]; then cat '" + f.statePath + "'; fi\n"
	if exitCode != 0 {
		script += "echo 'unit is masked' >&2\nexit " + strconv.Itoa(exitCode) + "\n"
	}
	require.NoError(t, os.WriteFile(f.path, []byte(script), 0o755))
	f.setState("LoadState=not-found\nActiveState=inactive\n")
	return f
}

func (f *fakeSystemctl) setState(state string) {
	f.t.Helper()
	require.NoError(f.t, os.WriteFile(f.statePath, []byte(state), 0o644))
}

func (f *fakeSystemctl) calls() []string {
	f.t.Helper()
	data, err := os.ReadFile(f.logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(f.t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newTestSystemdManager(t *testing.T, exitCode int) (*SystemdManager, *fakeSystemctl) {
	t.Helper()
	fake := newFakeSystemctl(t, exitCode)
	m := NewSystemdManager(WithUnitDir(t.TempDir()), WithSystemctlPath(fake.path))
	m.PollMin = time.Millisecond
	m.PollMax = 5 * time.Millisecond
	return m, fake
}

func TestSystemdInstall(t *testing.T) {
	m, fake := newTestSystemdManager(t, 0)

	require.NoError(t, m.Install(context.Background(), testInstallSpec()))

	unit, err := os.ReadFile(filepath.Join(m.UnitDir, "Demo@One.service"))
	require.NoError(t, err)
	assert.Contains(t, string(unit), "ExecStart=/usr/local/bin/demo /serviceName=Demo /instance=One\n")
	assert.Equal(t, []string{"daemon-reload", "enable Demo@One.service"}, fake.calls())

	err = m.Install(context.Background(), testInstallSpec())
	require.ErrorIs(t, err, ErrAlreadyInstalled)
}

func TestSystemdInstallManualNotEnabled(t *testing.T) {
	m, fake := newTestSystemdManager(t, 0)
	spec := testInstallSpec()
	spec.StartMode = StartManual

	require.NoError(t, m.Install(context.Background(), spec))
	assert.Equal(t, []string{"daemon-reload"}, fake.calls())
}

func TestSystemdUninstall(t *testing.T) {
	m, fake := newTestSystemdManager(t, 0)

	err := m.Uninstall(context.Background(), "Demo$One")
	require.ErrorIs(t, err, ErrNotInstalled)
	assert.Empty(t, fake.calls())

	require.NoError(t, m.Install(context.Background(), testInstallSpec()))
	require.NoError(t, m.Uninstall(context.Background(), "Demo$One"))

	assert.NoFileExists(t, filepath.Join(m.UnitDir, "Demo@One.service"))
	assert.Equal(t, []string{
		"daemon-reload",
		"enable Demo@One.service",
		"stop Demo@One.service",
		"disable Demo@One.service",
		"daemon-reload",
	}, fake.calls())
}

func TestSystemdStartStop(t *testing.T) {
	m, fake := newTestSystemdManager(t, 0)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "Demo$One"))
	require.NoError(t, m.Stop(ctx, "Demo$One"))
	assert.Equal(t, []string{
		"start --no-block Demo@One.service",
		"stop --no-block Demo@One.service",
	}, fake.calls())
}

func TestSystemdStatus(t *testing.T) {
	m, fake := newTestSystemdManager(t, 0)
	ctx := context.Background()

	st, err := m.Status(ctx, "Demo$One")
	require.NoError(t, err)
	assert.Equal(t, StateNotInstalled, st.State)

	fake.setState("LoadState=loaded\nActiveState=active\nSubState=running\nMainPID=812\n")
	st, err = m.Status(ctx, "Demo$One")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, st.State)
	assert.Equal(t, 812, st.PID)
}

func TestSystemdWait(t *testing.T) {
	m, fake := newTestSystemdManager(t, 0)
	fake.setState("LoadState=loaded\nActiveState=activating\n")

	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.setState("LoadState=loaded\nActiveState=active\nMainPID=9\n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := m.Wait(ctx, "Demo$One", []State{StateRunning})
	require.NoError(t, err)
	assert.Equal(t, 9, st.PID)
}

func TestSystemdCommandFailure(t *testing.T) {
	m, _ := newTestSystemdManager(t, 1)

	err := m.Start(context.Background(), "Demo$One")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit is masked")

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpStart, opErr.Op)
}

func TestSystemdStartHonorsDeadline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "systemctl")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))
	m := NewSystemdManager(WithUnitDir(dir), WithSystemctlPath(path))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Start(ctx, "Demo$One")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}
