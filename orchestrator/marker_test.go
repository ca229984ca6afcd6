package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunGuardAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	guard := InitRunGuard(dir, "")

	require.NoError(t, guard.Acquire())
	marker := filepath.Join(dir, markerFileName)
	content, err := os.ReadFile(marker)
	require.NoError(t, err)
	require.Contains(t, string(content), "pid=")

	guard.Release()
	_, err = os.Stat(marker)
	require.True(t, os.IsNotExist(err))
}

func TestRunGuardRefusesSecondInstance(t *testing.T) {
	dir := t.TempDir()
	first := InitRunGuard(dir, "")
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := InitRunGuard(dir, "")
	err := second.Acquire()
	require.Error(t, err)
	require.Contains(t, err.Error(), "another manager instance")
}

func TestRunGuardRefusesOverCrashMarker(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, markerFileName)
	require.NoError(t, os.WriteFile(marker, []byte("pid=999 started=earlier\n"), 0o644))

	guard := InitRunGuard(dir, "")
	err := guard.Acquire()
	require.Error(t, err)
	require.Contains(t, err.Error(), "refusing to proceed")
	// The marker stays for a human to investigate.
	_, statErr := os.Stat(marker)
	require.NoError(t, statErr)
}

func TestRunGuardDevHostOverridesMarker(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, markerFileName)
	require.NoError(t, os.WriteFile(marker, []byte("pid=999 started=earlier\n"), 0o644))

	hostname, err := os.Hostname()
	require.NoError(t, err)
	guard := InitRunGuard(dir, hostname)
	require.NoError(t, guard.Acquire())
	guard.Release()
}
