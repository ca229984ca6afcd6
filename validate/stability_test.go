package validate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func stubValidator() *Validator {
	v := InitValidator(nil, nil, nil, nil, Config{SleepInterval: time.Millisecond})
	v.sleep = func(time.Duration) {}
	return v
}

func TestFileSizeStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.raw")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	stable, err := stubValidator().fileSizeStable(path)
	require.NoError(t, err)
	require.True(t, stable)
}

func TestFileSizeGrowing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.raw")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	v := stubValidator()
	v.sleep = func(time.Duration) {
		require.NoError(t, os.WriteFile(path, []byte("payload grew"), 0o644))
	}
	stable, err := v.fileSizeStable(path)
	require.NoError(t, err)
	require.False(t, stable)
}

func TestFileSizeStatError(t *testing.T) {
	_, err := stubValidator().fileSizeStable(filepath.Join(t.TempDir(), "gone.raw"))
	require.Error(t, err)
}

func TestDirSizeStable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dat"), []byte("aa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.dat"), []byte("bb"), 0o644))

	stable, err := stubValidator().dirSizeStable(dir)
	require.NoError(t, err)
	require.True(t, stable)
}

func TestDirSizeGrowing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dat"), []byte("aa"), 0o644))

	v := stubValidator()
	v.sleep = func(time.Duration) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "late.dat"), []byte("cc"), 0o644))
	}
	stable, err := v.dirSizeStable(dir)
	require.NoError(t, err)
	require.False(t, stable)
}

func TestBrukerStillAcquiring(t *testing.T) {
	now := time.Now()

	dir := filepath.Join(t.TempDir(), "ds.d")
	acq := filepath.Join(dir, "AcqData")
	require.NoError(t, os.MkdirAll(acq, 0o755))
	marker := filepath.Join(acq, "lock.file")
	require.NoError(t, os.WriteFile(marker, nil, 0o644))
	require.True(t, brukerStillAcquiring(dir, now))

	// Old markers mean the acquisition finished long ago.
	stale := now.Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(marker, stale, stale))
	require.False(t, brukerStillAcquiring(dir, now))

	// Non-zero-length files are data, not markers.
	require.NoError(t, os.WriteFile(marker, []byte("settings"), 0o644))
	require.False(t, brukerStillAcquiring(dir, now))
}

func TestBrukerIgnoresNonVendorDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ds_plain")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "AcqData"), 0o755))
	require.False(t, brukerStillAcquiring(dir, time.Now()))
}
