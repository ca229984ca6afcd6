package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstituteInvalidChars(t *testing.T) {
	require.Equal(t, "QC_Shew_16_01", substituteInvalidChars("QC Shew 16 01"))
	require.Equal(t, "blank_5pct_MeOH", substituteInvalidChars("blank 5% MeOH"))
	require.Equal(t, "sample_v1pt2", substituteInvalidChars("sample v1.2"))
}

func TestLocateDatasetExactFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ds_one.raw"), []byte("x"), 0o644))

	m, err := locateDataset(dir, "ds_one")
	require.NoError(t, err)
	require.Equal(t, kindFile, m.kind)
	require.Equal(t, "ds_one.raw", m.name)
	require.False(t, m.fallback)
}

func TestLocateDatasetCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DS_One.raw"), []byte("x"), 0o644))

	m, err := locateDataset(dir, "ds_one")
	require.NoError(t, err)
	require.Equal(t, kindFile, m.kind)
	require.Equal(t, "DS_One.raw", m.name)
}

func TestLocateDatasetPlainDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ds_one"), 0o755))

	m, err := locateDataset(dir, "ds_one")
	require.NoError(t, err)
	require.Equal(t, kindDir, m.kind)
}

func TestLocateDatasetDirectoryWithExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ds_one.d"), 0o755))

	m, err := locateDataset(dir, "ds_one")
	require.NoError(t, err)
	require.Equal(t, kindDirWithExt, m.kind)
	require.Equal(t, "ds_one.d", m.name)
}

func TestLocateDatasetSubstitutionFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank_5pct_MeOH.raw"), []byte("x"), 0o644))

	m, err := locateDataset(dir, "blank 5% MeOH")
	require.NoError(t, err)
	require.Equal(t, kindFile, m.kind)
	require.True(t, m.fallback)
}

func TestLocateDatasetExactWinsOverSubstituted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my run.raw"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my_run.raw"), []byte("x"), 0o644))

	m, err := locateDataset(dir, "my run")
	require.NoError(t, err)
	require.Equal(t, "my run.raw", m.name)
	require.False(t, m.fallback)
}

func TestLocateDatasetNotFound(t *testing.T) {
	m, err := locateDataset(t.TempDir(), "ds_one")
	require.NoError(t, err)
	require.Equal(t, kindNone, m.kind)
}

func TestLocateDatasetMissingDirectory(t *testing.T) {
	_, err := locateDataset(filepath.Join(t.TempDir(), "gone"), "ds_one")
	require.Error(t, err)
}
