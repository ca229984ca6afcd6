package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFileSource(t *testing.T) (*FileSource, string) {
	t.Helper()
	root := t.TempDir()
	cfg := FileSourceConfig{
		Directory:  filepath.Join(root, "trigger"),
		SuccessDir: filepath.Join(root, "success"),
		FailureDir: filepath.Join(root, "failure"),
		HoldoffDir: filepath.Join(root, "holdoff"),
	}
	require.NoError(t, os.MkdirAll(cfg.Directory, 0o755))
	return InitFileSource(cfg), cfg.Directory
}

func writeTrigger(t *testing.T, dir, name, instrument, dataset string) string {
	t.Helper()
	p := &Params{}
	p.Set(ParamInstrument, instrument)
	p.Set(ParamDataset, dataset)
	doc, err := p.XML()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestFileSourceDiscover(t *testing.T) {
	src, dir := newTestFileSource(t)
	writeTrigger(t, dir, "a.xml", "VOrbiETD04", "ds_one")
	writeTrigger(t, dir, "b.xml", "Exploris03", "ds_two")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, "VOrbiETD04", candidates[0].Instrument)
	require.Equal(t, OriginFile, candidates[0].Origin)
	require.NoError(t, candidates[0].ParseErr)
}

func TestFileSourceDiscoverMalformed(t *testing.T) {
	src, dir := newTestFileSource(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("<Dataset"), 0o644))

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Error(t, candidates[0].ParseErr)
}

func TestFileSourceDiscoverMissingDirectory(t *testing.T) {
	src := InitFileSource(FileSourceConfig{Directory: filepath.Join(t.TempDir(), "absent")})
	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestFileSourceDispose(t *testing.T) {
	src, dir := newTestFileSource(t)
	writeTrigger(t, dir, "a.xml", "VOrbiETD04", "ds_one")

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	c := candidates[0]

	require.NoError(t, c.Dispose(context.Background(), DisposeSuccess, "created"))
	require.NoFileExists(t, c.TriggerPath)
	require.FileExists(t, filepath.Join(src.cfg.SuccessDir, "a.xml"))
}

func TestFileSourceDisposeVanishedFile(t *testing.T) {
	src, dir := newTestFileSource(t)
	path := writeTrigger(t, dir, "a.xml", "VOrbiETD04", "ds_one")

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	// Some other instance got there first; disposal is silent.
	require.NoError(t, candidates[0].Dispose(context.Background(), DisposeFailure, "failed"))
}

func TestFileSourceDisposeRetryLeavesFile(t *testing.T) {
	src, dir := newTestFileSource(t)
	path := writeTrigger(t, dir, "a.xml", "VOrbiETD04", "ds_one")

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.NoError(t, candidates[0].Dispose(context.Background(), DisposeRetry, "still growing"))
	require.FileExists(t, path)
}
