package capture

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// FileSourceConfig - ...
type FileSourceConfig struct {
	Directory  string
	SuccessDir string
	FailureDir string
	HoldoffDir string
}

// FileSource discovers trigger files dropped in the configured directory and
// disposes of them by moving.
type FileSource struct {
	cfg FileSourceConfig
}

// InitFileSource - ...
func InitFileSource(cfg FileSourceConfig) *FileSource {
	return &FileSource{cfg: cfg}
}

// Discover - parse every trigger file currently present. Unreadable or
// malformed files become candidates carrying ParseErr so validation can
// classify them instead of the scan crashing.
func (src *FileSource) Discover(ctx context.Context) ([]*Candidate, error) {
	entries, err := os.ReadDir(src.cfg.Directory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WithFields(log.Fields{
				"event":     "trigger_dir_missing",
				"directory": src.cfg.Directory,
			}).Warn("trigger directory does not exist; skipping file source")
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var candidates []*Candidate
	for _, name := range names {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}
		path := filepath.Join(src.cfg.Directory, name)
		candidates = append(candidates, src.parse(path))
	}
	log.WithFields(log.Fields{
		"event": "trigger_files_discovered",
		"count": len(candidates),
	}).Info("scanned ", src.cfg.Directory)
	return candidates, nil
}

func (src *FileSource) parse(path string) *Candidate {
	description := "trigger file " + filepath.Base(path)
	buff, err := os.ReadFile(path)
	if err != nil {
		c := NewCandidate(&Params{}, description, OriginFile, src)
		c.TriggerPath = path
		if errors.Is(err, fs.ErrNotExist) {
			c.Missing = true
		} else {
			c.ParseErr = err
		}
		return c
	}
	params := &Params{}
	parseErr := params.FromXML(string(buff))
	c := NewCandidate(params, description, OriginFile, src)
	c.TriggerPath = path
	if c.ParseErr == nil {
		c.ParseErr = parseErr
	}
	return c
}

// Dispose - move the trigger file per disposition. A file already gone is
// skipped silently; some other manager instance beat us to it.
func (src *FileSource) Dispose(ctx context.Context, c *Candidate, d Disposition, message string) error {
	var target string
	switch d {
	case DisposeSuccess:
		target = src.cfg.SuccessDir
	case DisposeFailure:
		target = src.cfg.FailureDir
	case DisposeTimeValidation:
		target = src.cfg.HoldoffDir
	case DisposeRetry, DisposePutBack:
		return nil
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(target, filepath.Base(c.TriggerPath))
	err := os.Rename(c.TriggerPath, dest)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithFields(log.Fields{
			"event":   "trigger_file_vanished",
			"trigger": c.TriggerPath,
		}).Debug("trigger file gone before disposal; skipping")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event":   "trigger_file_disposed",
		"trigger": filepath.Base(c.TriggerPath),
		"dest":    target,
	}).Info(message)
	return nil
}
