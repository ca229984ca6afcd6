package validate

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// Bruker acquisition directories carry zero-length marker files while the
// instrument is still writing.
const (
	brukerExtension    = ".d"
	brukerMarkerSubdir = "AcqData"
	brukerMarkerMaxAge = 60 * time.Minute
)

// fileSizeStable re-stats path after the sleep window and reports whether the
// byte size held still. The stat error from the second check is returned
// unclassified so the caller can distinguish an auth failure from churn.
func (v *Validator) fileSizeStable(path string) (bool, error) {
	before, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	v.sleep(v.SleepInterval)
	after, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return before.Size() == after.Size(), nil
}

// dirSizeStable does the same over the aggregate byte size of a directory tree.
func (v *Validator) dirSizeStable(path string) (bool, error) {
	before, err := dirSize(path)
	if err != nil {
		return false, err
	}
	v.sleep(v.SleepInterval)
	after, err := dirSize(path)
	if err != nil {
		return false, err
	}
	return before == after, nil
}

func dirSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// brukerStillAcquiring reports whether a vendor acquisition directory carries
// recent zero-length markers, which means the instrument has not finished even
// when the aggregate size looks constant.
func brukerStillAcquiring(dir string, now time.Time) bool {
	if filepath.Ext(dir) != brukerExtension {
		return false
	}
	entries, err := os.ReadDir(filepath.Join(dir, brukerMarkerSubdir))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() == 0 && now.Sub(info.ModTime()) < brukerMarkerMaxAge {
			log.WithFields(log.Fields{
				"event":  "acquisition_marker_found",
				"dir":    dir,
				"marker": entry.Name(),
			}).Info("zero-length marker is recent; instrument still acquiring")
			return true
		}
	}
	return false
}
