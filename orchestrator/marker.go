package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

const (
	markerFileName = "dataimport_in_progress.flag"
	lockFileName   = "dataimport.lock"
)

// RunGuard combines two mechanisms: a flock that keeps two manager instances
// from overlapping, and a crash-marker state file whose presence means a
// previous run may have died mid-commit. The marker is not a lock; it only
// detects a crashed predecessor after the fact.
type RunGuard struct {
	markerPath string
	lock       *flock.Flock
	devHost    string
}

// InitRunGuard - ...
func InitRunGuard(workDir, devHost string) *RunGuard {
	return &RunGuard{
		markerPath: filepath.Join(workDir, markerFileName),
		lock:       flock.New(filepath.Join(workDir, lockFileName)),
		devHost:    devHost,
	}
}

// Acquire takes the instance lock, refuses to proceed over a stale marker
// (except on the designated development host), and writes a fresh marker.
func (g *RunGuard) Acquire() error {
	locked, err := g.lock.TryLock()
	if err != nil {
		return fmt.Errorf("instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another manager instance holds %s", g.lock.Path())
	}

	if _, err := os.Stat(g.markerPath); err == nil {
		hostname, _ := os.Hostname()
		if g.devHost == "" || hostname != g.devHost {
			g.lock.Unlock()
			return fmt.Errorf(
				"crash marker %s exists; a previous run may have died mid-commit, state unknown, refusing to proceed",
				g.markerPath)
		}
		log.WithFields(log.Fields{
			"event":  "crash_marker_overridden",
			"marker": g.markerPath,
			"host":   hostname,
		}).Warn("development host; removing stale crash marker")
		os.Remove(g.markerPath)
	}

	content := fmt.Sprintf("pid=%d started=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	if err := os.WriteFile(g.markerPath, []byte(content), 0o644); err != nil {
		g.lock.Unlock()
		return fmt.Errorf("writing crash marker: %w", err)
	}
	return nil
}

// Release removes the marker and drops the instance lock. Only a killed
// process leaves the marker behind; a run that failed in an orderly way knows
// no commit is mid-flight once its workers have joined.
func (g *RunGuard) Release() {
	if err := os.Remove(g.markerPath); err != nil && !os.IsNotExist(err) {
		log.WithFields(log.Fields{
			"event":  "crash_marker_remove_failed",
			"marker": g.markerPath,
		}).Error(err)
	}
	if err := g.lock.Unlock(); err != nil {
		log.WithFields(log.Fields{
			"event": "instance_unlock_failed",
		}).Error(err)
	}
}
