package orchestrator

import (
	"strings"
	"sync"
	"sync/atomic"
)

// SkipRegistry counts datasets skipped per instrument after network-class
// errors. Entries appear with an insert-if-absent race and are incremented
// atomically; read for the early-exit check during the run and for reporting
// at its end.
type SkipRegistry struct {
	counts sync.Map
}

// InitSkipRegistry - ...
func InitSkipRegistry() *SkipRegistry {
	return &SkipRegistry{}
}

// IsSkipped - ...
func (r *SkipRegistry) IsSkipped(instrument string) bool {
	_, ok := r.counts.Load(strings.ToLower(instrument))
	return ok
}

// Increment - ...
func (r *SkipRegistry) Increment(instrument string) {
	entry, _ := r.counts.LoadOrStore(strings.ToLower(instrument), new(int64))
	atomic.AddInt64(entry.(*int64), 1)
}

// Counts - snapshot for end-of-run reporting.
func (r *SkipRegistry) Counts() map[string]int64 {
	snapshot := map[string]int64{}
	r.counts.Range(func(key, entry interface{}) bool {
		snapshot[key.(string)] = atomic.LoadInt64(entry.(*int64))
		return true
	})
	return snapshot
}
