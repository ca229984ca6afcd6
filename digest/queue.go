package digest

import (
	"sort"
	"strings"
	"sync"
)

// Notification - one validation or commit failure queued for digest mail.
type Notification struct {
	Operator       string
	Recipients     []string
	Subject        string
	IssueType      string
	IssueDetail    string
	AdditionalInfo string
	DatasetPath    string
}

// Queue accumulates notifications from parallel workers, keyed by recipient
// set. Buckets are created with an insert-if-absent race (LoadOrStore) and
// appended to under the bucket's own lock; there is no global lock.
type Queue struct {
	buckets sync.Map
}

type bucket struct {
	mu    sync.Mutex
	items []*Notification
}

// InitQueue - ...
func InitQueue() *Queue {
	return &Queue{}
}

// Append - ...
func (q *Queue) Append(n *Notification) {
	key := recipientsKey(n.Recipients)
	entry, _ := q.buckets.LoadOrStore(key, &bucket{})
	b := entry.(*bucket)
	b.mu.Lock()
	b.items = append(b.items, n)
	b.mu.Unlock()
}

// Drain removes and returns every bucket. Called once per run, after all
// workers have finished.
func (q *Queue) Drain() [][]*Notification {
	var groups [][]*Notification
	q.buckets.Range(func(key, entry interface{}) bool {
		b := entry.(*bucket)
		b.mu.Lock()
		items := b.items
		b.items = nil
		b.mu.Unlock()
		if len(items) > 0 {
			groups = append(groups, items)
		}
		q.buckets.Delete(key)
		return true
	})
	sort.Slice(groups, func(i, j int) bool {
		return recipientsKey(groups[i][0].Recipients) < recipientsKey(groups[j][0].Recipients)
	})
	return groups
}

func recipientsKey(recipients []string) string {
	lowered := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r != "" {
			lowered = append(lowered, strings.ToLower(r))
		}
	}
	sort.Strings(lowered)
	return strings.Join(lowered, ";")
}
