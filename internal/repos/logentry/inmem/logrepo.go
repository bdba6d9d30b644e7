// Package inmem provides a log entry repository that keeps the latest log entries in-memory
package inmem

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// DefaultCapacity is the number of entries kept when no capacity is given
const DefaultCapacity = 1000

// LogRepo keeps the latest log entries in a ring buffer
type LogRepo struct {
	sync.RWMutex
	entries []models.LogEntry
	next    int
	full    bool
}

// New creates a log repository keeping up to capacity entries
func New(capacity int) *LogRepo {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LogRepo{entries: make([]models.LogEntry, capacity)}
}

// Create stores a new log entry - the oldest entry is dropped when the buffer is full
func (r *LogRepo) Create(entry *models.LogEntry) error {
	r.Lock()
	defer r.Unlock()
	entry.ID = uuid.New().String()
	r.entries[r.next] = *entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Recent returns the latest log entries of the given category, newest first
func (r *LogRepo) Recent(category string, limit uint) ([]models.LogEntry, error) {
	if limit == 0 {
		limit = repos.DefaultLimit
	}
	r.RLock()
	n := r.next
	if r.full {
		n = len(r.entries)
	}
	ret := []models.LogEntry{}
	// Walk backwards from the newest entry
	for i := 0; i < n; i++ {
		idx := (r.next - 1 - i + len(r.entries)) % len(r.entries)
		if category == "" || r.entries[idx].Category == category {
			ret = append(ret, r.entries[idx])
		}
	}
	r.RUnlock()
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	if uint(len(ret)) > limit {
		ret = ret[:limit]
	}
	return ret, nil
}
