package cache

import (
	"slices"
	"sync"
	"time"

	"schedule-backend/internal/normalizer"
)

type State int

const (
	Empty State = iota
	Populated
)

func (s State) String() string {
	if s == Populated {
		return "populated"
	}
	return "empty"
}

// Entry is a normalized schedule and the time it was computed.
type Entry struct {
	Records     []normalizer.Record
	LastUpdated time.Time
}

// Cache holds at most one Entry. It has no expiry, it is emptied only by
// Invalidate.
type Cache struct {
	mutex sync.RWMutex
	entry *Entry
}

func New() *Cache {
	return &Cache{}
}

// Get returns the cached entry, `ok` is false when the cache is empty. The
// returned records are a copy.
func (c *Cache) Get() (entry Entry, ok bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.entry == nil {
		return Entry{}, false
	}
	return Entry{
		Records:     slices.Clone(c.entry.Records),
		LastUpdated: c.entry.LastUpdated,
	}, true
}

func (c *Cache) Store(records []normalizer.Record, lastUpdated time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if records == nil {
		records = []normalizer.Record{}
	}
	c.entry = &Entry{
		Records:     slices.Clone(records),
		LastUpdated: lastUpdated,
	}
}

func (c *Cache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entry = nil
}

func (c *Cache) State() State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.entry == nil {
		return Empty
	}
	return Populated
}
