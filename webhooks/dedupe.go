package webhooks

import (
	"strings"
	"sync"
)

// DefaultCacheSize bounds the dedupe window for webhook deliveries.
const DefaultCacheSize = 1000

// EventCache remembers recently seen event IDs so retried deliveries are
// acknowledged without reprocessing. Eviction is strictly first-in
// first-out: when the cache is full the oldest remembered ID leaves,
// regardless of how recently it was looked up.
type EventCache struct {
	mu       sync.Mutex
	capacity int
	index    map[string]struct{}
	order    []string
}

// NewEventCache builds a cache remembering up to capacity event IDs.
func NewEventCache(capacity int) *EventCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &EventCache{
		capacity: capacity,
		index:    make(map[string]struct{}, capacity),
	}
}

// CheckAndRecord reports whether id was already seen, remembering it when it
// was not. Blank IDs are never duplicates and are not remembered, so events
// without delivery IDs always process.
func (c *EventCache) CheckAndRecord(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.index[id]; seen {
		return true
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.index, oldest)
	}
	c.index[id] = struct{}{}
	c.order = append(c.order, id)
	return false
}

// Len reports how many IDs are currently remembered.
func (c *EventCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
