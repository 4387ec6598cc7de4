// Package weakcache implements a thread-safe hash-consing cache whose entries
// hold their values weakly.
package weakcache

import (
	"fmt"
	"sync"
	"weak"

	"github.com/benbjohnson/clari/internal/logging"
)

// DefaultGCThreshold is the entry count above which the first GC pass runs.
const DefaultGCThreshold = 1<<10 - 1

// Cache maps keys to weakly held values. A value is kept alive only by its
// external owners; once they release it the entry goes stale and is removed
// by the next GC pass.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]weak.Pointer[V]

	defaultThreshold int
	threshold        int

	logger logging.Logger
}

// New returns a new instance of Cache. A threshold less than one selects
// DefaultGCThreshold. A nil logger discards output.
func New[K comparable, V any](threshold int, logger logging.Logger) *Cache[K, V] {
	if threshold < 1 {
		threshold = DefaultGCThreshold
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cache[K, V]{
		entries:          make(map[K]weak.Pointer[V]),
		defaultThreshold: threshold,
		threshold:        threshold,
		logger:           logger,
	}
}

// Exists returns true if a live value is stored under key.
func (c *Cache[K, V]) Exists(key K) bool {
	return c.Find(key) != nil
}

// Find returns the live value stored under key or nil.
func (c *Cache[K, V]) Find(key K) *V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(key)
}

// Insert stores v under key. Inserting over a live entry is a programming
// error and panics.
func (c *Cache[K, V]) Insert(key K, v *V) {
	assert(v != nil, "insert: nil value")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert(c.lookup(key) == nil, "insert: live entry already exists for %v", key)
	c.install(key, v)
}

// FindOrConstruct returns the live value stored under key. On a miss, build
// is invoked without holding any lock and its result is installed unless
// another goroutine installed a value for key first, in which case the
// built value is discarded and the winner is returned.
//
// If build returns an error then the cache is left unmodified.
func (c *Cache[K, V]) FindOrConstruct(key K, build func() (*V, error)) (*V, error) {
	if v := c.Find(key); v != nil {
		return v, nil
	}

	v, err := build()
	if err != nil {
		return nil, err
	}
	assert(v != nil, "find or construct: builder returned nil for %v", key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if winner := c.lookup(key); winner != nil {
		return winner, nil
	}
	c.install(key, v)
	return v, nil
}

// Len returns the number of entries, live or stale.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Live returns the number of entries whose value is still reachable.
func (c *Cache[K, V]) Live() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int
	for _, wp := range c.entries {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

// Threshold returns the entry count that triggers the next GC pass.
func (c *Cache[K, V]) Threshold() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threshold
}

// GC removes stale entries and resizes the threshold.
func (c *Cache[K, V]) GC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gc()
}

// lookup returns the live value for key. Caller must hold a lock.
func (c *Cache[K, V]) lookup(key K) *V {
	if wp, ok := c.entries[key]; ok {
		return wp.Value()
	}
	return nil
}

// install stores v and runs GC if the entry count crossed the threshold.
// Caller must hold the write lock.
func (c *Cache[K, V]) install(key K, v *V) {
	c.entries[key] = weak.Make(v)
	if len(c.entries) > c.threshold {
		c.gc()
	}
}

// gc drops stale entries. Caller must hold the write lock.
func (c *Cache[K, V]) gc() {
	before := len(c.entries)
	for key, wp := range c.entries {
		if wp.Value() == nil {
			delete(c.entries, key)
		}
	}
	c.threshold = max(c.defaultThreshold, 2*len(c.entries))
	c.logger.Debug("weak cache gc", "before", before, "after", len(c.entries), "threshold", c.threshold)
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
