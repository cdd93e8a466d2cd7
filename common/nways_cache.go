package common

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// NWaysCache is a fixed-capacity set-associative cache. The capacity is
// split into sets of a configured size (= number of ways), and every key
// maps to exactly one set by modulo. Lookups and updates only scan the one
// set the key belongs to, guarded by a per-set mutex, so operations on
// different sets never contend. When a set is full, its least recently
// used entry is evicted.
type NWaysCache[K constraints.Integer, V any] struct {
	items   []nWaysCacheEntry[K, V]
	locks   []sync.Mutex
	nways   uint
	numsets uint
	ticker  atomic.Uint64 // age source for the LRU ordering within sets
}

// NewNWaysCache creates a cache with the given capacity and number of ways.
// The capacity is rounded up to a multiple of the number of ways.
func NewNWaysCache[K constraints.Integer, V any](capacity, ways int) *NWaysCache[K, V] {
	numsets := (capacity + ways - 1) / ways
	return &NWaysCache[K, V]{
		items:   make([]nWaysCacheEntry[K, V], numsets*ways),
		locks:   make([]sync.Mutex, numsets),
		nways:   uint(ways),
		numsets: uint(numsets),
	}
}

// Get retrieves the value cached for the given key, if present, and marks
// it as recently used.
func (c *NWaysCache[K, V]) Get(key K) (V, bool) {
	set := uint(key) % c.numsets
	c.locks[set].Lock()
	defer c.locks[set].Unlock()

	now := c.ticker.Add(1)
	position := set * c.nways
	for i := position; i < position+c.nways; i++ {
		if c.items[i].used > 0 && c.items[i].key == key {
			c.items[i].used = now
			return c.items[i].value, true
		}
	}

	var none V
	return none, false
}

// Set caches the given value under the given key, replacing any value the
// key held before. When the key's set is full, the least recently used
// entry of the set is dropped and returned.
func (c *NWaysCache[K, V]) Set(key K, value V) (evictedKey K, evictedValue V, evicted bool) {
	set := uint(key) % c.numsets
	c.locks[set].Lock()
	defer c.locks[set].Unlock()

	now := c.ticker.Add(1)
	oldest := now
	var oldestIndex uint

	position := set * c.nways
	for i := position; i < position+c.nways; i++ {
		if c.items[i].used == 0 || c.items[i].key == key {
			c.items[i].key = key
			c.items[i].value = value
			c.items[i].used = now
			return evictedKey, evictedValue, false
		}
		if c.items[i].used < oldest {
			oldest = c.items[i].used
			oldestIndex = i
		}
	}

	evictedKey = c.items[oldestIndex].key
	evictedValue = c.items[oldestIndex].value
	c.items[oldestIndex].key = key
	c.items[oldestIndex].value = value
	c.items[oldestIndex].used = now
	return evictedKey, evictedValue, true
}

// Remove drops the entry cached for the given key and returns the value it
// held. Removing an absent key is a no-op.
func (c *NWaysCache[K, V]) Remove(key K) (removed V, exists bool) {
	set := uint(key) % c.numsets
	c.locks[set].Lock()
	defer c.locks[set].Unlock()

	position := set * c.nways
	for i := position; i < position+c.nways; i++ {
		if c.items[i].used > 0 && c.items[i].key == key {
			c.items[i].used = 0
			return c.items[i].value, true
		}
	}

	return removed, false
}

type nWaysCacheEntry[K constraints.Integer, V any] struct {
	key   K
	value V
	used  uint64
}
