// Package slru implements a segmented LRU replacement policy over keys,
// used as an online baseline for trace simulation.
package slru

import (
	"container/list"

	"github.com/pkg/errors"
)

type segment int

const (
	probation segment = iota
	protected
)

// Cache is a segmented LRU cache. New keys enter the probation segment and
// are promoted to the protected segment on their second access. It is not
// safe for concurrent access.
type Cache[K comparable] struct {
	items        map[K]*list.Element
	probation    *list.List
	protected    *list.List
	maxProbation int
	maxProtected int
}

type entry[K comparable] struct {
	key     K
	segment segment
}

// New creates a new SLRU cache.
//
// Segment capacities must be positive.
func New[K comparable](maxProbation int, maxProtected int) (*Cache[K], error) {
	if maxProbation < 1 || maxProtected < 1 {
		return nil, errors.Errorf("slru: segment capacities must be positive, got %d and %d",
			maxProbation, maxProtected)
	}

	return &Cache[K]{
		items:        make(map[K]*list.Element),
		probation:    list.New(),
		maxProbation: maxProbation,
		protected:    list.New(),
		maxProtected: maxProtected,
	}, nil
}

// Split divides capacity between the segments, giving the protected segment
// the given fraction and leaving at least one slot for each.
func Split(capacity int, fraction float64) (maxProbation, maxProtected int) {
	maxProtected = int(float64(capacity) * fraction)
	if maxProtected < 1 {
		maxProtected = 1
	}
	if maxProtected >= capacity {
		maxProtected = capacity - 1
	}
	return capacity - maxProtected, maxProtected
}

// Contains reports whether key is resident, without counting an access.
func (c *Cache[K]) Contains(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Record accesses key, admitting it on a miss. It reports whether the access
// was a hit and whether admitting the key evicted another one.
func (c *Cache[K]) Record(key K) (hit, evicted bool) {
	if e, ok := c.items[key]; ok {
		c.touch(e)
		return true, false
	}
	return false, c.add(key)
}

// touch promotes or refreshes a resident entry.
func (c *Cache[K]) touch(e *list.Element) {
	ent := e.Value.(*entry[K])
	if ent.segment == protected {
		c.protected.MoveToFront(e)
		return
	}

	// Just promote the entry there's room in the next segment.
	if c.protected.Len() < c.maxProtected {
		c.probation.Remove(e)
		ent.segment = protected
		c.items[ent.key] = c.protected.PushFront(ent)
		return
	}

	// Swap the entry with the oldest protected one in-place to minimize allocations.
	prot := c.protected.Back()
	victim := prot.Value.(*entry[K])
	victim.segment = probation
	ent.segment = protected
	prot.Value, e.Value = e.Value, prot.Value

	c.protected.MoveToFront(prot)
	c.probation.MoveToFront(e)
	c.items[ent.key] = prot
	c.items[victim.key] = e
}

// add inserts a new key into probation and reports whether the oldest
// probationary key had to make room for it.
func (c *Cache[K]) add(key K) bool {
	if c.probation.Len() < c.maxProbation || c.Len() < c.maxProbation+c.maxProtected {
		c.items[key] = c.probation.PushFront(&entry[K]{key: key})
		return false
	}

	// Reuse the tail item.
	e := c.probation.Back()
	item := e.Value.(*entry[K])
	delete(c.items, item.key)

	item.key = key
	c.items[key] = e
	c.probation.MoveToFront(e)
	return true
}

// Oldest returns the next key to be removed from the cache. If the cache is
// not at capacity, no key is returned.
//
// This is not counted as an access and therefore does not update recency.
func (c *Cache[K]) Oldest() (key K, ok bool) {
	if c.Len() < c.maxProbation+c.maxProtected {
		return
	}
	return c.probation.Back().Value.(*entry[K]).key, true
}

// Len returns the number of items in the cache.
func (c *Cache[K]) Len() int {
	return c.probation.Len() + c.protected.Len()
}

// Remove removes the provided key from the cache.
func (c *Cache[K]) Remove(key K) {
	e, ok := c.items[key]
	if !ok {
		return
	}

	if e.Value.(*entry[K]).segment == protected {
		c.protected.Remove(e)
	} else {
		c.probation.Remove(e)
	}

	delete(c.items, key)
}
