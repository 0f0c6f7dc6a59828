// Package tinylfu is an implementation of the W-TinyLFU caching algorithm,
// used as an online baseline for trace simulation.
// See details at http://arxiv.org/abs/1512.00727
package tinylfu

import "github.com/pkg/errors"

// ErrCapacity is returned by New for capacities too small to give each
// segment at least one slot.
var ErrCapacity = errors.New("tinylfu: capacity must be at least 3")

// Policy implements a windowed TinyLFU eviction policy. It is not safe for concurrent access.
type Policy[K comparable] struct {
	data     map[K]*element[K]
	admittor AdmissionPolicy[K]
	stats    StatsRecorder

	window    *list[K]
	probation *list[K]
	protected *list[K]

	capacity     int
	maxWindow    int
	maxProtected int
}

// New creates a new TinyLFU policy holding up to capacity keys.
func New[K comparable](capacity int, opts ...Option[K]) (*Policy[K], error) {
	// Consistent behavior relies on capacity for one element in each segment.
	if capacity < 3 {
		return nil, errors.Wrapf(ErrCapacity, "got %d", capacity)
	}

	p := &Policy[K]{
		data:      make(map[K]*element[K], capacity),
		window:    newList[K](),
		probation: newList[K](),
		protected: newList[K](),
		capacity:  capacity,
	}

	if err := WithSegmentation[K](0.99, 0.8)(p); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Len returns the number of items in the cache.
func (p *Policy[K]) Len() int {
	return p.window.Len() + p.probation.Len() + p.protected.Len()
}

// Contains reports whether key is resident, without counting an access.
func (p *Policy[K]) Contains(key K) bool {
	_, ok := p.data[key]
	return ok
}

// Record updates the policy when an entry is accessed and reports whether it
// was a hit.
func (p *Policy[K]) Record(key K) bool {
	if p.admittor != nil {
		p.admittor.Record(key)
	}

	node, ok := p.data[key]
	if !ok {
		if p.stats != nil {
			p.stats.RecordMiss()
		}
		p.onMiss(key)
		return false
	}

	if p.stats != nil {
		p.stats.RecordHit()
	}
	switch node.List() {
	case p.window, p.protected:
		node.MoveToFront()

	case p.probation:
		// Promote the accessed item to the protected segment.
		p.protected.PushFront(node)

		// Demote the oldest protected item if needed.
		if p.protected.Len() > p.maxProtected {
			p.probation.PushFront(p.protected.Back())
		}
	}
	return true
}

// onMiss adds the entry to the admission window, evicting if necessary.
func (p *Policy[K]) onMiss(key K) {
	// This assumes maxWindow >= 1 or the following promotion panics.
	if p.window.Len() < p.maxWindow {
		p.insertNew(key)
		return
	}

	candidate := p.window.Back()
	p.probation.PushFront(candidate)

	// This assumes capacity >= 2 or the following eviction panics.
	if len(p.data) < p.capacity {
		p.insertNew(key)
		return
	}

	victim, evict := p.probation.Back(), candidate
	if p.admittor == nil || p.admittor.Admit(candidate.Value, victim.Value) {
		evict = victim
	} else if p.stats != nil {
		p.stats.RecordRejection()
	}

	// The evicted node is recycled for the new key.
	delete(p.data, evict.Value)
	evict.Value = key
	p.data[key] = evict
	p.window.PushFront(evict)

	if p.stats != nil {
		p.stats.RecordEviction()
	}
}

// insertNew allocates a new element and adds it to the admission window segment.
// This is the only time a node is allocated.
func (p *Policy[K]) insertNew(key K) {
	node := &element[K]{Value: key}
	p.window.PushFront(node)
	p.data[key] = node
}
