/*
 * Copyright 2024 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package clairvoyant computes the best hit ratio any cache of a given size
// could achieve on a known trace. It replays the trace with Bélády's optimal
// replacement rule: on every eviction, discard the resident entry whose next
// reference lies farthest in the future, or that is never referenced again.
//
// The result is an upper bound for online policies, which cannot see the
// future, and is meant to be reported next to them.
package clairvoyant

import (
	"cmp"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dgraph-io/clairvoyant/z"
)

// Never is the next-reference tick of a key that does not occur again. It is
// larger than any tick a trace can produce.
const Never = math.MaxInt

var (
	// ErrNegativeCapacity is returned by New for a negative MaximumSize.
	ErrNegativeCapacity = errors.New("clairvoyant: maximum size can't be negative")
	// ErrFinished is returned when a trace is fed to, or finished on, a policy
	// that already replayed its trace.
	ErrFinished = errors.New("clairvoyant: trace already finished")
	// ErrNilKey is returned when a nil key is recorded through Hashed.
	ErrNilKey = z.ErrNilKey
)

// Config configures an optimal policy run.
type Config[K cmp.Ordered] struct {
	// MaximumSize is the number of entries the simulated cache can hold.
	MaximumSize int
	// Logger receives the phase boundaries of the run. Defaults to a logger
	// that discards everything.
	Logger logrus.FieldLogger
	// OnEvict, if set, is called for every victim in eviction order along
	// with the tick of its next reference (Never if there is none).
	OnEvict func(key K, next int)
}

// Clairvoyant is Bélády's offline optimal policy. Keys are buffered by Record
// and replayed by Finished, since every replacement decision depends on the
// rest of the trace. It is not safe for concurrent use.
type Clairvoyant[K cmp.Ordered] struct {
	maximumSize int
	times       *accessTimes[K]
	future      []K
	data        *orderIndex[K]
	stats       *Stats
	log         logrus.FieldLogger
	onEvict     func(key K, next int)
	done        bool
}

// New returns an optimal policy for a cache of config.MaximumSize entries.
func New[K cmp.Ordered](config *Config[K]) (*Clairvoyant[K], error) {
	if config == nil {
		config = &Config[K]{}
	}
	if config.MaximumSize < 0 {
		return nil, errors.Wrapf(ErrNegativeCapacity, "got %d", config.MaximumSize)
	}
	log := config.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Clairvoyant[K]{
		maximumSize: config.MaximumSize,
		times:       newAccessTimes[K](),
		stats:       NewStats("opt"),
		log:         log,
		onEvict:     config.OnEvict,
	}, nil
}

// Name implements Policy.
func (c *Clairvoyant[K]) Name() string {
	return "opt"
}

// Stats implements Policy.
func (c *Clairvoyant[K]) Stats() *Stats {
	return c.stats
}

// Record appends one event to the trace and notes its tick under the key.
func (c *Clairvoyant[K]) Record(key K) error {
	if c.done {
		return ErrFinished
	}
	c.times.record(key)
	c.future = append(c.future, key)
	return nil
}

// Finished replays the recorded trace. Only the replay is timed, so the
// reported elapsed time is comparable with policies that need no
// precomputation pass.
func (c *Clairvoyant[K]) Finished() error {
	if c.done {
		return ErrFinished
	}
	c.done = true

	c.data = newOrderIndex[K](min(c.maximumSize, c.times.distinct()))
	c.log.WithFields(logrus.Fields{
		"ticks":        c.times.tick,
		"keys":         c.times.distinct(),
		"maximum-size": c.maximumSize,
	}).Debug("replaying trace")

	c.stats.Start()
	for _, key := range c.future {
		c.process(key)
	}
	c.stats.Stop()

	c.future = nil
	c.log.WithFields(logrus.Fields{
		"hits":      c.stats.Hits(),
		"misses":    c.stats.Misses(),
		"evictions": c.stats.Evictions(),
		"elapsed":   c.stats.Elapsed(),
	}).Debug("replay finished")
	return nil
}

// Len is the number of resident entries. It is zero until the trace has
// been replayed.
func (c *Clairvoyant[K]) Len() int {
	if c.data == nil {
		return 0
	}
	return c.data.size()
}

// process performs the cache operations for the given key. The new entry is
// inserted before the capacity check, so a key whose next reference is the
// farthest of all is evicted right away.
func (c *Clairvoyant[K]) process(key K) {
	last := c.times.dequeue(key)
	next := c.times.peek(key)

	found := c.data.removeIfPresent(key, last)
	c.data.insert(key, next)
	if found {
		c.stats.RecordHit()
		return
	}
	c.stats.RecordMiss()
	if c.data.size() > c.maximumSize {
		c.evict(last)
	}
}

// evict removes the entry whose next access is farthest away into the future.
func (c *Clairvoyant[K]) evict(now int) {
	victim := c.data.evictFarthest()
	c.stats.RecordEviction()
	c.stats.recordVictim(now, victim.next)
	if c.onEvict != nil {
		c.onEvict(victim.key, victim.next)
	}
}
