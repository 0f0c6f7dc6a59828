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

package policies

import (
	"github.com/pkg/errors"

	"github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dgraph-io/clairvoyant"
	"github.com/dgraph-io/clairvoyant/slru"
	"github.com/dgraph-io/clairvoyant/tinylfu"
	"github.com/dgraph-io/clairvoyant/z"
)

// cache is a simulated online cache. access updates stats for one request.
type cache interface {
	access(key uint64, stats *clairvoyant.Stats)
}

// online drives a cache that decides on every request as it arrives. It is
// timed from the first Record until Finished.
type online struct {
	name  string
	cache cache
	stats *clairvoyant.Stats
	done  bool
}

func newOnline(name string, c cache) *online {
	return &online{name: name, cache: c, stats: clairvoyant.NewStats(name)}
}

func (o *online) Name() string              { return o.name }
func (o *online) Stats() *clairvoyant.Stats { return o.stats }

func (o *online) Record(key uint64) error {
	if o.done {
		return clairvoyant.ErrFinished
	}
	o.stats.Start()
	o.cache.access(key, o.stats)
	return nil
}

func (o *online) Finished() error {
	if o.done {
		return clairvoyant.ErrFinished
	}
	o.done = true
	o.stats.Stop()
	return nil
}

// noCache retains nothing. It stands in for caches too small for a policy's
// own structure.
type noCache struct{}

func (noCache) access(_ uint64, stats *clairvoyant.Stats) {
	stats.RecordMiss()
	stats.RecordEviction()
}

type lruCache struct {
	c *lru.Cache[uint64, struct{}]
}

func newLRU(config *Config) (clairvoyant.Policy[uint64], error) {
	if config.Size == 0 {
		return newOnline("lru", noCache{}), nil
	}
	c, err := lru.New[uint64, struct{}](config.Size)
	if err != nil {
		return nil, err
	}
	return newOnline("lru", &lruCache{c: c}), nil
}

func (l *lruCache) access(key uint64, stats *clairvoyant.Stats) {
	if _, ok := l.c.Get(key); ok {
		stats.RecordHit()
		return
	}
	stats.RecordMiss()
	if l.c.Add(key, struct{}{}) {
		stats.RecordEviction()
	}
}

type arcCache struct {
	c    *arc.ARCCache[uint64, struct{}]
	size int
}

func newARC(config *Config) (clairvoyant.Policy[uint64], error) {
	if config.Size == 0 {
		return newOnline("arc", noCache{}), nil
	}
	c, err := arc.NewARC[uint64, struct{}](config.Size)
	if err != nil {
		return nil, err
	}
	return newOnline("arc", &arcCache{c: c, size: config.Size}), nil
}

func (a *arcCache) access(key uint64, stats *clairvoyant.Stats) {
	if _, ok := a.c.Get(key); ok {
		stats.RecordHit()
		return
	}
	stats.RecordMiss()
	// A full cache makes room for every new key.
	if a.c.Len() >= a.size {
		stats.RecordEviction()
	}
	a.c.Add(key, struct{}{})
}

type slruCache struct {
	c *slru.Cache[uint64]
}

func newSLRU(config *Config) (clairvoyant.Policy[uint64], error) {
	opts, err := superFlag(config.SLRU, SLRUDefaults)
	if err != nil {
		return nil, err
	}
	protected, err := opts.GetFloat64("protected")
	if err != nil {
		return nil, err
	}
	if config.Size < 2 {
		return newOnline("slru", noCache{}), nil
	}
	c, err := slru.New[uint64](slru.Split(config.Size, protected))
	if err != nil {
		return nil, err
	}
	return newOnline("slru", &slruCache{c: c}), nil
}

func (s *slruCache) access(key uint64, stats *clairvoyant.Stats) {
	hit, evicted := s.c.Record(key)
	if hit {
		stats.RecordHit()
		return
	}
	stats.RecordMiss()
	if evicted {
		stats.RecordEviction()
	}
}

type tinyLFUCache struct {
	p *tinylfu.Policy[uint64]
}

func newTinyLFU(config *Config) (clairvoyant.Policy[uint64], error) {
	opts, err := superFlag(config.TinyLFU, TinyLFUDefaults)
	if err != nil {
		return nil, err
	}
	window, err := opts.GetFloat64("window")
	if err != nil {
		return nil, err
	}
	protected, err := opts.GetFloat64("protected")
	if err != nil {
		return nil, err
	}
	admission, err := opts.GetBool("admission")
	if err != nil {
		return nil, err
	}
	seed, err := opts.GetInt64("seed")
	if err != nil {
		return nil, err
	}
	door, err := opts.GetFloat64("doorkeeper")
	if err != nil {
		return nil, err
	}
	if door < 0 || door >= 1 {
		return nil, errors.Errorf("doorkeeper false positive rate %v must be within [0, 1)", door)
	}
	if config.Size < 3 {
		return newOnline("tinylfu", noCache{}), nil
	}

	o := newOnline("tinylfu", nil)
	options := []tinylfu.Option[uint64]{
		tinylfu.WithSegmentation[uint64](1-window, protected),
		tinylfu.WithRecorder[uint64](o.stats),
	}
	if admission {
		// Keys are hashes already.
		sketch := tinylfu.NewSketch(config.Size, func(k uint64) uint64 { return k }, seed)
		if door > 0 {
			sketch.UseDoorkeeper(door)
		}
		options = append(options, tinylfu.WithAdmission[uint64](sketch))
	}
	p, err := tinylfu.New[uint64](config.Size, options...)
	if err != nil {
		return nil, err
	}
	o.cache = &tinyLFUCache{p: p}
	return o, nil
}

// access lets the policy report its own counters through the recorder.
func (t *tinyLFUCache) access(key uint64, _ *clairvoyant.Stats) {
	t.p.Record(key)
}

func superFlag(flag, defaults string) (*z.SuperFlag, error) {
	sf, err := z.NewSuperFlag(flag)
	if err != nil {
		return nil, err
	}
	if err := sf.MergeAndCheckDefault(defaults); err != nil {
		return nil, err
	}
	return sf, nil
}
