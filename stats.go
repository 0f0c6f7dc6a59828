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

package clairvoyant

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dgraph-io/clairvoyant/z"
)

type metricType int

const (
	// The following 2 keep track of hits and misses.
	hit metricType = iota
	miss
	// Entries removed to make room after a miss.
	eviction
	// Candidates an admission filter refused to let in (online policies only).
	rejection
	// This should be the final enum. Other enums should be set before this.
	doNotUse
)

func stringFor(t metricType) string {
	switch t {
	case hit:
		return "hits"
	case miss:
		return "misses"
	case eviction:
		return "evictions"
	case rejection:
		return "rejections"
	default:
		return "unidentified"
	}
}

// Stats accumulates the outcome of a single policy run. A run is driven by
// one goroutine, so Stats is not safe for concurrent use; read it after the
// policy has finished.
type Stats struct {
	name string
	all  [doNotUse]uint64

	started time.Time
	running bool
	elapsed time.Duration

	// lookahead tracks how many ticks away the next reference of each victim
	// was. Victims that are never referenced again are counted in never.
	lookahead *z.HistogramData
	never     uint64
}

// NewStats returns empty statistics for the named policy.
func NewStats(name string) *Stats {
	return &Stats{
		name:      name,
		lookahead: z.NewHistogramData(z.HistogramBounds(1, 24)),
	}
}

// Name of the policy the statistics belong to.
func (s *Stats) Name() string {
	return s.name
}

func (s *Stats) add(t metricType, delta uint64) {
	s.all[t] += delta
}

func (s *Stats) get(t metricType) uint64 {
	if s == nil {
		return 0
	}
	return s.all[t]
}

func (s *Stats) RecordHit()       { s.add(hit, 1) }
func (s *Stats) RecordMiss()      { s.add(miss, 1) }
func (s *Stats) RecordEviction()  { s.add(eviction, 1) }
func (s *Stats) RecordRejection() { s.add(rejection, 1) }

// recordVictim notes how far ahead the evicted entry was next needed.
func (s *Stats) recordVictim(now, next int) {
	if next == Never {
		s.never++
		return
	}
	s.lookahead.Update(int64(next - now))
}

// Start begins, or resumes, timing. It is a no-op while already running.
func (s *Stats) Start() {
	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()
}

// Stop pauses timing and accumulates the elapsed interval.
func (s *Stats) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.elapsed += time.Since(s.started)
}

// Elapsed is the total time spent between Start and Stop calls.
func (s *Stats) Elapsed() time.Duration {
	if s == nil {
		return 0
	}
	return s.elapsed
}

// Hits is the number of accesses whose key was resident.
func (s *Stats) Hits() uint64 {
	return s.get(hit)
}

// Misses is the number of accesses whose key was not resident.
func (s *Stats) Misses() uint64 {
	return s.get(miss)
}

// Evictions is the number of entries removed to respect the capacity.
func (s *Stats) Evictions() uint64 {
	return s.get(eviction)
}

// Rejections is the number of new keys an admission filter turned away.
func (s *Stats) Rejections() uint64 {
	return s.get(rejection)
}

// Requests is Hits + Misses, which equals the trace length once finished.
func (s *Stats) Requests() uint64 {
	return s.get(hit) + s.get(miss)
}

// Ratio is the number of Hits over all accesses (Hits + Misses).
func (s *Stats) Ratio() float64 {
	if s == nil {
		return 0.0
	}
	hits, misses := s.get(hit), s.get(miss)
	if hits == 0 && misses == 0 {
		return 0.0
	}
	return float64(hits) / float64(hits+misses)
}

// Lookahead returns a copy of the victim lookahead histogram.
func (s *Stats) Lookahead() *z.HistogramData {
	if s == nil {
		return nil
	}
	return s.lookahead.Copy()
}

// NeverVictims is the number of evicted entries that were never needed again.
func (s *Stats) NeverVictims() uint64 {
	if s == nil {
		return 0
	}
	return s.never
}

// String returns a string representation of the statistics.
func (s *Stats) String() string {
	if s == nil {
		return ""
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: ", s.name)
	for i := 0; i < int(doNotUse); i++ {
		t := metricType(i)
		fmt.Fprintf(&buf, "%s: %s ", stringFor(t), humanize.Comma(int64(s.get(t))))
	}
	fmt.Fprintf(&buf, "requests: %s ", humanize.Comma(int64(s.Requests())))
	fmt.Fprintf(&buf, "hit-ratio: %.2f%% ", 100*s.Ratio())
	fmt.Fprintf(&buf, "elapsed: %s", s.elapsed)
	return buf.String()
}
