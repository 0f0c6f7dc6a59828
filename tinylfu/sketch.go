/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
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

package tinylfu

import "math/rand"

// Sketch is the frequency based AdmissionPolicy of TinyLFU. It counts
// accesses in a Count-Min sketch with 4-bit counters and halves every counter
// once the number of recorded accesses reaches the sample size, so that old
// popularity fades.
type Sketch[K comparable] struct {
	freq      *cmSketch
	door      *doorkeeper
	hash      func(K) uint64
	additions int
	sample    int
}

// NewSketch returns an admission policy sized for a cache of capacity keys.
// hash maps keys onto the sketch; seed makes the counter layout
// reproducible.
func NewSketch[K comparable](capacity int, hash func(K) uint64, seed int64) *Sketch[K] {
	if capacity < 1 {
		capacity = 1
	}
	return &Sketch[K]{
		freq:   newCmSketch(int64(capacity)*10, seed),
		hash:   hash,
		sample: capacity * 10,
	}
}

// UseDoorkeeper puts a Bloom filter with the given false positive rate in
// front of the counters. It must be called before the first Record.
func (s *Sketch[K]) UseDoorkeeper(rate float64) {
	s.door = newDoorkeeper(uint64(s.sample), rate)
}

// Record counts one access of key.
func (s *Sketch[K]) Record(key K) {
	hashed := s.hash(key)
	// The first sighting only passes the doorkeeper.
	if s.door == nil || !s.door.Set(hashed) {
		s.freq.Increment(hashed)
	}
	s.additions++
	if s.additions >= s.sample {
		s.freq.Reset()
		if s.door != nil {
			s.door.Reset()
		}
		s.additions /= 2
	}
}

// Admit lets the candidate in only if it was seen more often than the victim.
func (s *Sketch[K]) Admit(candidate, victim K) bool {
	return s.estimate(s.hash(candidate)) > s.estimate(s.hash(victim))
}

// Estimate returns the approximate access count of key.
func (s *Sketch[K]) Estimate(key K) int64 {
	return s.estimate(s.hash(key))
}

func (s *Sketch[K]) estimate(hashed uint64) int64 {
	est := s.freq.Estimate(hashed)
	if s.door != nil && s.door.Has(hashed) {
		est++
	}
	return est
}

// cmSketch is a Count-Min sketch implementation with 4-bit counters, heavily
// based on Damian Gryski's CM4 [1].
//
// [1]: https://github.com/dgryski/go-tinylfu/blob/master/cm4.go
type cmSketch struct {
	rows [cmDepth]cmRow
	seed [cmDepth]uint64
	mask uint64
}

const (
	// cmDepth is the number of counter copies to store (think of it as rows).
	cmDepth = 4
)

func newCmSketch(numCounters int64, seed int64) *cmSketch {
	if numCounters <= 0 {
		panic("cmSketch: bad numCounters")
	}
	// Get the next power of 2 for better cache performance.
	numCounters = next2Power(numCounters)
	if numCounters < 2 {
		// Each row byte holds two counters.
		numCounters = 2
	}
	sketch := &cmSketch{mask: uint64(numCounters - 1)}
	// Initialize rows of counters and seeds.
	source := rand.New(rand.NewSource(seed))
	for i := 0; i < cmDepth; i++ {
		sketch.seed[i] = source.Uint64()
		sketch.rows[i] = newCmRow(numCounters)
	}
	return sketch
}

func circRightShift(x uint64, shift uint) uint64 {
	return (x << (64 - shift)) | (x >> shift)
}

// spread applies a supplemental hash function to a given key, which defends
// against poor quality hash functions and sequential keys.
func spread(x uint64) uint64 {
	x = (circRightShift(x, 16) ^ x) * 0x45d9f3b
	x = (circRightShift(x, 16) ^ x) * 0x45d9f3b
	return circRightShift(x, 16) ^ x
}

// Increment increments the count(ers) for the specified key.
func (s *cmSketch) Increment(hashed uint64) {
	for i := range s.rows {
		s.rows[i].increment(spread(hashed^s.seed[i]) & s.mask)
	}
}

// Estimate returns the value of the specified key.
func (s *cmSketch) Estimate(hashed uint64) int64 {
	min := byte(255)
	for i := range s.rows {
		val := s.rows[i].get(spread(hashed^s.seed[i]) & s.mask)
		if val < min {
			min = val
		}
	}
	return int64(min)
}

// Reset halves all counter values.
func (s *cmSketch) Reset() {
	for _, r := range s.rows {
		r.reset()
	}
}

// Clear zeroes all counters.
func (s *cmSketch) Clear() {
	for _, r := range s.rows {
		r.clear()
	}
}

// cmRow is a row of bytes, with each byte holding two counters.
type cmRow []byte

func newCmRow(numCounters int64) cmRow {
	return make(cmRow, numCounters/2)
}

func (r cmRow) get(n uint64) byte {
	return (r[n/2] >> ((n & 1) * 4)) & 0x0f
}

func (r cmRow) increment(n uint64) {
	// Index of the counter.
	i := n / 2
	// Shift distance (even 0, odd 4).
	s := (n & 1) * 4
	// Counter value.
	v := (r[i] >> s) & 0x0f
	// Only increment if not max value (overflow wrap is bad for LFU).
	if v < 15 {
		r[i] += 1 << s
	}
}

func (r cmRow) reset() {
	// Halve each counter.
	for i := range r {
		r[i] = (r[i] >> 1) & 0x77
	}
}

func (r cmRow) clear() {
	// Zero each counter.
	for i := range r {
		r[i] = 0
	}
}

// next2Power rounds x up to the next power of 2, if it's not already one.
func next2Power(x int64) int64 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}
