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

import "math"

// doorkeeper is a simple Bloom Filter placed in front of the frequency
// sketch, as described in the TinyLFU paper [1] in section 3.4.2. The first
// access of a key within a sample period only sets its bits, so one-off keys
// never reach the counters.
//
// [1]: https://arxiv.org/abs/1512.00727
type doorkeeper struct {
	probes uint64
	data   []byte
	mask   uint64
}

// newDoorkeeper sizes the filter for size keys at the given false positive
// rate.
func newDoorkeeper(size uint64, rate float64) *doorkeeper {
	if size < 1 {
		size = 1
	}
	m := -1 * float64(size) * math.Log(rate) / math.Pow(math.Log(2), 2)
	b := next2Power(int64(math.Ceil(m / 8)))
	if b < 1 {
		b = 1
	}
	probes := uint64(math.Ceil(math.Log(2) * m / float64(size)))
	if probes < 1 {
		probes = 1
	}
	return &doorkeeper{
		probes: probes,
		data:   make([]byte, b),
		mask:   uint64(b)*8 - 1,
	}
}

// Set returns true if the key didn't exist in the filter and the bits were set.
// Set returns false if the key did exist in the filter and nothing was changed.
func (d *doorkeeper) Set(hashed uint64) bool {
	changed := false
	for i := uint64(0); i < d.probes; i++ {
		block, bit := d.index(hashed, i)
		if d.data[block]&(1<<bit) == 0 {
			changed = true
			d.data[block] |= 1 << bit
		}
	}
	return changed
}

// Has returns whether or not key is in the filter. If false, it's definitely
// not. If true, it probably is.
func (d *doorkeeper) Has(hashed uint64) bool {
	for i := uint64(0); i < d.probes; i++ {
		block, bit := d.index(hashed, i)
		if d.data[block]&(1<<bit) == 0 {
			return false
		}
	}
	return true
}

// Reset sets all bits to 0.
func (d *doorkeeper) Reset() {
	clear(d.data)
}

// index returns the block and bit of the i-th probe, derived from two hashes
// of the key.
func (d *doorkeeper) index(hashed, i uint64) (uint64, uint64) {
	pos := (hashed + i*(spread(hashed)|1)) & d.mask
	return pos >> 3, pos & 7
}
