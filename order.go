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
	"cmp"
	"fmt"
)

// access pairs a resident key with the tick of its next reference.
type access[K cmp.Ordered] struct {
	key  K
	next int
}

// less orders by next reference, then by key.
func (a access[K]) less(b access[K]) bool {
	if a.next != b.next {
		return a.next < b.next
	}
	return cmp.Less(a.key, b.key)
}

// orderIndex is an indexed max-heap over resident keys. The root is always
// the entry referenced farthest in the future; among equal ticks it is the
// largest key. slots maps each key to its position in items so an entry can
// be removed in O(log n) without searching.
type orderIndex[K cmp.Ordered] struct {
	items []access[K]
	slots map[K]int
}

func newOrderIndex[K cmp.Ordered](capacity int) *orderIndex[K] {
	return &orderIndex[K]{
		items: make([]access[K], 0, capacity+1),
		slots: make(map[K]int, capacity+1),
	}
}

// size returns the number of resident entries.
func (h *orderIndex[K]) size() int {
	return len(h.items)
}

// insert adds a new entry. The key must not be resident already.
func (h *orderIndex[K]) insert(key K, next int) {
	if _, ok := h.slots[key]; ok {
		panic(fmt.Sprintf("clairvoyant: key %v is already resident", key))
	}
	h.items = append(h.items, access[K]{key: key, next: next})
	i := len(h.items) - 1
	h.slots[key] = i
	h.heapifyUp(i)
}

// removeIfPresent removes the entry only if it matches both key and tick.
func (h *orderIndex[K]) removeIfPresent(key K, next int) bool {
	i, ok := h.slots[key]
	if !ok || h.items[i].next != next {
		return false
	}
	h.removeAt(i)
	return true
}

// evictFarthest removes and returns the root of the heap.
func (h *orderIndex[K]) evictFarthest() access[K] {
	if len(h.items) == 0 {
		panic("clairvoyant: evict from an empty index")
	}
	victim := h.items[0]
	h.removeAt(0)
	return victim
}

// peek returns the next victim without removing it.
func (h *orderIndex[K]) peek() (access[K], bool) {
	if len(h.items) == 0 {
		return access[K]{}, false
	}
	return h.items[0], true
}

func (h *orderIndex[K]) removeAt(i int) {
	last := len(h.items) - 1
	delete(h.slots, h.items[i].key)
	if i != last {
		h.items[i] = h.items[last]
		h.slots[h.items[i].key] = i
	}
	h.items = h.items[:last]
	if i < last {
		// The moved entry may belong above or below its new slot.
		if !h.heapifyUp(i) {
			h.heapifyDown(i)
		}
	}
}

func (h *orderIndex[K]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.slots[h.items[i].key] = i
	h.slots[h.items[j].key] = j
}

// heapifyUp moves a node towards the root and reports whether it moved.
func (h *orderIndex[K]) heapifyUp(index int) bool {
	moved := false
	for index > 0 {
		parent := (index - 1) / 2
		if !h.items[parent].less(h.items[index]) {
			break
		}
		h.swap(parent, index)
		index = parent
		moved = true
	}
	return moved
}

func (h *orderIndex[K]) heapifyDown(index int) {
	for {
		largest := index
		left := 2*index + 1
		right := 2*index + 2

		if left < len(h.items) && h.items[largest].less(h.items[left]) {
			largest = left
		}
		if right < len(h.items) && h.items[largest].less(h.items[right]) {
			largest = right
		}
		if largest == index {
			return
		}
		h.swap(index, largest)
		index = largest
	}
}
