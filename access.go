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

import "fmt"

// tickQueue is a FIFO of the ticks at which a single key is referenced.
type tickQueue struct {
	ticks []int
	head  int
}

func (q *tickQueue) push(tick int) {
	q.ticks = append(q.ticks, tick)
}

func (q *tickQueue) empty() bool {
	return q.head == len(q.ticks)
}

func (q *tickQueue) pop() int {
	tick := q.ticks[q.head]
	q.head++
	if q.empty() {
		// Nothing is pushed during replay, so a drained queue can drop its
		// backing array right away.
		q.ticks, q.head = nil, 0
	}
	return tick
}

func (q *tickQueue) front() int {
	return q.ticks[q.head]
}

// accessTimes records, for every key, the ordered ticks at which the key is
// referenced. It also owns the run-local tick counter.
type accessTimes[K comparable] struct {
	queues map[K]*tickQueue
	tick   int
}

func newAccessTimes[K comparable]() *accessTimes[K] {
	return &accessTimes[K]{
		queues: make(map[K]*tickQueue),
	}
}

// record advances the clock and appends the new tick to the key's queue. The
// first recorded event is tick 1.
func (a *accessTimes[K]) record(key K) int {
	a.tick++
	q, ok := a.queues[key]
	if !ok {
		q = &tickQueue{}
		a.queues[key] = q
	}
	q.push(a.tick)
	return a.tick
}

// dequeue removes and returns the earliest remaining tick of the key. Replay
// walks the trace in ingestion order, so an empty queue means the two passes
// disagree and the run cannot continue.
func (a *accessTimes[K]) dequeue(key K) int {
	q, ok := a.queues[key]
	if !ok || q.empty() {
		panic(fmt.Sprintf("clairvoyant: no remaining access time for key %v", key))
	}
	return q.pop()
}

// peek returns the key's next remaining tick, or Never when the key is not
// referenced again.
func (a *accessTimes[K]) peek(key K) int {
	q, ok := a.queues[key]
	if !ok || q.empty() {
		return Never
	}
	return q.front()
}

// distinct is the number of distinct keys seen during ingestion.
func (a *accessTimes[K]) distinct() int {
	return len(a.queues)
}
