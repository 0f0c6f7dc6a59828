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
	"github.com/pkg/errors"

	"github.com/dgraph-io/clairvoyant/z"
)

// Policy is the interface shared by every replacement strategy a trace can
// be replayed against.
type Policy[K any] interface {
	// Name identifies the policy in reports.
	Name() string
	// Record feeds one trace event.
	Record(key K) error
	// Finished signals the end of the trace. Policies that need lookahead do
	// all of their work here.
	Finished() error
	// Stats exposes the accumulated counters. They are complete only after
	// Finished has returned.
	Stats() *Stats
}

type hashedPolicy struct {
	Policy[uint64]
	hash z.Hasher
}

// Hashed adapts a policy over uint64 keys to accept keys of any supported
// type. Keys are converted with hash, or z.KeyToHash when hash is nil. Two
// keys with the same hash are treated as the same key.
func Hashed(p Policy[uint64], hash z.Hasher) Policy[any] {
	if hash == nil {
		hash = z.KeyToHash
	}
	return &hashedPolicy{Policy: p, hash: hash}
}

func (h *hashedPolicy) Record(key any) error {
	k, err := h.hash(key)
	if err != nil {
		return errors.Wrapf(err, "%s: cannot record key", h.Name())
	}
	return h.Policy.Record(k)
}
