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

package z

import (
	"github.com/cespare/xxhash/v2"
	farm "github.com/dgryski/go-farm"
	"github.com/pkg/errors"
)

var (
	// ErrNilKey is returned when a nil key is hashed.
	ErrNilKey = errors.New("key can't be nil")
	// ErrKeyType is returned for key types that have no hash.
	ErrKeyType = errors.New("key type not supported")
)

// Hasher turns a trace key into the uint64 the simulators work with.
type Hasher func(key interface{}) (uint64, error)

// KeyToHash is the default Hasher. Integer keys are used as is, strings and
// byte slices are hashed with xxhash.
func KeyToHash(key interface{}) (uint64, error) {
	return keyToHash(key, xxhash.Sum64String, xxhash.Sum64)
}

// FarmKeyToHash is like KeyToHash but fingerprints strings and byte slices
// with FarmHash instead.
func FarmKeyToHash(key interface{}) (uint64, error) {
	return keyToHash(key,
		func(s string) uint64 { return farm.Fingerprint64([]byte(s)) },
		farm.Fingerprint64)
}

// HasherFor returns the Hasher registered under name ("xxhash" or "farm").
func HasherFor(name string) (Hasher, error) {
	switch name {
	case "", "xxhash":
		return KeyToHash, nil
	case "farm":
		return FarmKeyToHash, nil
	default:
		return nil, errors.Errorf("unknown hash %q", name)
	}
}

func keyToHash(key interface{}, str func(string) uint64, raw func([]byte) uint64) (uint64, error) {
	if key == nil {
		return 0, ErrNilKey
	}
	switch k := key.(type) {
	case uint64:
		return k, nil
	case string:
		return str(k), nil
	case []byte:
		if k == nil {
			return 0, ErrNilKey
		}
		return raw(k), nil
	case byte:
		return uint64(k), nil
	case int:
		return uint64(k), nil
	case int32:
		return uint64(k), nil
	case uint32:
		return uint64(k), nil
	case int64:
		return uint64(k), nil
	default:
		return 0, errors.Wrapf(ErrKeyType, "%T", key)
	}
}
