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

package clairvoyant_test

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dgraph-io/clairvoyant"
)

func ExampleClairvoyant() {
	opt, err := clairvoyant.New(&clairvoyant.Config[int]{
		MaximumSize: 2,
		OnEvict: func(key, next int) {
			if next == clairvoyant.Never {
				fmt.Printf("evict %d, never used again\n", key)
				return
			}
			fmt.Printf("evict %d, next used at tick %d\n", key, next)
		},
	})
	if err != nil {
		panic(err)
	}
	for _, key := range []int{1, 2, 3, 1, 2, 3} {
		if err := opt.Record(key); err != nil {
			panic(err)
		}
	}
	if err := opt.Finished(); err != nil {
		panic(err)
	}
	stats := opt.Stats()
	fmt.Printf("hits=%d misses=%d evictions=%d ratio=%.2f\n",
		stats.Hits(), stats.Misses(), stats.Evictions(), stats.Ratio())
	// Output:
	// evict 3, next used at tick 6
	// evict 3, never used again
	// hits=2 misses=4 evictions=2 ratio=0.33
}

func ExampleHashed() {
	opt, err := clairvoyant.New(&clairvoyant.Config[uint64]{MaximumSize: 1})
	if err != nil {
		panic(err)
	}
	p := clairvoyant.Hashed(opt, nil)
	for _, key := range []interface{}{"a", []byte("b"), "a"} {
		if err := p.Record(key); err != nil {
			panic(err)
		}
	}
	err = p.Record(nil)
	fmt.Println("nil key rejected:", errors.Is(err, clairvoyant.ErrNilKey))
	if err := p.Finished(); err != nil {
		panic(err)
	}
	fmt.Printf("hits=%d misses=%d\n", p.Stats().Hits(), p.Stats().Misses())
	// Output:
	// nil key rejected: true
	// hits=1 misses=2
}
