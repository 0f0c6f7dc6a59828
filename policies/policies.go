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

// Package policies is the registry of replacement policies a trace can be
// replayed against: the offline optimum and the online baselines it bounds.
package policies

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dgraph-io/clairvoyant"
)

const (
	// SLRUDefaults are the options accepted by the slru policy.
	SLRUDefaults = "protected=0.8"
	// TinyLFUDefaults are the options accepted by the tinylfu policy. window
	// is the share of the capacity given to the admission window, doorkeeper
	// the false positive rate of the admission Bloom filter (0 disables it).
	TinyLFUDefaults = "window=0.01; protected=0.8; admission=true; doorkeeper=0.01; seed=0"
)

// ErrUnknownPolicy is returned by New for names missing from the registry.
var ErrUnknownPolicy = errors.New("unknown policy")

// Config describes a single policy instance.
type Config struct {
	// Size is the number of keys the simulated cache holds.
	Size int
	// SLRU and TinyLFU carry per-policy options in super flag form, see
	// SLRUDefaults and TinyLFUDefaults. Empty strings select the defaults.
	SLRU    string
	TinyLFU string
	// Logger is handed to policies that log. It may be nil.
	Logger logrus.FieldLogger
}

type constructor func(config *Config) (clairvoyant.Policy[uint64], error)

var registry = map[string]constructor{
	"opt":     newOpt,
	"lru":     newLRU,
	"arc":     newARC,
	"slru":    newSLRU,
	"tinylfu": newTinyLFU,
}

// Names lists the registered policies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named policy.
func New(name string, config *Config) (clairvoyant.Policy[uint64], error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPolicy, "%q, valid policies: %v", name, Names())
	}
	if config == nil {
		config = &Config{}
	}
	if config.Size < 0 {
		return nil, errors.Wrapf(clairvoyant.ErrNegativeCapacity, "%s: got %d", name, config.Size)
	}
	p, err := ctor(config)
	if err != nil {
		return nil, errors.Wrapf(err, "while creating policy %s", name)
	}
	return p, nil
}

func newOpt(config *Config) (clairvoyant.Policy[uint64], error) {
	c, err := clairvoyant.New(&clairvoyant.Config[uint64]{
		MaximumSize: config.Size,
		Logger:      config.Logger,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
