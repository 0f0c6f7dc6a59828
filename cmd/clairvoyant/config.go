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

package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dgraph-io/clairvoyant/policies"
	"github.com/dgraph-io/clairvoyant/sim"
	"github.com/dgraph-io/clairvoyant/z"
)

// Config holds every setting of a comparison run. It can be read from a YAML
// file; command line flags override the file.
type Config struct {
	Trace    string      `yaml:"trace"`
	Format   string      `yaml:"format"`
	Hash     string      `yaml:"hash"`
	Limit    int         `yaml:"limit"`
	Policies []string    `yaml:"policies"`
	Sizes    []int       `yaml:"sizes"`
	CSV      string      `yaml:"csv"`
	SLRU     string      `yaml:"slru"`
	TinyLFU  string      `yaml:"tinylfu"`
	Log      string      `yaml:"log"`
	Synth    SynthConfig `yaml:"synth"`
}

// SynthConfig describes a generated trace.
type SynthConfig struct {
	Dist   string  `yaml:"dist"`
	Keys   uint64  `yaml:"keys"`
	Length uint64  `yaml:"length"`
	Skew   float64 `yaml:"skew"`
	Seed   int64   `yaml:"seed"`
}

func defaultConfig() Config {
	return Config{
		Format:   "lirs",
		Hash:     "xxhash",
		Policies: policies.Names(),
		Sizes:    []int{100, 1000},
		SLRU:     policies.SLRUDefaults,
		TinyLFU:  policies.TinyLFUDefaults,
		Log:      "info",
		Synth: SynthConfig{
			Dist:   "zipf",
			Keys:   100000,
			Length: 1000000,
			Skew:   1.01,
			Seed:   42,
		},
	}
}

// loadConfig decodes the YAML file at path over cfg. Unknown fields are an
// error so typos do not go unnoticed.
func loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "while reading config %s", path)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return errors.Wrapf(err, "while parsing config %s", path)
	}
	return nil
}

// override copies every field whose flag was set on the command line from
// flags into cfg.
func override(cfg *Config, flags *Config, changed func(name string) bool) {
	if changed("trace") {
		cfg.Trace = flags.Trace
	}
	if changed("format") {
		cfg.Format = flags.Format
	}
	if changed("hash") {
		cfg.Hash = flags.Hash
	}
	if changed("limit") {
		cfg.Limit = flags.Limit
	}
	if changed("policies") {
		cfg.Policies = flags.Policies
	}
	if changed("sizes") {
		cfg.Sizes = flags.Sizes
	}
	if changed("csv") {
		cfg.CSV = flags.CSV
	}
	if changed("slru") {
		cfg.SLRU = flags.SLRU
	}
	if changed("tinylfu") {
		cfg.TinyLFU = flags.TinyLFU
	}
	if changed("log") {
		cfg.Log = flags.Log
	}
	if changed("dist") {
		cfg.Synth.Dist = flags.Synth.Dist
	}
	if changed("keys") {
		cfg.Synth.Keys = flags.Synth.Keys
	}
	if changed("length") {
		cfg.Synth.Length = flags.Synth.Length
	}
	if changed("skew") {
		cfg.Synth.Skew = flags.Synth.Skew
	}
	if changed("seed") {
		cfg.Synth.Seed = flags.Synth.Seed
	}
}

// validate rejects settings that would fail mid-run, before any trace is
// read.
func (cfg *Config) validate() error {
	if _, err := logrus.ParseLevel(cfg.Log); err != nil {
		return err
	}
	if len(cfg.Policies) == 0 {
		return errors.New("no policies selected")
	}
	if len(cfg.Sizes) == 0 {
		return errors.New("no sizes selected")
	}
	for _, size := range cfg.Sizes {
		if size < 0 {
			return errors.Errorf("size can't be negative, got %d", size)
		}
	}
	// Building every policy once checks names and per-policy options.
	for _, name := range cfg.Policies {
		if _, err := policies.New(name, cfg.policyConfig(0)); err != nil {
			return err
		}
	}
	if _, err := cfg.parser(); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) validateSynth() error {
	switch cfg.Synth.Dist {
	case "zipf":
		if cfg.Synth.Skew <= 1 {
			return errors.Errorf("zipf skew must be greater than 1, got %v", cfg.Synth.Skew)
		}
	case "uniform":
	default:
		return errors.Errorf("unknown distribution %q", cfg.Synth.Dist)
	}
	if cfg.Synth.Keys == 0 {
		return errors.New("keys must be positive")
	}
	return nil
}

func (cfg *Config) policyConfig(size int) *policies.Config {
	return &policies.Config{
		Size:    size,
		SLRU:    cfg.SLRU,
		TinyLFU: cfg.TinyLFU,
		Logger:  logrus.StandardLogger(),
	}
}

func (cfg *Config) parser() (sim.Parser, error) {
	hash, err := z.HasherFor(cfg.Hash)
	if err != nil {
		return nil, err
	}
	return sim.ParserFor(cfg.Format, hash)
}

// simulator returns the generator for a synthetic trace.
func (cfg *Config) simulator() sim.Simulator {
	s := cfg.Synth
	if s.Dist == "uniform" {
		return sim.NewUniform(s.Keys, s.Seed)
	}
	return sim.NewZipfian(s.Skew, 1, s.Keys, s.Seed)
}
