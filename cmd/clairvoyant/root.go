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
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgraph-io/clairvoyant/policies"
	"github.com/dgraph-io/clairvoyant/report"
	"github.com/dgraph-io/clairvoyant/sim"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clairvoyant",
		Short:        "Compare cache policies against the optimal hit ratio",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newSynthCmd())
	return root
}

// commonFlags registers the flags shared by run and synth and returns the
// path of the optional config file.
func commonFlags(cmd *cobra.Command, flags *Config) *string {
	def := defaultConfig()
	configPath := cmd.Flags().String("config", "", "YAML file with default settings; flags take precedence")
	cmd.Flags().StringSliceVar(&flags.Policies, "policies", def.Policies,
		fmt.Sprintf("Policies to compare (%s)", strings.Join(policies.Names(), ", ")))
	cmd.Flags().IntSliceVar(&flags.Sizes, "sizes", def.Sizes, "Cache sizes, in keys")
	cmd.Flags().StringVar(&flags.CSV, "csv", "", "Write results to this CSV file")
	cmd.Flags().StringVar(&flags.SLRU, "slru", def.SLRU, "SLRU options")
	cmd.Flags().StringVar(&flags.TinyLFU, "tinylfu", def.TinyLFU, "TinyLFU options")
	cmd.Flags().StringVar(&flags.Log, "log", def.Log, "Log level (trace, debug, info, warn, error, fatal, panic)")
	return configPath
}

// resolve merges defaults, the config file and the flags set on cmd.
func resolve(cmd *cobra.Command, configPath string, flags *Config) (*Config, error) {
	cfg := defaultConfig()
	if configPath != "" {
		if err := loadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	}
	override(&cfg, flags, cmd.Flags().Changed)
	level, err := logrus.ParseLevel(cfg.Log)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)
	return &cfg, nil
}

func newRunCmd() *cobra.Command {
	var flags Config
	def := defaultConfig()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a trace file",
	}
	configPath := commonFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.Trace, "trace", "", "Trace file, optionally gzip compressed")
	cmd.Flags().StringVar(&flags.Format, "format", def.Format, "Trace format (lirs, arc, key)")
	cmd.Flags().StringVar(&flags.Hash, "hash", def.Hash, "Hash for key traces (xxhash, farm)")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0, "Read at most this many keys, 0 for all")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolve(cmd, *configPath, &flags)
		if err != nil {
			return err
		}
		if cfg.Trace == "" {
			return errors.New("no trace file given")
		}
		if err := cfg.validate(); err != nil {
			return err
		}
		trace, err := loadTrace(cfg)
		if err != nil {
			return err
		}
		return compareAndReport(cmd.Context(), cmd.OutOrStdout(), cfg, trace)
	}
	return cmd
}

func newSynthCmd() *cobra.Command {
	var flags Config
	def := defaultConfig()
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Replay a generated trace",
	}
	configPath := commonFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.Synth.Dist, "dist", def.Synth.Dist, "Key distribution (zipf, uniform)")
	cmd.Flags().Uint64Var(&flags.Synth.Keys, "keys", def.Synth.Keys, "Number of distinct keys to draw from")
	cmd.Flags().Uint64Var(&flags.Synth.Length, "length", def.Synth.Length, "Trace length")
	cmd.Flags().Float64Var(&flags.Synth.Skew, "skew", def.Synth.Skew, "Zipf skew, greater than 1")
	cmd.Flags().Int64Var(&flags.Synth.Seed, "seed", def.Synth.Seed, "Seed for the generator")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolve(cmd, *configPath, &flags)
		if err != nil {
			return err
		}
		if err := cfg.validate(); err != nil {
			return err
		}
		if err := cfg.validateSynth(); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"dist":   cfg.Synth.Dist,
			"keys":   cfg.Synth.Keys,
			"length": cfg.Synth.Length,
		}).Info("generating trace")
		trace := sim.Collection(cfg.simulator(), cfg.Synth.Length)
		return compareAndReport(cmd.Context(), cmd.OutOrStdout(), cfg, trace)
	}
	return cmd
}

func loadTrace(cfg *Config) ([]uint64, error) {
	parser, err := cfg.parser()
	if err != nil {
		return nil, err
	}
	f, err := sim.Open(cfg.Trace, parser)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	start := time.Now()
	trace, err := sim.Load(f.Simulator, cfg.Limit)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading trace %s", cfg.Trace)
	}
	logrus.WithFields(logrus.Fields{
		"trace":   cfg.Trace,
		"keys":    len(trace),
		"elapsed": time.Since(start),
	}).Info("trace loaded")
	return trace, nil
}

func compareAndReport(ctx context.Context, out io.Writer, cfg *Config, trace []uint64) error {
	logs, err := compare(ctx, cfg, trace)
	if err != nil {
		return err
	}
	if err := report.Table(out, logs); err != nil {
		return err
	}
	if cfg.CSV != "" {
		if err := report.Save(cfg.CSV, logs); err != nil {
			return err
		}
		logrus.WithField("path", cfg.CSV).Info("report written")
	}
	return nil
}

// ctxCheckInterval is how many keys a run replays between cancellation checks.
const ctxCheckInterval = 1 << 14

// compare runs every (policy, size) pair on its own goroutine over the shared,
// read-only trace.
func compare(ctx context.Context, cfg *Config, trace []uint64) ([]*report.Log, error) {
	logs := make([]*report.Log, 0, len(cfg.Policies)*len(cfg.Sizes))
	for _, size := range cfg.Sizes {
		for _, name := range cfg.Policies {
			logs = append(logs, &report.Log{Policy: name, Size: size})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, l := range logs {
		l := l
		g.Go(func() error {
			p, err := policies.New(l.Policy, cfg.policyConfig(l.Size))
			if err != nil {
				return err
			}
			log := logrus.WithFields(logrus.Fields{"policy": l.Policy, "size": l.Size})
			log.Debug("run started")
			for i, key := range trace {
				if i%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := p.Record(key); err != nil {
					return errors.Wrapf(err, "%s at size %d", l.Policy, l.Size)
				}
			}
			if err := p.Finished(); err != nil {
				return errors.Wrapf(err, "%s at size %d", l.Policy, l.Size)
			}
			l.Stats = p.Stats()
			log.WithField("hit-ratio", fmt.Sprintf("%.2f%%", 100*l.Stats.Ratio())).Info("run finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Sort(logs)
	return logs, nil
}
