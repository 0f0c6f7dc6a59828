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

// Package report renders the results of policy runs as CSV and as a text
// table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/dgraph-io/clairvoyant"
)

// Log is the primary unit of the output: one policy run at one size.
type Log struct {
	Policy string
	Size   int
	Stats  *clairvoyant.Stats
}

// Labels returns the column headers of the CSV data. The order is important and
// should correspond with Log.Record().
func Labels() []string {
	return []string{
		"policy",
		"size",
		"requests",
		"hits",
		"misses",
		"evictions",
		"rejections",
		"ratio",
		"elapsed_ns",
		"lookahead_mean",
		"lookahead_p50",
		"lookahead_p99",
		"never_victims",
	}
}

// Record generates a CSV record.
func (l *Log) Record() []string {
	s := l.Stats
	lookahead := s.Lookahead()
	return []string{
		l.Policy,
		fmt.Sprintf("%d", l.Size),
		fmt.Sprintf("%d", s.Requests()),
		fmt.Sprintf("%d", s.Hits()),
		fmt.Sprintf("%d", s.Misses()),
		fmt.Sprintf("%d", s.Evictions()),
		fmt.Sprintf("%d", s.Rejections()),
		fmt.Sprintf("%.4f", s.Ratio()),
		fmt.Sprintf("%d", s.Elapsed().Nanoseconds()),
		fmt.Sprintf("%.2f", lookahead.Mean()),
		fmt.Sprintf("%.0f", lookahead.Percentile(0.5)),
		fmt.Sprintf("%.0f", lookahead.Percentile(0.99)),
		fmt.Sprintf("%d", s.NeverVictims()),
	}
}

// Sort orders logs by size, then by policy name.
func Sort(logs []*Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Size != logs[j].Size {
			return logs[i].Size < logs[j].Size
		}
		return logs[i].Policy < logs[j].Policy
	})
}

// Write emits logs as CSV, the first row being column labels.
func Write(w io.Writer, logs []*Log) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Labels()); err != nil {
		return err
	}
	for _, log := range logs {
		if err := cw.Write(log.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes all logs to path in CSV format, replacing its contents.
func Save(path string, logs []*Log) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "while creating report %s", path)
	}
	if err := Write(file, logs); err != nil {
		file.Close()
		return errors.Wrapf(err, "while writing report %s", path)
	}
	return file.Close()
}

// Table prints logs as aligned columns for humans.
func Table(w io.Writer, logs []*Log) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "policy\tsize\thits\tmisses\tevictions\thit-ratio\telapsed\t")
	for _, l := range logs {
		s := l.Stats
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f%%\t%s\t\n",
			l.Policy,
			humanize.Comma(int64(l.Size)),
			humanize.Comma(int64(s.Hits())),
			humanize.Comma(int64(s.Misses())),
			humanize.Comma(int64(s.Evictions())),
			100*s.Ratio(),
			s.Elapsed(),
		)
	}
	return tw.Flush()
}
