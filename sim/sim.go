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

// Package sim produces the key traces that replacement policies are
// replayed against, either synthetically or by parsing trace files.
package sim

import (
	"bufio"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dgraph-io/clairvoyant/z"
)

var (
	// ErrDone is returned when the underlying file has ran out of lines.
	ErrDone = errors.New("no more values in the Simulator")
	// ErrBadLine is returned when the trace file line is unrecognizable to
	// the Parser.
	ErrBadLine = errors.New("bad line for trace format")
)

// Simulator is the central type of the `sim` package. It is a function
// returning a key from some source (composed from the other functions in this
// package, either generated or parsed). You can use these Simulators to
// approximate access distributions.
type Simulator func() (uint64, error)

// NewZipfian creates a Simulator returning numbers following a Zipfian [1]
// distribution infinitely. Zipfian distributions are useful for simulating
// real workloads. The seed makes the sequence reproducible.
//
// [1]: https://en.wikipedia.org/wiki/Zipf%27s_law
func NewZipfian(s, v float64, n uint64, seed int64) Simulator {
	z := rand.NewZipf(rand.New(rand.NewSource(seed)), s, v, n)
	return func() (uint64, error) {
		return z.Uint64(), nil
	}
}

// NewUniform creates a Simulator returning uniformly distributed [1] (random)
// numbers [0, max) infinitely.
//
// [1]: https://en.wikipedia.org/wiki/Uniform_distribution_(continuous)
func NewUniform(max uint64, seed int64) Simulator {
	m := int64(max)
	r := rand.New(rand.NewSource(seed))
	return func() (uint64, error) {
		return uint64(r.Int63n(m)), nil
	}
}

// NewSequence returns a Simulator that replays keys once, then ErrDone.
func NewSequence(keys []uint64) Simulator {
	i := 0
	return func() (uint64, error) {
		if i == len(keys) {
			return 0, ErrDone
		}
		i++
		return keys[i-1], nil
	}
}

// Parser is used as a parameter to NewReader so we can create Simulators from
// varying trace file formats easily. A Parser returns the keys found on one
// line, which may be none.
type Parser func(string, error) ([]uint64, error)

// NewReader creates a Simulator from two components: the Parser, which is a
// filetype specific function for parsing lines, and the file itself, which
// will be read from.
//
// When the file runs out of lines, the Simulator returns ErrDone.
func NewReader(parser Parser, file io.Reader) Simulator {
	b := bufio.NewReader(file)
	var s []uint64
	i := 0
	return func() (uint64, error) {
		// only parse a new line when we've run out of items
		for i == len(s) {
			var err error
			if s, err = parser(b.ReadString('\n')); err != nil {
				s, i = nil, 0
				return 0, err
			}
			i = 0
		}
		i++
		return s[i-1], nil
	}
}

// readLine maps the result of bufio.Reader.ReadString onto the trace
// errors. A final line without a newline is still returned; ErrDone is
// reported only when there is nothing left.
func readLine(line string, err error) (string, error) {
	switch {
	case err == nil:
		return line, nil
	case err == io.EOF && line != "":
		return line, nil
	case err == io.EOF:
		return "", ErrDone
	default:
		return "", errors.Wrap(err, "while reading trace")
	}
}

// lineFields splits a trace line, handling both \n and \r\n endings.
func lineFields(line string, err error) ([]string, error) {
	line, err = readLine(line, err)
	if err != nil {
		return nil, err
	}
	return strings.Fields(line), nil
}

// ParseLIRS takes a single line of input from a LIRS trace file as described
// in multiple papers [1] and returns a slice containing one number. A nice
// collection of LIRS trace files can be found in Ben Manes' repo [2].
//
// [1]: https://en.wikipedia.org/wiki/LIRS_caching_algorithm
// [2]: https://git.io/fj9gU
func ParseLIRS(line string, err error) ([]uint64, error) {
	fields, err := lineFields(line, err)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) != 1 {
		return nil, errors.Wrapf(ErrBadLine, "%q", line)
	}
	key, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrBadLine, "%q: %v", line, err)
	}
	return []uint64{key}, nil
}

// MaxARCBlocks bounds the block count of a single ARC trace line. Longer runs
// are rejected as malformed rather than expanded.
const MaxARCBlocks = 1 << 20

// ParseARC takes a single line of input from an ARC trace file as described
// in "ARC: a self-tuning, low overhead replacement cache" [1] by Nimrod
// Megiddo and Dharmendra S. Modha [1] and returns a sequence of numbers
// generated from the line and any error. For use with NewReader.
//
// [1]: https://scinapse.io/papers/1860107648
func ParseARC(line string, err error) ([]uint64, error) {
	fields, err := lineFields(line, err)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) < 2 {
		return nil, errors.Wrapf(ErrBadLine, "%q", line)
	}
	// the first field is the start of the block range, the second the count
	start, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrBadLine, "%q: %v", line, err)
	}
	count, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrBadLine, "%q: %v", line, err)
	}
	if count > MaxARCBlocks {
		return nil, errors.Wrapf(ErrBadLine, "%q: block count %d exceeds %d", line, count, MaxARCBlocks)
	}
	if count > 0 && start > math.MaxUint64-(count-1) {
		return nil, errors.Wrapf(ErrBadLine, "%q: block range overflows", line)
	}
	seq := make([]uint64, count)
	for i := range seq {
		seq[i] = start + uint64(i)
	}
	return seq, nil
}

// NewKeyParser returns a Parser for traces with one arbitrary key per line.
// Keys are trimmed and hashed with hash, or z.KeyToHash when hash is nil.
// Blank lines are skipped.
func NewKeyParser(hash z.Hasher) Parser {
	if hash == nil {
		hash = z.KeyToHash
	}
	return func(line string, err error) ([]uint64, error) {
		line, err = readLine(line, err)
		if err != nil {
			return nil, err
		}
		key := strings.TrimSpace(line)
		if key == "" {
			return nil, nil
		}
		h, err := hash(key)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
		return []uint64{h}, nil
	}
}

// ParserFor returns the Parser registered under name: "lirs", "arc" or "key".
func ParserFor(name string, hash z.Hasher) (Parser, error) {
	switch name {
	case "lirs":
		return ParseLIRS, nil
	case "arc":
		return ParseARC, nil
	case "key":
		return NewKeyParser(hash), nil
	default:
		return nil, errors.Errorf("unknown trace format %q", name)
	}
}

// Collection evaluates the Simulator size times and saves each item to the
// returned slice.
func Collection(simulator Simulator, size uint64) []uint64 {
	collection := make([]uint64, size)
	for i := range collection {
		collection[i], _ = simulator()
	}
	return collection
}

// StringCollection evaluates the Simulator size times and saves each item to
// the returned slice, after converting it to a string.
func StringCollection(simulator Simulator, size uint64) []string {
	collection := make([]string, size)
	for i := range collection {
		n, _ := simulator()
		collection[i] = strconv.FormatUint(n, 10)
	}
	return collection
}

// Load drains the Simulator until ErrDone, or until limit keys have been
// read when limit is positive. Any other error aborts the load.
func Load(simulator Simulator, limit int) ([]uint64, error) {
	trace := make([]uint64, 0)
	for limit <= 0 || len(trace) < limit {
		key, err := simulator()
		if err == ErrDone {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "after %d keys", len(trace))
		}
		trace = append(trace, key)
	}
	return trace, nil
}
