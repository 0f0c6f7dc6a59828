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

package sim

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/clairvoyant/z"
)

func TestZipfian(t *testing.T) {
	s := NewZipfian(1.5, 1, 100, 1)
	m := make(map[uint64]uint64, 100)
	for i := 0; i < 100; i++ {
		k, err := s()
		require.NoError(t, err)
		m[k]++
	}
	if len(m) == 0 || len(m) == 100 {
		t.Fatal("zipfian not skewed")
	}
}

func TestZipfianSeeded(t *testing.T) {
	a := Collection(NewZipfian(1.2, 1, 1000, 42), 100)
	b := Collection(NewZipfian(1.2, 1, 1000, 42), 100)
	require.Equal(t, a, b)
}

func TestUniform(t *testing.T) {
	s := NewUniform(100, 1)
	for i := 0; i < 100; i++ {
		k, err := s()
		require.NoError(t, err)
		require.Less(t, k, uint64(100))
	}
}

func TestSequence(t *testing.T) {
	s := NewSequence([]uint64{3, 1})
	trace, err := Load(s, 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 1}, trace)
	_, err = s()
	require.Equal(t, ErrDone, err)
}

func TestParseLIRS(t *testing.T) {
	s := NewReader(ParseLIRS, bytes.NewReader([]byte{
		'0', '\n',
		'1', '\r', '\n',
		'\n',
		'2', '\r', '\n',
	}))
	for i := uint64(0); i < 3; i++ {
		v, err := s()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	_, err := s()
	require.Equal(t, ErrDone, err)
}

func TestParseLIRSBadLine(t *testing.T) {
	s := NewReader(ParseLIRS, strings.NewReader("x\n"))
	_, err := s()
	require.ErrorIs(t, err, ErrBadLine)
}

func TestParseARC(t *testing.T) {
	s := NewReader(ParseARC, bytes.NewReader([]byte{
		'1', '2', '7', ' ', '6', '4', ' ', '0', ' ', '0', '\r', '\n',
		'1', '9', '1', ' ', '3', '6', ' ', '0', ' ', '0', '\r', '\n',
	}))
	for i := uint64(0); i < 64; i++ {
		v, err := s()
		require.NoError(t, err)
		require.Equal(t, 127+i, v)
	}
	for i := uint64(0); i < 36; i++ {
		v, err := s()
		require.NoError(t, err)
		require.Equal(t, 191+i, v)
	}
	_, err := s()
	require.Equal(t, ErrDone, err)
}

func TestParseARCBadLine(t *testing.T) {
	s := NewReader(ParseARC, strings.NewReader("127\n"))
	_, err := s()
	require.ErrorIs(t, err, ErrBadLine)
}

func TestParseARCHugeCount(t *testing.T) {
	for _, line := range []string{
		"1 18446744073709551615 0 0\n",
		"0 4000000000 0 0\n",
		"18446744073709551615 2 0 0\n",
	} {
		s := NewReader(ParseARC, strings.NewReader(line))
		_, err := s()
		require.ErrorIs(t, err, ErrBadLine, line)
	}
}

func TestParseARCMaxCount(t *testing.T) {
	s := NewReader(ParseARC, strings.NewReader("5 1048576 0 0\n"))
	trace, err := Load(s, 0)
	require.NoError(t, err)
	require.Len(t, trace, MaxARCBlocks)
	require.Equal(t, uint64(5), trace[0])
	require.Equal(t, uint64(5+MaxARCBlocks-1), trace[MaxARCBlocks-1])
}

func TestKeyParser(t *testing.T) {
	s := NewReader(NewKeyParser(nil), strings.NewReader("user:1\n\n  user:2 \nuser:1"))
	trace, err := Load(s, 0)
	require.NoError(t, err)
	require.Len(t, trace, 3)
	require.Equal(t, trace[0], trace[2])
	require.NotEqual(t, trace[0], trace[1])

	h, err := z.KeyToHash("user:2")
	require.NoError(t, err)
	require.Equal(t, h, trace[1])
}

func TestParserFor(t *testing.T) {
	for _, name := range []string{"lirs", "arc", "key"} {
		p, err := ParserFor(name, nil)
		require.NoError(t, err)
		require.NotNil(t, p)
	}
	_, err := ParserFor("csv", nil)
	require.Error(t, err)
}

func TestLoadLimit(t *testing.T) {
	trace, err := Load(NewUniform(10, 1), 25)
	require.NoError(t, err)
	require.Len(t, trace, 25)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "trace.lirs")
	require.NoError(t, os.WriteFile(plain, []byte("5\n6\n5\n"), 0644))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("5\n6\n5\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	compressed := filepath.Join(dir, "trace.lirs.gz")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0644))

	for _, path := range []string{plain, compressed} {
		f, err := Open(path, ParseLIRS)
		require.NoError(t, err)
		trace, err := Load(f.Simulator, 0)
		require.NoError(t, err)
		require.Equal(t, []uint64{5, 6, 5}, trace, path)
		require.NoError(t, f.Close())
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), ParseLIRS)
	require.Error(t, err)
}

func TestCollection(t *testing.T) {
	s := NewUniform(100, 1)
	c := Collection(s, 100)
	if len(c) != 100 {
		t.Fatal("collection not full")
	}
}

func TestStringCollection(t *testing.T) {
	s := NewUniform(100, 1)
	c := StringCollection(s, 100)
	if len(c) != 100 {
		t.Fatal("string collection not full")
	}
}
