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

package tinylfu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func identity(k uint64) uint64 { return k }

func TestSketch(t *testing.T) {
	defer func() {
		require.NotNil(t, recover())
	}()

	s := newCmSketch(5, 1)
	require.Equal(t, uint64(7), s.mask)
	newCmSketch(0, 1)
}

func TestSketchIncrement(t *testing.T) {
	s := newCmSketch(16, 1)
	s.Increment(1)
	s.Increment(5)
	s.Increment(9)
	identical := true
	for i := 1; i < cmDepth; i++ {
		if s.rows[i].string() != s.rows[0].string() {
			identical = false
		}
	}
	require.False(t, identical, "identical rows, bad seeding")
}

func TestSketchEstimate(t *testing.T) {
	s := newCmSketch(16, 1)
	s.Increment(1)
	s.Increment(1)
	require.Equal(t, int64(2), s.Estimate(1))
	require.Equal(t, int64(0), s.Estimate(0))
}

func TestSketchSaturates(t *testing.T) {
	s := newCmSketch(16, 1)
	for i := 0; i < 100; i++ {
		s.Increment(3)
	}
	require.Equal(t, int64(15), s.Estimate(3))
}

func TestSketchReset(t *testing.T) {
	s := newCmSketch(16, 1)
	s.Increment(1)
	s.Increment(1)
	s.Increment(1)
	s.Increment(1)
	s.Reset()
	require.Equal(t, int64(2), s.Estimate(1))
}

func TestSketchClear(t *testing.T) {
	s := newCmSketch(16, 1)
	for i := 0; i < 16; i++ {
		s.Increment(uint64(i))
	}
	s.Clear()
	for i := 0; i < 16; i++ {
		require.Equal(t, int64(0), s.Estimate(uint64(i)))
	}
}

func TestNext2Power(t *testing.T) {
	sz := 12 << 30
	szf := float64(sz) * 0.01
	val := int64(szf)
	t.Logf("szf = %.2f val = %d\n", szf, val)
	pow := next2Power(val)
	t.Logf("pow = %d. mult 4 = %d\n", pow, pow*4)
	require.Equal(t, int64(1<<27), pow)
}

func TestAdmissionSketch(t *testing.T) {
	a := NewSketch[uint64](100, identity, 1)
	for i := 0; i < 5; i++ {
		a.Record(1)
	}
	a.Record(2)
	require.True(t, a.Admit(1, 2))
	require.False(t, a.Admit(2, 1))
	require.False(t, a.Admit(3, 3), "ties keep the victim")
}

func TestAdmissionSketchAging(t *testing.T) {
	a := NewSketch[uint64](1, identity, 1)
	for i := 0; i < 9; i++ {
		a.Record(7)
	}
	require.Equal(t, int64(9), a.Estimate(7))
	// The tenth access reaches the sample size and halves every counter.
	a.Record(7)
	require.Equal(t, int64(5), a.Estimate(7))
}

func (r cmRow) string() string {
	s := make([]byte, 0, len(r)*2)
	for i := uint64(0); i < uint64(len(r)*2); i++ {
		s = append(s, '0'+r.get(i))
	}
	return string(s)
}
