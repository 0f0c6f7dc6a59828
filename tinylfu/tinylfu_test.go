package tinylfu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	hits, misses, evictions, rejections int
}

func (c *counts) RecordHit()       { c.hits++ }
func (c *counts) RecordMiss()      { c.misses++ }
func (c *counts) RecordEviction()  { c.evictions++ }
func (c *counts) RecordRejection() { c.rejections++ }

func TestUniformSaturation(t *testing.T) {
	c := &counts{}
	p := newTestPolicy(t, WithRecorder[uint64](c))
	for i := 0; i < 20; i++ {
		assert.False(t, p.Record(uint64(i)))
	}

	checkData(t, p, []uint64{12, 13, 14, 15, 16, 17, 18, 19})
	checkSegment(t, p.window, []uint64{19, 18})
	checkSegment(t, p.probation, []uint64{17, 16, 15, 14, 13, 12})
	checkSegment(t, p.protected, nil)
	assert.Equal(t, counts{misses: 20, evictions: 12}, *c)
}

func TestTinyLFU(t *testing.T) {
	p := newTestPolicy(t)

	// Saturate the window and probation segments.
	for i := 0; i < 8; i++ {
		p.Record(uint64(i))
	}

	// Access some probation, but don't evict or demote anything yet.
	for i := 0; i < 4; i++ {
		assert.True(t, p.Record(uint64(i)))
	}

	checkData(t, p, []uint64{0, 1, 2, 3, 4, 5, 6, 7})
	checkSegment(t, p.window, []uint64{7, 6})
	checkSegment(t, p.probation, []uint64{5, 4})
	checkSegment(t, p.protected, []uint64{3, 2, 1, 0})

	// Refresh something in the protected region and promote something from probation.
	p.Record(2)
	p.Record(5) // Demote 0

	checkData(t, p, []uint64{0, 1, 2, 3, 4, 5, 6, 7})
	checkSegment(t, p.window, []uint64{7, 6})
	checkSegment(t, p.probation, []uint64{0, 4})
	checkSegment(t, p.protected, []uint64{5, 2, 3, 1})

	// Evict a few values.
	for i := 10; i < 13; i++ {
		p.Record(uint64(i))
	}

	checkData(t, p, []uint64{1, 2, 3, 5, 7, 10, 11, 12})
	checkSegment(t, p.window, []uint64{12, 11})
	checkSegment(t, p.probation, []uint64{10, 7})
	checkSegment(t, p.protected, []uint64{5, 2, 3, 1})

	// Finally, promote a window value.
	p.Record(11)

	checkData(t, p, []uint64{1, 2, 3, 5, 7, 10, 11, 12})
	checkSegment(t, p.window, []uint64{11, 12})
	checkSegment(t, p.probation, []uint64{10, 7})
	checkSegment(t, p.protected, []uint64{5, 2, 3, 1})
}

// rejectAll keeps every resident key and turns away every candidate.
type rejectAll struct{}

func (rejectAll) Record(uint64)             {}
func (rejectAll) Admit(uint64, uint64) bool { return false }

func TestAdmissionRejects(t *testing.T) {
	c := &counts{}
	p := newTestPolicy(t, WithAdmission[uint64](rejectAll{}), WithRecorder[uint64](c))
	for i := 0; i < 8; i++ {
		p.Record(uint64(i))
	}
	// The window candidate 6 loses to the probation victim 0.
	p.Record(8)

	checkData(t, p, []uint64{0, 1, 2, 3, 4, 5, 7, 8})
	checkSegment(t, p.window, []uint64{8, 7})
	assert.Equal(t, 1, c.rejections)
	assert.Equal(t, 1, c.evictions)
	assert.True(t, p.Contains(0))
	assert.False(t, p.Contains(6))
}

func TestStringKeys(t *testing.T) {
	p, err := New[string](3)
	require.NoError(t, err)
	for _, key := range []string{"a", "b", "c", "a", "d", "a"} {
		p.Record(key)
	}
	assert.Equal(t, 3, p.Len())
	assert.True(t, p.Contains("a"))
}

func newTestPolicy(t *testing.T, opts ...Option[uint64]) *Policy[uint64] {
	// Create a policy with 2 window, 2 probation, 4 protected slots. This is
	// enough to fully exercise most cases without being onerous to validate
	// comprehensively.
	opts = append([]Option[uint64]{WithSegmentation[uint64](.75, .67)}, opts...)
	return newSegmented(t, 8, opts...)
}

// Verify a policy's data map contains the given keys in any order.
func checkData(t *testing.T, p *Policy[uint64], values []uint64) {
	t.Helper()
	if !assert.Equal(t, len(values), len(p.data), "data size") {
		return
	}

	for _, v := range values {
		e, ok := p.data[v]
		if assert.True(t, ok, "key %d exists", v) {
			assert.Equal(t, v, e.Value, "entry node matches key")
		}
	}
}

// Verify a segment contains the given values in order.
func checkSegment(t *testing.T, l *list[uint64], values []uint64) {
	t.Helper()
	if !assert.Equal(t, len(values), l.Len(), "segment size") {
		return
	}

	node := l.Front()
	for _, v := range values {
		assert.Equal(t, v, node.Value)
		node = node.Next()
	}
}
