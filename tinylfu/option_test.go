package tinylfu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSegmented(t *testing.T, capacity int, opts ...Option[uint64]) *Policy[uint64] {
	t.Helper()
	p, err := New(capacity, opts...)
	require.NoError(t, err)
	return p
}

func TestWithSegmentation(t *testing.T) {
	// Minimal
	p := newSegmented(t, 3)
	assert.Equal(t, 3, p.capacity)
	assert.Equal(t, 1, p.maxWindow)
	assert.Equal(t, 1, p.maxProtected)

	// Defaults
	p = newSegmented(t, 1000)
	assert.Equal(t, 10, p.maxWindow)
	assert.Equal(t, 792, p.maxProtected)

	// Non-default
	p = newSegmented(t, 50, WithSegmentation[uint64](.8, .5))
	assert.Equal(t, 10, p.maxWindow)
	assert.Equal(t, 20, p.maxProtected)

	// Maximum window
	p = newSegmented(t, 1000, WithSegmentation[uint64](0, 0))
	assert.Equal(t, 998, p.maxWindow)
	assert.Equal(t, 1, p.maxProtected)

	// Maximum probation
	p = newSegmented(t, 1000, WithSegmentation[uint64](1, 0))
	assert.Equal(t, 1, p.maxWindow)
	assert.Equal(t, 1, p.maxProtected)

	// Maximum protected
	p = newSegmented(t, 1000, WithSegmentation[uint64](1, 1))
	assert.Equal(t, 1, p.maxWindow)
	assert.Equal(t, 998, p.maxProtected)
}

func TestWithSegmentationOutOfRange(t *testing.T) {
	_, err := New(100, WithSegmentation[uint64](1.5, .5))
	require.Error(t, err)
	_, err = New(100, WithSegmentation[uint64](.5, -1))
	require.Error(t, err)
}

func TestCapacityTooSmall(t *testing.T) {
	_, err := New[uint64](2)
	require.ErrorIs(t, err, ErrCapacity)
}
