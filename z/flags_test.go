package z

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlag(t *testing.T) {
	opt := `Window=0.05; sample_size=5; name=tiny; ;`
	sf, err := NewSuperFlag(opt)
	require.NoError(t, err)
	t.Logf("Got SuperFlag: %s\n", sf)

	def := `window=0.01; protected=0.8; sample-size=0; name=; admission=true`

	// window and sample-size should not be overwritten. Only the missing ones
	// should be set.
	require.NoError(t, sf.MergeAndCheckDefault(def))

	f, err := sf.GetFloat64("window")
	require.NoError(t, err)
	require.Equal(t, 0.05, f)
	f, err = sf.GetFloat64("protected")
	require.NoError(t, err)
	require.Equal(t, 0.8, f)
	i, err := sf.GetInt64("sample-size")
	require.NoError(t, err)
	require.Equal(t, int64(5), i)
	b, err := sf.GetBool("admission")
	require.NoError(t, err)
	require.True(t, b)
	require.Equal(t, "tiny", sf.GetString("name"))
	require.False(t, sf.Has("missing"))
}

func TestFlagTypo(t *testing.T) {
	sf, err := NewSuperFlag("windw=0.1")
	require.NoError(t, err)
	require.Error(t, sf.MergeAndCheckDefault("window=0.01"))
}

func TestFlagMalformed(t *testing.T) {
	_, err := NewSuperFlag("window")
	require.Error(t, err)

	sf, err := NewSuperFlag("window=abc")
	require.NoError(t, err)
	_, err = sf.GetFloat64("window")
	require.Error(t, err)
}

func TestFlagNil(t *testing.T) {
	var sf *SuperFlag
	require.Equal(t, "", sf.GetString("window"))
	require.Equal(t, "", sf.String())
}
