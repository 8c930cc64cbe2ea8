package pathnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCanonicalUnifiesSeparators(t *testing.T) {
	got, err := ToCanonical(`music\artist\track.flac`)
	require.NoError(t, err)
	assert.Equal(t, "music/artist/track.flac", got)
}

func TestToCanonicalCollapsesDuplicateSlashes(t *testing.T) {
	got, err := ToCanonical("music//artist///track.flac")
	require.NoError(t, err)
	assert.Equal(t, "music/artist/track.flac", got)
}

func TestToCanonicalPreservesLeadingSlash(t *testing.T) {
	got, err := ToCanonical("/music/artist/track.flac")
	require.NoError(t, err)
	assert.Equal(t, "/music/artist/track.flac", got)
}

func TestToCanonicalIsIdempotent(t *testing.T) {
	once, err := ToCanonical(`/music\artist//track.flac`)
	require.NoError(t, err)

	twice, err := ToCanonical(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestToCanonicalEmptyString(t *testing.T) {
	got, err := ToCanonical("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
