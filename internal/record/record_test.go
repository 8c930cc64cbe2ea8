package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *Entry {
	dur := 215 * time.Second
	now := time.Unix(1_700_000_000, 0).UTC()
	return &Entry{
		ID:         42,
		Path:       "music/pink floyd/the wall/comfortably numb.flac",
		FileName:   "comfortably numb.flac",
		Size:       123456,
		ModifiedAt: now,
		MimeType:   "audio/flac",
		Duration:   &dur,
		Metadata: &Metadata{
			Title:       "Comfortably Numb",
			Artist:      "Pink Floyd",
			Album:       "The Wall",
			Genre:       "Progressive Rock",
			TrackNumber: 6,
			Year:        1979,
			AlbumArtist: "Pink Floyd",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := sampleEntry()
	buf, err := Encode(e)
	require.NoError(t, err)

	decoded, n, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, e.Path, decoded.Path)
	assert.Equal(t, e.FileName, decoded.FileName)
	assert.Equal(t, e.Size, decoded.Size)
	assert.True(t, e.ModifiedAt.Equal(decoded.ModifiedAt))
	assert.Equal(t, e.MimeType, decoded.MimeType)
	require.NotNil(t, decoded.Duration)
	assert.Equal(t, *e.Duration, *decoded.Duration)
	require.NotNil(t, decoded.Metadata)
	assert.Equal(t, *e.Metadata, *decoded.Metadata)
	assert.True(t, e.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, e.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestEncodeDecodeAbsentOptionals(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	e := &Entry{
		ID:         7,
		Path:       "video/clip.mp4",
		FileName:   "clip.mp4",
		Size:       999,
		ModifiedAt: now,
		MimeType:   "video/mp4",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	buf, err := Encode(e)
	require.NoError(t, err)

	decoded, _, err := Decode(buf)
	require.NoError(t, err)
	assert.Nil(t, decoded.Duration)
	assert.Nil(t, decoded.Metadata)
}

func TestEncodeBatchAndDecodeBatch(t *testing.T) {
	entries := []*Entry{sampleEntry(), sampleEntry(), sampleEntry()}
	entries[1].ID = 43
	entries[1].Path = "music/pink floyd/the wall/another brick.flac"
	entries[2].ID = 44
	entries[2].Path = "music/pink floyd/the wall/hey you.flac"

	buf, relOffsets, err := EncodeBatch(entries)
	require.NoError(t, err)
	require.Len(t, relOffsets, 3)
	assert.EqualValues(t, 0, relOffsets[0])

	decoded, err := DecodeBatch(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, e := range entries {
		assert.Equal(t, e.ID, decoded[i].ID)
		assert.Equal(t, e.Path, decoded[i].Path)
	}
}

func TestDecodeBatchWithOffsetsToleratesTornTail(t *testing.T) {
	entries := []*Entry{sampleEntry(), sampleEntry()}
	entries[1].ID = 99

	buf, _, err := EncodeBatch(entries)
	require.NoError(t, err)

	// Simulate a crash mid-write: truncate partway into the second frame.
	torn := buf[:len(buf)-5]

	decoded, offsets := DecodeBatchWithOffsets(torn)
	require.Len(t, decoded, 1)
	require.Len(t, offsets, 1)
	assert.Equal(t, entries[0].ID, decoded[0].ID)
	assert.EqualValues(t, 0, offsets[0])
}

func TestDecodeFrameTruncatedLength(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeFrameTruncatedBody(t *testing.T) {
	buf, _, err := EncodeBatch([]*Entry{sampleEntry()})
	require.NoError(t, err)

	_, _, err = DecodeFrame(buf[:len(buf)-10])
	assert.Error(t, err)
}

func TestEncodeNilEntry(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}
