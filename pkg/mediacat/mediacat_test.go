package mediacat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/mediacat/internal/record"
	"github.com/iamNilotpal/mediacat/pkg/options"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), "mediacat-test",
		options.WithDataDir(t.TempDir()), options.WithProfile(options.ProfileMinimal))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesOptions(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, options.ProfileMinimal, db.options.Profile)
}

func TestBulkStoreCanonicalizesWindowsStylePaths(t *testing.T) {
	db := openTestDB(t)
	entries := []*record.Entry{
		{Path: `music\artist\track.flac`, FileName: "track.flac", Size: 10, MimeType: "audio/flac"},
	}

	_, err := db.BulkStore(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, "music/artist/track.flac", entries[0].Path)

	found, err := db.GetByPath(context.Background(), "music/artist/track.flac")
	require.NoError(t, err)
	assert.Equal(t, "music/artist/track.flac", found.Path)
}

func TestGetByPathNormalizesQuery(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BulkStore(context.Background(), []*record.Entry{
		{Path: "music/artist/track.flac", FileName: "track.flac", Size: 10, MimeType: "audio/flac"},
	})
	require.NoError(t, err)

	found, err := db.GetByPath(context.Background(), `music\artist\track.flac`)
	require.NoError(t, err)
	assert.EqualValues(t, 10, found.Size)
}

func TestBulkRemoveCanonicalizesPaths(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BulkStore(context.Background(), []*record.Entry{
		{Path: "music/artist/track.flac", FileName: "track.flac", Size: 10, MimeType: "audio/flac"},
	})
	require.NoError(t, err)

	removed, err := db.BulkRemove(context.Background(), []string{`music\artist\track.flac`})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestStatsReflectsStoredEntries(t *testing.T) {
	db := openTestDB(t)
	_, err := db.BulkStore(context.Background(), []*record.Entry{
		{Path: "a.flac", FileName: "a.flac", Size: 10, MimeType: "audio/flac"},
		{Path: "b.flac", FileName: "b.flac", Size: 20, MimeType: "audio/flac"},
	})
	require.NoError(t, err)

	stats := db.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
}

func TestCloseIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
}
