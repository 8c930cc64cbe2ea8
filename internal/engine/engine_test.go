package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/mediacat/internal/record"
	"github.com/iamNilotpal/mediacat/pkg/options"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = filepath.Join(t.TempDir(), "data")
	opts.Profile = options.ProfileMinimal

	e, err := New(context.Background(), &Config{Options: &opts})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func sampleEntries(n int) []*record.Entry {
	out := make([]*record.Entry, n)
	for i := 0; i < n; i++ {
		out[i] = &record.Entry{
			Path:     filepath.Join("music", "artist", "track.flac"),
			FileName: "track.flac",
			Size:     1000,
			MimeType: "audio/flac",
			Metadata: &record.Metadata{Artist: "Artist", Album: "Album"},
		}
	}
	return out
}

func TestNewOpensEmptyEngine(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, StateOpen, State(e.state.Load()))
	assert.EqualValues(t, 0, e.Stats().TotalEntries)
}

func TestBulkStoreAssignsIncreasingIDs(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(3)
	entries[0].Path = "music/a.flac"
	entries[1].Path = "music/b.flac"
	entries[2].Path = "music/c.flac"

	ids, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])
	assert.EqualValues(t, 3, e.Stats().TotalEntries)
}

func TestBulkStoreEmptyIsNoop(t *testing.T) {
	e := newTestEngine(t)
	ids, err := e.BulkStore(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestBulkStoreRejectsMissingPath(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(1)
	entries[0].Path = ""

	_, err := e.BulkStore(context.Background(), entries)
	assert.Error(t, err)
	assert.EqualValues(t, 0, e.Stats().TotalEntries)
}

func TestBulkUpdateRejectsMissingFileName(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(1)
	entries[0].FileName = ""

	err := e.BulkUpdate(context.Background(), entries)
	assert.Error(t, err)
}

func TestGetByIDAndPath(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(1)
	entries[0].Path = "music/song.flac"

	ids, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	byID, err := e.GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "music/song.flac", byID.Path)

	byPath, err := e.GetByPath(context.Background(), "music/song.flac")
	require.NoError(t, err)
	assert.Equal(t, ids[0], byPath.ID)
}

func TestGetByIDMissingReturnsNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.GetByID(context.Background(), 999)
	assert.Error(t, err)
}

func TestBulkUpdatePreservesIDAndCreatedAt(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(1)
	entries[0].Path = "music/song.flac"
	ids, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	original, err := e.GetByID(context.Background(), ids[0])
	require.NoError(t, err)

	update := &record.Entry{Path: "music/song.flac", FileName: "song.flac", Size: 2000, MimeType: "audio/flac"}
	err = e.BulkUpdate(context.Background(), []*record.Entry{update})
	require.NoError(t, err)

	updated, err := e.GetByPath(context.Background(), "music/song.flac")
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)
	assert.True(t, original.CreatedAt.Equal(updated.CreatedAt))
	assert.EqualValues(t, 2000, updated.Size)
}

func TestBulkRemoveDeletesFromIndex(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(2)
	entries[0].Path = "music/a.flac"
	entries[1].Path = "music/b.flac"
	_, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	removed, err := e.BulkRemove(context.Background(), []string{"music/a.flac", "music/missing.flac"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = e.GetByPath(context.Background(), "music/a.flac")
	assert.Error(t, err)
}

func TestBulkGetByPathsSkipsMissing(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(1)
	entries[0].Path = "music/a.flac"
	_, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	found, err := e.BulkGetByPaths(context.Background(), []string{"music/a.flac", "music/missing.flac"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestVacuumPreservesLiveEntries(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(3)
	entries[0].Path = "music/a.flac"
	entries[1].Path = "music/b.flac"
	entries[2].Path = "music/c.flac"
	_, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	_, err = e.BulkRemove(context.Background(), []string{"music/b.flac"})
	require.NoError(t, err)

	require.NoError(t, e.Vacuum(context.Background()))

	assert.Equal(t, StateOpen, State(e.state.Load()))
	_, err = e.GetByPath(context.Background(), "music/a.flac")
	assert.NoError(t, err)
	_, err = e.GetByPath(context.Background(), "music/b.flac")
	assert.Error(t, err)
}

func TestCheckAndRepairOnHealthyEngine(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(2)
	entries[0].Path = "music/a.flac"
	entries[1].Path = "music/b.flac"
	_, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	health, err := e.CheckAndRepair(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.Equal(t, 2, health.ReindexedEntries)
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestOperationsFailAfterClose(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())

	_, err := e.GetByID(context.Background(), 1)
	assert.Error(t, err)

	_, err = e.BulkStore(context.Background(), sampleEntries(1))
	assert.Error(t, err)
}

func TestReopenRebuildsFromDataFile(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.Profile = options.ProfileMinimal

	e1, err := New(context.Background(), &Config{Options: &opts})
	require.NoError(t, err)
	_, err = e1.BulkStore(context.Background(), []*record.Entry{
		{Path: "music/a.flac", FileName: "a.flac", Size: 10, MimeType: "audio/flac"},
	})
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	opts2 := options.NewDefaultOptions()
	opts2.DataDir = dir
	opts2.Profile = options.ProfileMinimal
	e2, err := New(context.Background(), &Config{Options: &opts2})
	require.NoError(t, err)
	defer e2.Close()

	entry, err := e2.GetByPath(context.Background(), "music/a.flac")
	require.NoError(t, err)
	assert.EqualValues(t, 10, entry.Size)
}

func TestGetDirectoryListing(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(2)
	entries[0].Path = "music/pink floyd/a.flac"
	entries[1].Path = "music/pink floyd/b.flac"
	_, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	subdirs, files, err := e.GetDirectoryListing(context.Background(), "music", "")
	require.NoError(t, err)
	assert.Contains(t, subdirs, "pink floyd")
	assert.Empty(t, files)

	_, files, err = e.GetDirectoryListing(context.Background(), "music/pink floyd", "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCategoricalQueries(t *testing.T) {
	e := newTestEngine(t)
	entries := sampleEntries(2)
	entries[0].Path = "music/a.flac"
	entries[1].Path = "music/b.flac"
	_, err := e.BulkStore(context.Background(), entries)
	require.NoError(t, err)

	artists, err := e.GetArtists(context.Background())
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, "Artist", artists[0].Name)
	assert.Equal(t, 2, artists[0].Count)

	byArtist, err := e.GetMusicByArtist(context.Background(), "Artist")
	require.NoError(t, err)
	assert.Len(t, byArtist, 2)
}
