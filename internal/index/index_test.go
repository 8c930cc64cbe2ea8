package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/mediacat/internal/record"
)

func testManager() *Manager {
	return New(Config{
		CacheMaxEntries:     1000,
		CacheMaxBytes:       1 << 20,
		PersistenceInterval: time.Minute,
	}, nil)
}

func entryAt(path string, id uint64) *record.Entry {
	return &record.Entry{
		ID:   id,
		Path: path,
		Metadata: &record.Metadata{
			Artist:      "Pink Floyd",
			Album:       "The Wall",
			Genre:       "Rock",
			Year:        1979,
			AlbumArtist: "Pink Floyd",
		},
	}
}

func TestInsertAndFindByPath(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("music/a.flac", 1), 100)

	off, ok := m.FindByPath("music/a.flac")
	require.True(t, ok)
	assert.EqualValues(t, 100, off)
}

func TestInsertAndFindByID(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("music/a.flac", 1), 100)

	off, ok := m.FindByID(1)
	require.True(t, ok)
	assert.EqualValues(t, 100, off)
}

func TestFindByPathMissing(t *testing.T) {
	m := testManager()
	_, ok := m.FindByPath("nowhere")
	assert.False(t, ok)
}

func TestRemoveDeletesFromBothMaps(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("music/a.flac", 1), 100)

	off, ok := m.Remove("music/a.flac")
	require.True(t, ok)
	assert.EqualValues(t, 100, off)

	_, ok = m.FindByPath("music/a.flac")
	assert.False(t, ok)
	_, ok = m.FindByID(1)
	assert.False(t, ok)
}

func TestRemoveMissingReturnsFalse(t *testing.T) {
	m := testManager()
	_, ok := m.Remove("nowhere")
	assert.False(t, ok)
}

func TestFindFilesInDirectory(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("music/pink floyd/a.flac", 1), 100)
	m.Insert(entryAt("music/pink floyd/b.flac", 2), 200)
	m.Insert(entryAt("music/other/c.flac", 3), 300)

	offsets := m.FindFilesInDirectory("music/pink floyd")
	assert.ElementsMatch(t, []uint64{100, 200}, offsets)
}

func TestFindSubdirectories(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("music/pink floyd/the wall/a.flac", 1), 100)
	m.Insert(entryAt("music/beatles/b.flac", 2), 200)

	names := m.FindSubdirectories("music")
	assert.Equal(t, []string{"beatles", "pink floyd"}, names)
}

func TestFindByArtistAlbumGenreYear(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("a.flac", 1), 100)
	m.Insert(entryAt("b.flac", 2), 200)

	assert.ElementsMatch(t, []uint64{100, 200}, m.FindByArtist("Pink Floyd"))
	assert.ElementsMatch(t, []uint64{100, 200}, m.FindByAlbum("The Wall"))
	assert.ElementsMatch(t, []uint64{100, 200}, m.FindByGenre("Rock"))
	assert.ElementsMatch(t, []uint64{100, 200}, m.FindByYear(1979))
	assert.ElementsMatch(t, []uint64{100, 200}, m.FindByAlbumArtist("Pink Floyd"))
}

func TestFindByAlbumAndArtistIntersects(t *testing.T) {
	m := testManager()
	e1 := entryAt("a.flac", 1)
	e2 := entryAt("b.flac", 2)
	e2.Metadata.Album = "Wish You Were Here"
	m.Insert(e1, 100)
	m.Insert(e2, 200)

	offsets := m.FindByAlbumAndArtist("The Wall", "Pink Floyd")
	assert.Equal(t, []uint64{100}, offsets)
}

func TestFindByAlbumAndArtistUsesTrackArtistNotAlbumArtist(t *testing.T) {
	m := testManager()
	guest := entryAt("collab.flac", 1)
	guest.Metadata.Artist = "David Gilmour"
	guest.Metadata.AlbumArtist = "Pink Floyd"
	m.Insert(guest, 100)

	offsets := m.FindByAlbumAndArtist("The Wall", "David Gilmour")
	assert.Equal(t, []uint64{100}, offsets)

	assert.Empty(t, m.FindByAlbumAndArtist("The Wall", "Pink Floyd"))
}

func TestFindByPathPrefix(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("music/pink floyd/a.flac", 1), 100)
	m.Insert(entryAt("music/pink floyd/b.flac", 2), 200)
	m.Insert(entryAt("music/beatles/c.flac", 3), 300)

	offsets := m.FindByPathPrefix("music/pink floyd")
	assert.ElementsMatch(t, []uint64{100, 200}, offsets)
}

func TestArtistCountsAndYearCounts(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("a.flac", 1), 100)
	m.Insert(entryAt("b.flac", 2), 200)

	counts := m.ArtistCounts()
	assert.Equal(t, 2, counts["Pink Floyd"])

	years := m.YearCounts()
	assert.Equal(t, 2, years[1979])
}

func TestMaxID(t *testing.T) {
	m := testManager()
	assert.EqualValues(t, 0, m.MaxID())

	m.Insert(entryAt("a.flac", 5), 100)
	m.Insert(entryAt("b.flac", 12), 200)
	m.Insert(entryAt("c.flac", 3), 300)

	assert.EqualValues(t, 12, m.MaxID())
}

func TestAllOffsetsIsDeduplicatedAndSorted(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("a.flac", 1), 300)
	m.Insert(entryAt("b.flac", 2), 100)
	m.Insert(entryAt("c.flac", 0), 200) // ID 0 never enters byID

	offsets := m.AllOffsets()
	assert.Equal(t, []uint64{100, 200, 300}, offsets)
}

func TestClearAllResetsEverything(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("a.flac", 1), 100)
	m.ClearAll()

	_, ok := m.FindByPath("a.flac")
	assert.False(t, ok)
	assert.Empty(t, m.AllOffsets())
}

func TestOptimizeBumpsGeneration(t *testing.T) {
	m := testManager()
	m.Insert(entryAt("a.flac", 1), 100)
	m.Remove("a.flac")
	genBefore := m.Generation()

	m.Optimize()
	assert.Greater(t, m.Generation(), genBefore)
}

func TestNeedsPersistenceAfterMutation(t *testing.T) {
	m := New(Config{
		CacheMaxEntries:     1000,
		CacheMaxBytes:       1 << 20,
		PersistenceInterval: 0,
	}, nil)

	assert.False(t, m.NeedsPersistence())
	m.Insert(entryAt("a.flac", 1), 100)
	assert.True(t, m.NeedsPersistence())
}

func TestRebuildCategoricalReinsertsEverything(t *testing.T) {
	m := testManager()
	entries := []*record.Entry{entryAt("a.flac", 1), entryAt("b.flac", 2)}
	offsets := []uint64{100, 200}

	m.RebuildCategorical(entries, offsets)

	off, ok := m.FindByID(1)
	require.True(t, ok)
	assert.EqualValues(t, 100, off)
}

func TestCachesExposesUnderlyingManager(t *testing.T) {
	m := testManager()
	assert.NotNil(t, m.Caches())
}
