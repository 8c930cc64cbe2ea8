package index

import "time"

// DirtyBit identifies which persisted index kind a mutation touched. Bits
// are OR'd into Manager.dirty on every Insert/Remove and checked
// by NeedsPersistence.
type DirtyBit uint32

const (
	DirtyDirectory DirtyBit = 1 << iota
	DirtyArtist
	DirtyAlbum
	DirtyGenre
	DirtyYear
	DirtyAlbumArtist
	DirtyPath
	DirtyID
)

// Config parameterizes a Manager: its cache sizing and the minimum
// interval that must elapse after a dirty write before NeedsPersistence
// reports true.
type Config struct {
	CacheMaxEntries     int
	CacheMaxBytes       int64
	PersistenceInterval time.Duration
}

// dirEntry is the btree element ordering the directory index by canonical
// path. It carries no payload beyond the path — per-directory file offsets
// live in Manager.filesByDir, keeping the tree itself a pure ordered set
// usable for both membership checks and prefix range walks.
type dirEntry struct {
	Path string
}

func dirEntryLess(a, b dirEntry) bool {
	return a.Path < b.Path
}
