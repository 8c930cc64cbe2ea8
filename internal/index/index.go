// Package index owns every secondary index the storage engine maintains:
// the unique path and id maps, the ordered directory tree, the categorical
// hash maps (artist, album, genre, year, album-artist), and the
// dirty-bitmask/generation bookkeeping that drives persistence.
package index

import (
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/iamNilotpal/mediacat/internal/cache"
	"github.com/iamNilotpal/mediacat/internal/record"
)

// Manager is the single writer-locked home of every secondary index.
// Atomic counters (generation, dirty, operation tallies) are read without
// the lock, safe to observe without contention from any goroutine.
type Manager struct {
	mu sync.RWMutex

	caches *cache.Manager

	byPath map[string]uint64
	byID map[uint64]uint64

	dirTree *btree.BTreeG[dirEntry]
	filesByDir map[string][]uint64
	byArtist map[string][]uint64
	byAlbum map[string][]uint64
	byGenre map[string][]uint64
	byAlbumArtist map[string][]uint64
	byYear map[uint32][]uint64

	generation atomic.Uint64
	dirty atomic.Uint32
	lastPersist atomic.Int64

	persistEvery time.Duration

	lookups atomic.Uint64
	updates atomic.Uint64
	inserts atomic.Uint64
	removes atomic.Uint64

	log *zap.SugaredLogger
}

// New builds an empty Manager. log may be nil, in which case a no-op
// logger is used.
func New(cfg Config, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cacheCfg := cache.Config{
		MaxEntries: cfg.CacheMaxEntries,
		MaxBytes: cfg.CacheMaxBytes,
		Pressure: cache.PressureConfig{
			PressureThreshold: 0.75,
			CriticalThreshold: 0.90,
			EvictionFraction: 0.20,
			MinEntries: 16,
			CheckInterval: 200 * time.Millisecond,
		},
	}

	return &Manager{
		caches: cache.NewManager(cacheCfg),
		byPath: make(map[string]uint64, 4096),
		byID: make(map[uint64]uint64, 4096),
		dirTree: btree.NewG(32, dirEntryLess),
		filesByDir: make(map[string][]uint64, 1024),
		byArtist: make(map[string][]uint64, 256),
		byAlbum: make(map[string][]uint64, 256),
		byGenre: make(map[string][]uint64, 64),
		byAlbumArtist: make(map[string][]uint64, 256),
		byYear: make(map[uint32][]uint64, 64),
		persistEvery: cfg.PersistenceInterval,
		log: log.With("component", "index"),
	}
}

// Insert records a new or superseding offset for e, updating the path and
// id maps, the directory tree, and every categorical index whose metadata
// field is present. Every mutation is visible atomically once Insert
// returns.
func (m *Manager) Insert(e *record.Entry, offset uint64) {
	m.mu.Lock()

	m.byPath[e.Path] = offset
	dirty := DirtyPath
	if e.ID != 0 {
		m.byID[e.ID] = offset
		dirty |= DirtyID
	}

	dir := parentDir(e.Path)
	m.insertDirectoryChain(dir)
	m.filesByDir[dir] = appendUnique(m.filesByDir[dir], offset)
	dirty |= DirtyDirectory

	if e.Metadata != nil {
		if e.Metadata.Artist != "" {
			m.byArtist[e.Metadata.Artist] = appendUnique(m.byArtist[e.Metadata.Artist], offset)
			dirty |= DirtyArtist
		}
		if e.Metadata.Album != "" {
			m.byAlbum[e.Metadata.Album] = appendUnique(m.byAlbum[e.Metadata.Album], offset)
			dirty |= DirtyAlbum
		}
		if e.Metadata.Genre != "" {
			m.byGenre[e.Metadata.Genre] = appendUnique(m.byGenre[e.Metadata.Genre], offset)
			dirty |= DirtyGenre
		}
		if e.Metadata.AlbumArtist != "" {
			m.byAlbumArtist[e.Metadata.AlbumArtist] = appendUnique(m.byAlbumArtist[e.Metadata.AlbumArtist], offset)
			dirty |= DirtyAlbumArtist
		}
		if e.Metadata.Year != 0 {
			m.byYear[e.Metadata.Year] = appendUnique(m.byYear[e.Metadata.Year], offset)
			dirty |= DirtyYear
		}
	}

	m.mu.Unlock()

	m.caches.Paths.Insert(e.Path, offset)
	if e.ID != 0 {
		m.caches.IDs.Insert(e.ID, offset)
	}
	m.caches.Directories.Remove(dir)

	m.dirty.Or(uint32(dirty))
	m.inserts.Add(1)
	m.generation.Add(1)
}

// Remove deletes path from the unique maps and caches. The categorical
// and directory buckets are left stale — they are pruned lazily by
// Optimize or an IndexReconstruction pass.
func (m *Manager) Remove(canonicalPath string) (uint64, bool) {
	m.mu.Lock()
	offset, ok := m.byPath[canonicalPath]
	if ok {
		delete(m.byPath, canonicalPath)
		for id, off := range m.byID {
			if off == offset {
				delete(m.byID, id)
				break
			}
		}
	}
	m.mu.Unlock()

	if !ok {
		return 0, false
	}

	m.caches.Paths.Remove(canonicalPath)
	m.caches.Directories.Remove(parentDir(canonicalPath))

	m.dirty.Or(uint32(DirtyPath | DirtyID | DirtyDirectory))
	m.removes.Add(1)
	m.generation.Add(1)
	return offset, true
}

// FindByPath resolves a canonical path to its offset, consulting the path
// cache before the authoritative map.
func (m *Manager) FindByPath(p string) (uint64, bool) {
	m.lookups.Add(1)
	if off, ok := m.caches.Paths.Get(p); ok {
		return off, true
	}

	m.mu.RLock()
	off, ok := m.byPath[p]
	m.mu.RUnlock()
	if ok {
		m.caches.Paths.Insert(p, off)
	}
	return off, ok
}

// FindByID resolves a numeric id to its offset, consulting the id cache
// before the authoritative map.
func (m *Manager) FindByID(id uint64) (uint64, bool) {
	m.lookups.Add(1)
	if off, ok := m.caches.IDs.Get(id); ok {
		return off, true
	}

	m.mu.RLock()
	off, ok := m.byID[id]
	m.mu.RUnlock()
	if ok {
		m.caches.IDs.Insert(id, off)
	}
	return off, ok
}

// FindFilesInDirectory returns the offsets of files directly contained in
// dir (not recursively), consulting the directory cache first.
func (m *Manager) FindFilesInDirectory(dir string) []uint64 {
	m.lookups.Add(1)
	dir = strings.TrimSuffix(dir, "/")
	if off, ok := m.caches.Directories.Get(dir); ok {
		return off
	}

	m.mu.RLock()
	offsets := append([]uint64(nil), m.filesByDir[dir]...)
	m.mu.RUnlock()

	m.caches.Directories.Insert(dir, offsets)
	return offsets
}

// FindSubdirectories returns the sorted, immediate-child directory names
// of parent via a B-tree prefix walk.
func (m *Manager) FindSubdirectories(parent string) []string {
	parent = strings.TrimSuffix(parent, "/")
	prefix := parent + "/"

	seen := make(map[string]struct{})
	var names []string

	m.mu.RLock()
	m.dirTree.AscendRange(dirEntry{Path: prefix}, dirEntry{Path: prefix + "\xff"}, func(e dirEntry) bool {
		if !strings.HasPrefix(e.Path, prefix) {
			return true
		}
		rest := e.Path[len(prefix):]
		if rest == "" {
			return true
		}
		child := rest
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			child = rest[:idx]
		}
		if _, ok := seen[child]; !ok {
			seen[child] = struct{}{}
			names = append(names, child)
		}
		return true
	})
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (m *Manager) FindByArtist(v string) []uint64 { return m.lookupBucket(m.byArtist, v) }
func (m *Manager) FindByAlbum(v string) []uint64 { return m.lookupBucket(m.byAlbum, v) }
func (m *Manager) FindByGenre(v string) []uint64 { return m.lookupBucket(m.byGenre, v) }
func (m *Manager) FindByAlbumArtist(v string) []uint64 { return m.lookupBucket(m.byAlbumArtist, v) }

func (m *Manager) FindByYear(v uint32) []uint64 {
	m.lookups.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uint64(nil), m.byYear[v]...)
}

// FindByAlbumAndArtist intersects the album and artist buckets.
func (m *Manager) FindByAlbumAndArtist(album, artist string) []uint64 {
	m.lookups.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()

	albumSet := make(map[uint64]struct{}, len(m.byAlbum[album]))
	for _, off := range m.byAlbum[album] {
		albumSet[off] = struct{}{}
	}

	var out []uint64
	for _, off := range m.byArtist[artist] {
		if _, ok := albumSet[off]; ok {
			out = append(out, off)
		}
	}
	return out
}

func (m *Manager) lookupBucket(bucket map[string][]uint64, key string) []uint64 {
	m.lookups.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uint64(nil), bucket[key]...)
}

// FindByPathPrefix returns the offsets of every entry whose canonical path
// starts with prefix, used for directory rename/delete support where a
// caller needs every file under a subtree rather than just its immediate
// children.
func (m *Manager) FindByPathPrefix(prefix string) []uint64 {
	m.lookups.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []uint64
	for p, off := range m.byPath {
		if strings.HasPrefix(p, prefix) {
			out = append(out, off)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ArtistCounts, AlbumCounts, GenreCounts, and AlbumArtistCounts return each
// categorical bucket's distinct values alongside how many offsets they
// carry, for the engine's get_{artists,albums,genres,album_artists}
// queries.
func (m *Manager) ArtistCounts() map[string]int { return bucketCounts(m, m.byArtist) }
func (m *Manager) AlbumCounts() map[string]int { return bucketCounts(m, m.byAlbum) }
func (m *Manager) GenreCounts() map[string]int { return bucketCounts(m, m.byGenre) }
func (m *Manager) AlbumArtistCounts() map[string]int { return bucketCounts(m, m.byAlbumArtist) }

// YearCounts returns every distinct year alongside how many offsets it
// carries.
func (m *Manager) YearCounts() map[uint32]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uint32]int, len(m.byYear))
	for year, offsets := range m.byYear {
		out[year] = len(offsets)
	}
	return out
}

func bucketCounts(m *Manager, bucket map[string][]uint64) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, len(bucket))
	for k, v := range bucket {
		out[k] = len(v)
	}
	return out
}

// RebuildCategorical re-inserts every (entry, offset) pair recovered from a
// full data-file scan through the same Insert path that populates every
// index, restoring the album/genre/year/album-artist buckets that Load's
// snapshot never persisted (only directory and artist are snapshotted)
// and re-deriving byPath/byID regardless of where offsets came from.
func (m *Manager) RebuildCategorical(entries []*record.Entry, offsets []uint64) {
	for i, e := range entries {
		m.Insert(e, offsets[i])
	}
}

// Caches exposes the underlying cache.Manager so collaborators outside
// this package (recovery's MemoryCleanup action, engine's Stats) can
// observe or relieve cache pressure without this package re-exposing every
// cache operation itself.
func (m *Manager) Caches() *cache.Manager {
	return m.caches
}

// MaxID returns the highest numeric id currently indexed, or 0 if empty.
// engine.New uses this to resume its monotonic id counter after a restart.
func (m *Manager) MaxID() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var max uint64
	for id := range m.byID {
		if id > max {
			max = id
		}
	}
	return max
}

// AllOffsets returns the deduplicated, sorted union of the offsets held by
// the path and id maps. Directory and categorical buckets are not read, so
// offsets that only they still hold (Remove leaves them there) are not
// returned.
func (m *Manager) AllOffsets() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[uint64]struct{}, len(m.byPath))
	for _, off := range m.byPath {
		set[off] = struct{}{}
	}
	for _, off := range m.byID {
		set[off] = struct{}{}
	}

	out := make([]uint64, 0, len(set))
	for off := range set {
		out = append(out, off)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClearAll drops every index structure, used before a full
// IndexReconstruction scan.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byPath = make(map[string]uint64, 4096)
	m.byID = make(map[uint64]uint64, 4096)
	m.dirTree = btree.NewG(32, dirEntryLess)
	m.filesByDir = make(map[string][]uint64, 1024)
	m.byArtist = make(map[string][]uint64, 256)
	m.byAlbum = make(map[string][]uint64, 256)
	m.byGenre = make(map[string][]uint64, 64)
	m.byAlbumArtist = make(map[string][]uint64, 256)
	m.byYear = make(map[uint32][]uint64, 64)
	m.generation.Add(1)
}

// Optimize drops empty buckets and bumps the generation counter. It does
// not validate that remaining offsets still resolve — that is
// IndexReconstruction's job.
func (m *Manager) Optimize() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range m.filesByDir {
		if len(v) == 0 {
			delete(m.filesByDir, k)
		}
	}
	for k, v := range m.byArtist {
		if len(v) == 0 {
			delete(m.byArtist, k)
		}
	}
	for k, v := range m.byAlbum {
		if len(v) == 0 {
			delete(m.byAlbum, k)
		}
	}
	for k, v := range m.byGenre {
		if len(v) == 0 {
			delete(m.byGenre, k)
		}
	}
	for k, v := range m.byAlbumArtist {
		if len(v) == 0 {
			delete(m.byAlbumArtist, k)
		}
	}
	for k, v := range m.byYear {
		if len(v) == 0 {
			delete(m.byYear, k)
		}
	}
	m.generation.Add(1)
}

// NeedsPersistence reports whether any index kind is dirty and the
// configured persistence interval has elapsed since the last persist.
func (m *Manager) NeedsPersistence() bool {
	if m.dirty.Load() == 0 {
		return false
	}
	elapsed := time.Since(time.Unix(0, m.lastPersist.Load()))
	return elapsed > m.persistEvery
}

// Generation returns the current mutation generation.
func (m *Manager) Generation() uint64 {
	return m.generation.Load()
}

// insertDirectoryChain registers dir and every ancestor directory in the
// tree, so FindSubdirectories works from any level, not just the immediate
// parent of a stored file.
func (m *Manager) insertDirectoryChain(dir string) {
	for dir != "" && dir != "/" {
		m.dirTree.ReplaceOrInsert(dirEntry{Path: dir})
		parent := parentDir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}

func parentDir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

func appendUnique(offsets []uint64, offset uint64) []uint64 {
	for _, o := range offsets {
		if o == offset {
			return offsets
		}
	}
	return append(offsets, offset)
}
