package cache

// Manager composes the three named caches the index manager consults on
// every lookup: by canonical path, by numeric id, and by directory
// listing. It exists so engine.Engine and recovery.Handler have a single
// handle to sweep under memory pressure instead of three.
type Manager struct {
	Paths *Cache[string, uint64]
	IDs *Cache[uint64, uint64]
	Directories *Cache[string, []uint64]
}

// Config parameterizes the three caches a Manager owns. Each cache gets the
// full MaxEntries and one third of MaxBytes; the per-entry cost differences
// between paths, ids, and directory listings are handled by each cache's
// size estimator.
type Config struct {
	MaxEntries int
	MaxBytes int64
	Pressure PressureConfig
}

// NewManager builds the three named caches with size-aware estimators:
// path/id entries are a handful of words; directory listings scale with
// the number of offsets they carry.
func NewManager(cfg Config) *Manager {
	perCache := cfg.MaxEntries
	perCacheBytes := cfg.MaxBytes / 3
	if perCacheBytes <= 0 {
		perCacheBytes = 1
	}

	return &Manager{
		Paths: New[string, uint64]("path", perCache, perCacheBytes, cfg.Pressure, func(k string, _ uint64) int64 {
			return int64(len(k)) + 8
		}),
		IDs: New[uint64, uint64]("id", perCache, perCacheBytes, cfg.Pressure, func(_ uint64, _ uint64) int64 {
			return 16
		}),
		Directories: New[string, []uint64]("directory", perCache, perCacheBytes, cfg.Pressure, func(k string, v []uint64) int64 {
			return int64(len(k)) + int64(len(v))*8
		}),
	}
}

// ForceCleanupAll reduces every managed cache's byte usage by
// reductionFraction (e.g. 0.5 halves each cache), used by
// recovery.MemoryCleanup when CheckPressure alone hasn't relieved pressure.
func (m *Manager) ForceCleanupAll(reductionFraction float64) int {
	removed := 0
	for _, c := range m.all() {
		stats := c.Stats()
		target := int64(float64(stats.CurrentBytes) * (1 - reductionFraction))
		removed += c.forceEvictBytes(target)
	}
	return removed
}

// PressureLevel returns the worst pressure level observed across the three
// managed caches.
func (m *Manager) PressureLevel() PressureLevel {
	worst := Normal
	for _, c := range m.all() {
		if lvl := c.checkPressureLevel(); lvl > worst {
			worst = lvl
		}
	}
	return worst
}

func (m *Manager) all() []cacheLike {
	return []cacheLike{
		pathCacheAdapter{m.Paths},
		idCacheAdapter{m.IDs},
		dirCacheAdapter{m.Directories},
	}
}

// cacheLike erases the generic type parameter so Manager can iterate over
// its three differently-typed caches uniformly.
type cacheLike interface {
	Stats() Stats
	forceEvictBytes(target int64) int
	checkPressureLevel() PressureLevel
}

type pathCacheAdapter struct{ c *Cache[string, uint64] }
type idCacheAdapter struct{ c *Cache[uint64, uint64] }
type dirCacheAdapter struct{ c *Cache[string, []uint64] }

func (a pathCacheAdapter) Stats() Stats { return a.c.Stats() }
func (a pathCacheAdapter) forceEvictBytes(target int64) int { return a.c.ForceEvict(target) }
func (a pathCacheAdapter) checkPressureLevel() PressureLevel { return a.c.CheckPressure() }

func (a idCacheAdapter) Stats() Stats { return a.c.Stats() }
func (a idCacheAdapter) forceEvictBytes(target int64) int { return a.c.ForceEvict(target) }
func (a idCacheAdapter) checkPressureLevel() PressureLevel { return a.c.CheckPressure() }

func (a dirCacheAdapter) Stats() Stats { return a.c.Stats() }
func (a dirCacheAdapter) forceEvictBytes(target int64) int { return a.c.ForceEvict(target) }
func (a dirCacheAdapter) checkPressureLevel() PressureLevel { return a.c.CheckPressure() }
