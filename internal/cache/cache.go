// Package cache implements the memory-bounded, pressure-aware LRU cache.
// Each instance wraps a simplelru.LRU for ordering and eviction
// mechanics, but owns byte-budget accounting and pressure-threshold
// eviction itself — simplelru only speaks entry counts, so its own
// capacity is set to math.MaxInt-1 and Insert enforces the real budget.
package cache

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// PressureLevel classifies how close a cache is to its byte budget.
type PressureLevel int

const (
	Normal PressureLevel = iota
	Pressure
	Critical
)

func (p PressureLevel) String() string {
	switch p {
	case Normal:
		return "normal"
	case Pressure:
		return "pressure"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// PressureConfig parameterizes when and how aggressively a cache sheds
// entries under memory pressure.
type PressureConfig struct {
	PressureThreshold float64
	CriticalThreshold float64
	EvictionFraction float64
	MinEntries int
	CheckInterval time.Duration
}

// Stats is a point-in-time snapshot of a cache's accounting counters.
type Stats struct {
	CurrentBytes int64
	CurrentEntries int64
	Hits uint64
	Misses uint64
	Evictions uint64
	PressureEvents uint64
}

type entry[V any] struct {
	value V
	bytes int64
}

// Cache is a generic, byte-budgeted LRU cache. K must be comparable so it
// can key simplelru's internal map directly.
type Cache[K comparable, V any] struct {
	mu sync.Mutex
	lru *lru.LRU[K, *entry[V]]

	name string
	maxBytes int64
	maxEntries int
	pressureCfg PressureConfig
	estimate func(K, V) int64

	lastCheck atomic.Int64
	currentBytes atomic.Int64
	hits atomic.Uint64
	misses atomic.Uint64
	evictions atomic.Uint64
	pressureEvents atomic.Uint64
}

// New builds a cache named name, bounded by maxEntries and maxBytes, using
// estimate to size each inserted value. estimate should be cheap — it runs
// under the cache's lock on every Insert.
func New[K comparable, V any](name string, maxEntries int, maxBytes int64, cfg PressureConfig, estimate func(K, V) int64) *Cache[K, V] {
	c := &Cache[K, V]{
		name: name,
		maxBytes: maxBytes,
		maxEntries: maxEntries,
		pressureCfg: cfg,
		estimate: estimate,
	}

	onEvict := func(_ K, v *entry[V]) {
		c.currentBytes.Add(-v.bytes)
		c.evictions.Add(1)
	}

	inner, err := lru.NewLRU[K, *entry[V]](math.MaxInt-1, onEvict)
	if err != nil {
		// simplelru only errors on a non-positive size, which MaxInt-1 never is.
		panic("cache: unexpected simplelru construction failure: " + err.Error())
	}
	c.lru = inner
	return c
}

// Get retrieves a cached value, recording a hit or miss.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	e, ok := c.lru.Get(k)
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Insert admits v under key k, evicting the current entry for k first (so
// re-inserts account size deltas correctly), then evicting oldest entries
// until the new entry fits within maxEntries/maxBytes. A single entry
// larger than the entire budget is admitted once and evicted
// on the next Insert that needs room.
func (c *Cache[K, V]) Insert(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.estimate(k, v)

	if _, ok := c.lru.Peek(k); ok {
		c.lru.Remove(k)
	}

	for (c.lru.Len() >= c.maxEntries || c.currentBytes.Load()+size > c.maxBytes) && c.lru.Len() > 0 {
		_, _, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
	}

	c.lru.Add(k, &entry[V]{value: v, bytes: size})
	c.currentBytes.Add(size)
}

// Remove evicts k if present, returning the removed value.
func (c *Cache[K, V]) Remove(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(k)
	if !ok {
		var zero V
		return zero, false
	}
	c.lru.Remove(k)
	return e.value, true
}

// ForceEvict removes least-recently-used entries until CurrentBytes is at
// or below targetBytes, returning the number of entries removed.
func (c *Cache[K, V]) ForceEvict(targetBytes int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for c.currentBytes.Load() > targetBytes && c.lru.Len() > 0 {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
		removed++
	}
	return removed
}

// CheckPressure evaluates the current byte usage against the configured
// thresholds, evicting a fraction of entries if over PressureThreshold
// (doubled if over CriticalThreshold), throttled to at most once per
// CheckInterval. Concurrent callers that lose the throttle race simply
// observe the level another caller just computed.
func (c *Cache[K, V]) CheckPressure() PressureLevel {
	now := time.Now().UnixNano()
	last := c.lastCheck.Load()
	if now-last < int64(c.pressureCfg.CheckInterval) {
		return c.levelFor(c.ratio())
	}
	if !c.lastCheck.CompareAndSwap(last, now) {
		return c.levelFor(c.ratio())
	}

	ratio := c.ratio()
	level := c.levelFor(ratio)
	if level == Normal {
		return level
	}

	c.mu.Lock()
	n := c.lru.Len()
	fraction := c.pressureCfg.EvictionFraction
	if level == Critical {
		fraction *= 2
	}
	target := int(float64(n) * fraction)
	if target < 1 {
		target = 1
	}
	if ceiling := n - c.pressureCfg.MinEntries; target > ceiling {
		target = ceiling
	}
	if target < 0 {
		target = 0
	}
	for i := 0; i < target; i++ {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
	c.mu.Unlock()

	if target > 0 {
		c.pressureEvents.Add(1)
	}
	return level
}

func (c *Cache[K, V]) ratio() float64 {
	if c.maxBytes <= 0 {
		return 0
	}
	return float64(c.currentBytes.Load()) / float64(c.maxBytes)
}

func (c *Cache[K, V]) levelFor(ratio float64) PressureLevel {
	switch {
	case ratio >= c.pressureCfg.CriticalThreshold:
		return Critical
	case ratio >= c.pressureCfg.PressureThreshold:
		return Pressure
	default:
		return Normal
	}
}

// Stats returns a point-in-time snapshot of this cache's counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	entries := int64(c.lru.Len())
	c.mu.Unlock()

	return Stats{
		CurrentBytes: c.currentBytes.Load(),
		CurrentEntries: entries,
		Hits: c.hits.Load(),
		Misses: c.misses.Load(),
		Evictions: c.evictions.Load(),
		PressureEvents: c.pressureEvents.Load(),
	}
}

// Name returns the cache's identifying name, used in CacheError reporting.
func (c *Cache[K, V]) Name() string { return c.name }
