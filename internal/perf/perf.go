// Package perf implements the atomic performance tracker: a sliding
// throughput window plus lock-free scalar counters for memory and
// cache-hit accounting, readable without contention from any goroutine.
package perf

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// windowAgeLimit bounds the throughput window by age: samples older than
	// this are dropped regardless of count.
	windowAgeLimit = 60 * time.Second

	// throughputPrecision is the 10^-3 fixed-point scale the current
	// throughput value is stored at.
	throughputPrecision = 1000
)

// Sample is one completed batch observation pushed into the sliding window.
type Sample struct {
	At time.Time
	Files int
	Ops int
}

// Tracker accumulates batch samples and exposes lock-free scalar reads of
// derived metrics.
type Tracker struct {
	mu sync.Mutex
	window []Sample
	windowMax int

	throughputMilli atomic.Uint64
	totalFiles atomic.Uint64

	memAllocated atomic.Uint64
	memFreed atomic.Uint64

	cacheHits atomic.Uint64
	cacheMisses atomic.Uint64

	batchSuccess atomic.Uint64
	batchFailure atomic.Uint64
}

// New builds a Tracker whose sliding window retains at most windowMax
// samples (in addition to the 60s age bound).
func New(windowMax int) *Tracker {
	if windowMax <= 0 {
		windowMax = 256
	}
	return &Tracker{windowMax: windowMax}
}

// RecordBatch pushes a completed batch observation into the throughput
// window and recomputes the lock-free-readable current throughput.
func (t *Tracker) RecordBatch(files, ops int, d time.Duration, success bool) {
	now := time.Now()

	t.mu.Lock()
	t.window = append(t.window, Sample{At: now, Files: files, Ops: ops})
	t.window = pruneWindow(t.window, now, t.windowMax)
	throughput := computeThroughput(t.window, now)
	t.mu.Unlock()

	t.throughputMilli.Store(uint64(throughput * throughputPrecision))
	t.totalFiles.Add(uint64(files))

	if success {
		t.batchSuccess.Add(1)
	} else {
		t.batchFailure.Add(1)
	}
}

// CurrentThroughput returns files processed per second over the live
// window, at 10⁻³ precision.
func (t *Tracker) CurrentThroughput() float64 {
	return float64(t.throughputMilli.Load()) / throughputPrecision
}

// RecordMemory tracks bytes allocated/freed by cache and index structures,
// feeding MemoryEfficiency.
func (t *Tracker) RecordMemory(allocated, freed uint64) {
	t.memAllocated.Add(allocated)
	t.memFreed.Add(freed)
}

// MemoryEfficiency returns the fraction of allocated memory currently
// retained (not yet freed), clamped to [0, 1].
func (t *Tracker) MemoryEfficiency() float64 {
	allocated := t.memAllocated.Load()
	if allocated == 0 {
		return 1
	}
	freed := t.memFreed.Load()
	ratio := 1 - float64(freed)/float64(allocated)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// RecordCacheHit and RecordCacheMiss feed CacheHitRate.
func (t *Tracker) RecordCacheHit() { t.cacheHits.Add(1) }
func (t *Tracker) RecordCacheMiss() { t.cacheMisses.Add(1) }

// CacheHitRate returns hits / (hits + misses), or 0 if there have been no
// observations yet.
func (t *Tracker) CacheHitRate() float64 {
	hits := t.cacheHits.Load()
	misses := t.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// TotalFiles returns the cumulative file count across every recorded batch.
func (t *Tracker) TotalFiles() uint64 { return t.totalFiles.Load() }

// BatchOutcomes returns the cumulative success/failure batch counts.
func (t *Tracker) BatchOutcomes() (success, failure uint64) {
	return t.batchSuccess.Load(), t.batchFailure.Load()
}

func pruneWindow(window []Sample, now time.Time, max int) []Sample {
	cutoff := now.Add(-windowAgeLimit)
	start := 0
	for start < len(window) && window[start].At.Before(cutoff) {
		start++
	}
	window = window[start:]
	if len(window) > max {
		window = window[len(window)-max:]
	}
	return window
}

func computeThroughput(window []Sample, now time.Time) float64 {
	if len(window) == 0 {
		return 0
	}

	totalFiles := 0
	for _, s := range window {
		totalFiles += s.Files
	}

	span := now.Sub(window[0].At).Seconds()
	if span <= 0 {
		span = 1
	}
	return float64(totalFiles) / span
}
