// Package options provides data structures and functions for configuring
// the mediacat storage engine. It defines the PerformanceProfile enumeration
// and the functional-options surface that controls the engine's data
// file, cache, index, and batch sizing.
package options

import (
	"strings"
	"time"
)

// PerformanceProfile selects one of the enumerated tuning presets.
// It is a closed set, so it is modeled as an
// enum rather than an interface: the engine itself has exactly these five
// tuning shapes and no plugin model for adding more at runtime.
type PerformanceProfile int

const (
	// ProfileMinimal targets collections up to ~100k files on constrained
	// memory budgets.
	ProfileMinimal PerformanceProfile = iota
	// ProfileBalanced targets collections up to ~1M files.
	ProfileBalanced
	// ProfileHighPerformance targets collections up to ~10M files.
	ProfileHighPerformance
	// ProfileMaximum targets collections of 10M+ files.
	ProfileMaximum
	// ProfileCustom uses the explicitly configured values on Options instead
	// of a preset.
	ProfileCustom
)

// String renders the profile name for logging.
func (p PerformanceProfile) String() string {
	switch p {
	case ProfileMinimal:
		return "minimal"
	case ProfileBalanced:
		return "balanced"
	case ProfileHighPerformance:
		return "high_performance"
	case ProfileMaximum:
		return "maximum"
	case ProfileCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// cacheOptions configures the memory-bounded LRU cache layer shared
// across the path, id, and directory caches.
type cacheOptions struct {
	// MaxEntries caps how many entries each named cache instance holds.
	MaxEntries int `json:"maxEntries"`

	// MaxBytes is the estimated byte budget of the three named caches
	// together; each cache instance is capped at one third of it.
	MaxBytes int64 `json:"maxBytes"`

	// PressureThreshold is the current_bytes/max_bytes ratio above which the
	// cache is considered under Pressure.
	PressureThreshold float64 `json:"pressureThreshold"`

	// CriticalThreshold is the ratio above which the cache is Critical.
	CriticalThreshold float64 `json:"criticalThreshold"`

	// EvictionFraction is the proportion of entries evicted on a Pressure
	// check; Critical evicts double this fraction.
	EvictionFraction float64 `json:"evictionFraction"`

	// MinEntries is the floor below which pressure eviction will not shrink
	// a cache.
	MinEntries int `json:"minEntries"`

	// CheckInterval throttles how often CheckPressure recomputes utilization.
	CheckInterval time.Duration `json:"checkInterval"`
}

// dataOptions configures the memory-mapped append-only data file.
type dataOptions struct {
	// InitialSizeBytes is the size the data file's memory map starts at.
	InitialSizeBytes uint64 `json:"initialSizeBytes"`

	// MaxSizeBytes caps how large grow() is allowed to extend the mapping.
	MaxSizeBytes uint64 `json:"maxSizeBytes"`
}

// Options holds the full configuration surface for a mediacat engine
// instance, combining the base directory, performance profile, and the
// concrete cache/index/batch knobs that profile resolves to.
type Options struct {
	// DataDir is the base path where the data file and index snapshot are stored.
	DataDir string `json:"dataDir"`

	// Profile selects one of the tuning presets.
	Profile PerformanceProfile `json:"profile"`

	// BatchSize is the recommended maximum batch size for bulk operations
	// under this profile; callers may submit larger batches, but throughput
	// guidance assumes this size.
	BatchSize int `json:"batchSize"`

	// IndexCacheEntries is the max_entries budget applied to each of the
	// path/id/directory caches under this profile.
	IndexCacheEntries int `json:"indexCacheEntries"`

	// PersistenceInterval is the minimum elapsed time between index-manager
	// dirty-bit persistence sweeps.
	PersistenceInterval time.Duration `json:"persistenceInterval"`

	// RequestTimeout records the front-end's 30s browse timeout. The engine
	// does not read it: operations run under whatever deadline the caller's
	// context carries, and a context without one gets no default.
	RequestTimeout time.Duration `json:"requestTimeout"`

	// Data configures the memory-mapped data file sizing.
	Data *dataOptions `json:"data"`

	// Cache configures the shared LRU cache layer.
	Cache *cacheOptions `json:"cache"`

	// MaxRetryAttempts bounds recovery.Handler.ExecuteWithRetry.
	MaxRetryAttempts int `json:"maxRetryAttempts"`

	// RetryBaseDelay and RetryMaxDelay parameterize the exponential
	// backoff+jitter schedule.
	RetryBaseDelay time.Duration `json:"retryBaseDelay"`
	RetryMaxDelay time.Duration `json:"retryMaxDelay"`

	// ErrorHistorySize bounds the recovery handler's ring buffer of events.
	ErrorHistorySize int `json:"errorHistorySize"`
}

// OptionFunc is a function type that modifies the engine's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to NewDefaultOptions()'s values,
// discarding whatever profile had been selected previously.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithProfile applies one of the performance presets, overwriting the
// batch size, cache sizing, and data-file sizing with the preset's values.
// ProfileCustom leaves whatever values are already on Options untouched, so
// callers compose it with WithBatchSize/WithCacheSizes/WithDataFileSizes.
func WithProfile(p PerformanceProfile) OptionFunc {
	return func(o *Options) {
		o.Profile = p
		if preset, ok := profilePresets[p]; ok {
			o.BatchSize = preset.BatchSize
			o.IndexCacheEntries = preset.IndexCacheEntries
			o.Data = &dataOptions{
				InitialSizeBytes: preset.DataInitialBytes,
				MaxSizeBytes: preset.DataMaxBytes,
			}
			o.Cache = &cacheOptions{
				MaxEntries: preset.IndexCacheEntries,
				MaxBytes: preset.CacheMaxBytes,
				PressureThreshold: DefaultPressureThreshold,
				CriticalThreshold: DefaultCriticalThreshold,
				EvictionFraction: DefaultEvictionFraction,
				MinEntries: DefaultMinEntries,
				CheckInterval: DefaultPressureCheckInterval,
			}
		}
	}
}

// WithBatchSize overrides the recommended batch size, typically paired with
// ProfileCustom.
func WithBatchSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.BatchSize = size
		}
	}
}

// WithDataFileSizes overrides the memory-mapped data file's initial and
// maximum sizes.
func WithDataFileSizes(initial, max uint64) OptionFunc {
	return func(o *Options) {
		if initial > 0 && max >= initial {
			o.Data = &dataOptions{InitialSizeBytes: initial, MaxSizeBytes: max}
		}
	}
}

// WithCacheSizes overrides the per-cache entry and byte budgets.
func WithCacheSizes(maxEntries int, maxBytes int64) OptionFunc {
	return func(o *Options) {
		if maxEntries > 0 && maxBytes > 0 {
			if o.Cache == nil {
				o.Cache = &cacheOptions{}
			}
			o.Cache.MaxEntries = maxEntries
			o.Cache.MaxBytes = maxBytes
		}
	}
}

// WithPressureConfig overrides the cache pressure thresholds and eviction
// fraction.
func WithPressureConfig(pressureThreshold, criticalThreshold, evictionFraction float64, minEntries int) OptionFunc {
	return func(o *Options) {
		if o.Cache == nil {
			o.Cache = &cacheOptions{}
		}
		if pressureThreshold > 0 && pressureThreshold < 1 {
			o.Cache.PressureThreshold = pressureThreshold
		}
		if criticalThreshold > pressureThreshold && criticalThreshold <= 1 {
			o.Cache.CriticalThreshold = criticalThreshold
		}
		if evictionFraction > 0 && evictionFraction < 1 {
			o.Cache.EvictionFraction = evictionFraction
		}
		if minEntries >= 0 {
			o.Cache.MinEntries = minEntries
		}
	}
}

// WithPersistenceInterval sets the minimum interval between index snapshot
// persistence sweeps.
func WithPersistenceInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.PersistenceInterval = interval
		}
	}
}

// WithRequestTimeout sets Options.RequestTimeout (default: UPnP's 30s browse
// timeout). The engine does not apply it to contexts without a deadline.
func WithRequestTimeout(timeout time.Duration) OptionFunc {
	return func(o *Options) {
		if timeout > 0 {
			o.RequestTimeout = timeout
		}
	}
}

// WithRetryPolicy configures the error handler's retry attempt count and
// backoff bounds.
func WithRetryPolicy(maxAttempts int, base, max time.Duration) OptionFunc {
	return func(o *Options) {
		if maxAttempts > 0 {
			o.MaxRetryAttempts = maxAttempts
		}
		if base > 0 {
			o.RetryBaseDelay = base
		}
		if max >= base {
			o.RetryMaxDelay = max
		}
	}
}
