package options

import "time"

const (
	// DefaultDataDir is the base directory mediacat stores its data file and
	// index snapshot under when no other directory is specified.
	DefaultDataDir = "/var/lib/mediacat"

	// DefaultPersistenceInterval is how often the index manager's dirty
	// bits are checked for a snapshot sweep.
	DefaultPersistenceInterval = 30 * time.Second

	// DefaultRequestTimeout mirrors the UPnP front-end's browse timeout.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultPressureThreshold, DefaultCriticalThreshold, DefaultEvictionFraction,
	// and DefaultMinEntries parameterize every cache instance's PressureConfig
	// unless overridden.
	DefaultPressureThreshold = 0.75
	DefaultCriticalThreshold = 0.90
	DefaultEvictionFraction = 0.20
	DefaultMinEntries = 16
	DefaultPressureCheckInterval = 200 * time.Millisecond

	// DefaultMaxRetryAttempts, DefaultRetryBaseDelay, and DefaultRetryMaxDelay
	// parameterize recovery.Handler.ExecuteWithRetry.
	DefaultMaxRetryAttempts = 5
	DefaultRetryBaseDelay = 10 * time.Millisecond
	DefaultRetryMaxDelay = 1 * time.Second

	// DefaultErrorHistorySize bounds the recovery handler's ring buffer.
	DefaultErrorHistorySize = 500
)

const mb = 1024 * 1024

// profilePreset captures the concrete sizing for one row of's table.
type profilePreset struct {
	DataInitialBytes uint64
	DataMaxBytes uint64
	IndexCacheEntries int
	CacheMaxBytes int64
	BatchSize int
}

// profilePresets implements the tuning-profile table. CacheMaxBytes is
// derived as a conservative multiple of IndexCacheEntries assuming the
// cache's own per-entry overhead estimate (see internal/cache's documented
// constant), keeping each profile's resident-memory footprint in the
// intended range: tens of MB under Minimal, a few hundred MB under
// Maximum.
var profilePresets = map[PerformanceProfile]profilePreset{
	ProfileMinimal: {
		DataInitialBytes: 4 * mb, DataMaxBytes: 4 * mb,
		IndexCacheEntries: 100_000, CacheMaxBytes: 20 * mb, BatchSize: 1_000,
	},
	ProfileBalanced: {
		DataInitialBytes: 16 * mb, DataMaxBytes: 16 * mb,
		IndexCacheEntries: 500_000, CacheMaxBytes: 100 * mb, BatchSize: 10_000,
	},
	ProfileHighPerformance: {
		DataInitialBytes: 64 * mb, DataMaxBytes: 64 * mb,
		IndexCacheEntries: 1_000_000, CacheMaxBytes: 200 * mb, BatchSize: 50_000,
	},
	ProfileMaximum: {
		DataInitialBytes: 256 * mb, DataMaxBytes: 256 * mb,
		IndexCacheEntries: 5_000_000, CacheMaxBytes: 400 * mb, BatchSize: 100_000,
	},
}

// defaultOptions holds the Balanced-profile configuration used when the
// caller applies no options at all.
var defaultOptions = Options{
	DataDir: DefaultDataDir,
	Profile: ProfileBalanced,
	BatchSize: profilePresets[ProfileBalanced].BatchSize,
	IndexCacheEntries: profilePresets[ProfileBalanced].IndexCacheEntries,
	PersistenceInterval: DefaultPersistenceInterval,
	RequestTimeout: DefaultRequestTimeout,
	Data: &dataOptions{
		InitialSizeBytes: profilePresets[ProfileBalanced].DataInitialBytes,
		MaxSizeBytes: profilePresets[ProfileBalanced].DataMaxBytes,
	},
	Cache: &cacheOptions{
		MaxEntries: profilePresets[ProfileBalanced].IndexCacheEntries,
		MaxBytes: profilePresets[ProfileBalanced].CacheMaxBytes,
		PressureThreshold: DefaultPressureThreshold,
		CriticalThreshold: DefaultCriticalThreshold,
		EvictionFraction: DefaultEvictionFraction,
		MinEntries: DefaultMinEntries,
		CheckInterval: DefaultPressureCheckInterval,
	},
	MaxRetryAttempts: DefaultMaxRetryAttempts,
	RetryBaseDelay: DefaultRetryBaseDelay,
	RetryMaxDelay: DefaultRetryMaxDelay,
	ErrorHistorySize: DefaultErrorHistorySize,
}

// NewDefaultOptions returns a copy of the Balanced-profile defaults, safe
// for the caller to mutate without affecting subsequent calls.
func NewDefaultOptions() Options {
	opts := defaultOptions
	data := *defaultOptions.Data
	cache := *defaultOptions.Cache
	opts.Data = &data
	opts.Cache = &cache
	return opts
}
