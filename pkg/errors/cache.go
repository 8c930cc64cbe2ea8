package errors

// CacheError is a specialized error type for the memory-bounded LRU cache
// layer: capacity violations and pressure-driven eviction failures.
type CacheError struct {
	*baseError

	cacheName string // which named cache instance (path, id, directory, ...)
	entryBytes int64 // estimated size of the entry involved
	maxBytes int64 // configured byte budget at the time of the error
	currentBytes int64 // observed byte usage at the time of the error
}

// NewCacheError creates a new cache-specific error.
func NewCacheError(err error, code ErrorCode, msg string) *CacheError {
	return &CacheError{baseError: NewBaseError(err, code, msg)}
}

func (ce *CacheError) WithMessage(msg string) *CacheError {
	ce.baseError.WithMessage(msg)
	return ce
}

func (ce *CacheError) WithCode(code ErrorCode) *CacheError {
	ce.baseError.WithCode(code)
	return ce
}

func (ce *CacheError) WithDetail(key string, value any) *CacheError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// WithCacheName records which named cache instance raised the error.
func (ce *CacheError) WithCacheName(name string) *CacheError {
	ce.cacheName = name
	return ce
}

// WithSizes records the entry/current/max byte accounting at error time.
func (ce *CacheError) WithSizes(entryBytes, currentBytes, maxBytes int64) *CacheError {
	ce.entryBytes = entryBytes
	ce.currentBytes = currentBytes
	ce.maxBytes = maxBytes
	return ce
}

func (ce *CacheError) CacheName() string { return ce.cacheName }
func (ce *CacheError) EntryBytes() int64 { return ce.entryBytes }
func (ce *CacheError) MaxBytes() int64 { return ce.maxBytes }
func (ce *CacheError) CurrentBytes() int64 { return ce.currentBytes }

// NewCacheCapacityError reports that a single entry could not be admitted
// even after evicting every other entry from the cache: an entry larger
// than max_bytes is allowed once, then evicted on the next insert — this
// error is for the case that even that single-entry store fails, e.g.
// min_entries blocks the final eviction.
func NewCacheCapacityError(cacheName string, entryBytes, maxBytes int64) *CacheError {
	return NewCacheError(nil, ErrorCodeCacheCapacityExceeded, "entry exceeds cache capacity").
	WithCacheName(cacheName).
	WithSizes(entryBytes, 0, maxBytes)
}
