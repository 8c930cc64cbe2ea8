// Package mmapfile implements the memory-mapped append-only data file: a
// single growable file whose live region is kept mapped into the process
// address space, written with lock-free compare-and-swap offset reservations,
// and grown under a serializing mutex only when the current mapping is
// exhausted.
package mmapfile

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	mcerrors "github.com/iamNilotpal/mediacat/pkg/errors"
)

// File is a single memory-mapped, append-only data file. Appends are
// lock-free: a writer reserves its byte range with an atomic compare-and-swap
// on writeOffset and then copies directly into the mapping. Only a grow
// (remapping to a larger size) takes growMu, and only after double-checking
// under the lock that some other goroutine hasn't already grown far enough.
type File struct {
	f *os.File
	mm mmap.MMap
	path string
	log *zap.SugaredLogger

	writeOffset atomic.Uint64
	mapSize atomic.Uint64
	maxSize uint64

	growMu sync.Mutex
	closed atomic.Bool
}

// Open creates or opens the data file at path, sizing it to initialSize (or
// its existing size if larger) and capping growth at maxSize. A maxSize of 0
// means unbounded.
func Open(path string, initialSize, maxSize uint64, log *zap.SugaredLogger) (*File, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, mcerrors.ClassifyFileOpenError(err, path, filenameOf(path))
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "stat data file").
		WithPath(path).
		WithFileName(filenameOf(path))
	}

	size := initialSize
	if uint64(info.Size()) > size {
		size = uint64(info.Size())
	}
	if size == 0 {
		size = initialSize
	}

	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "truncate data file to initial size").
		WithPath(path).
		WithFileName(filenameOf(path)).
		WithLength(int(size))
	}

	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageMapFailure, "map data file").
		WithPath(path).
		WithFileName(filenameOf(path))
	}

	mf := &File{f: f, mm: mm, path: path, log: log.With("component", "mmapfile", "path", path), maxSize: maxSize}
	mf.mapSize.Store(size)
	mf.writeOffset.Store(uint64(info.Size()))

	mf.log.Infow("data file opened", "initialMapSize", size, "existingDataSize", info.Size())
	return mf, nil
}

// Append reserves len(b) bytes at the end of the live region and copies b
// into it, growing the mapping first if the reservation would not fit. It
// returns the offset at which b now lives.
func (f *File) Append(b []byte) (uint64, error) {
	if f.closed.Load() {
		return 0, mcerrors.NewStorageError(nil, mcerrors.ErrorCodeEngineClosed, "append to closed data file").
		WithPath(f.path)
	}

	for {
		current := f.writeOffset.Load()
		next := current + uint64(len(b))

		if f.maxSize != 0 && next > f.maxSize {
			return 0, mcerrors.NewStorageError(nil, mcerrors.ErrorCodeResourceExhausted, "data file would exceed configured maximum size").
			WithPath(f.path).
			WithLength(len(b)).
			WithOffset(int64(current))
		}

		if next > f.mapSize.Load() {
			if err := f.grow(next); err != nil {
				return 0, err
			}
			continue
		}

		if !f.writeOffset.CompareAndSwap(current, next) {
			continue
		}

		copy(f.mm[current:next], b)
		return current, nil
	}
}

// grow doubles the mapping (capped at maxSize, if set) until it can hold
// target bytes, remapping the file under growMu. Concurrent Append callers
// that lose the race simply retry against the new mapSize.
func (f *File) grow(target uint64) error {
	f.growMu.Lock()
	defer f.growMu.Unlock()

	current := f.mapSize.Load()
	if target <= current {
		return nil
	}

	newSize := current
	if newSize == 0 {
		newSize = target
	}
	for newSize < target {
		newSize *= 2
	}
	if f.maxSize != 0 && newSize > f.maxSize {
		newSize = f.maxSize
	}
	if newSize < target {
		return mcerrors.NewStorageError(nil, mcerrors.ErrorCodeResourceExhausted, "cannot grow data file beyond configured maximum size").
		WithPath(f.path).
		WithLength(int(target))
	}

	if err := f.mm.Unmap(); err != nil {
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageMapFailure, "unmap data file before grow").
		WithPath(f.path)
	}
	if err := f.f.Truncate(int64(newSize)); err != nil {
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "truncate data file during grow").
		WithPath(f.path).
		WithLength(int(newSize))
	}

	mm, err := mmap.Map(f.f, mmap.RDWR, 0)
	if err != nil {
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageMapFailure, "remap data file after grow").
		WithPath(f.path)
	}

	f.mm = mm
	f.mapSize.Store(newSize)
	f.log.Infow("data file grown", "newMapSize", newSize)
	return nil
}

// ReadAt returns a copy of the length bytes at offset. The returned slice
// never aliases the mapping, so callers may retain it across a later grow
// (which unmaps and remaps the underlying memory).
func (f *File) ReadAt(offset uint64, length uint32) ([]byte, error) {
	if f.closed.Load() {
		return nil, mcerrors.NewStorageError(nil, mcerrors.ErrorCodeEngineClosed, "read from closed data file").
		WithPath(f.path)
	}

	end := offset + uint64(length)
	if end > f.writeOffset.Load() {
		return nil, mcerrors.NewStorageError(nil, mcerrors.ErrorCodeOutOfBounds, "read past end of written data").
		WithPath(f.path).
		WithOffset(int64(offset)).
		WithLength(int(length))
	}

	out := make([]byte, length)
	copy(out, f.mm[offset:end])
	return out, nil
}

// Flush synchronizes the mapping's dirty pages to stable storage.
func (f *File) Flush() error {
	if f.closed.Load() {
		return nil
	}
	if err := f.mm.Flush(); err != nil {
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageSyncFailure, "flush data file mapping").
		WithPath(f.path)
	}
	return nil
}

// Close flushes, unmaps, and closes the underlying file. Close is
// idempotent.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	if err := f.mm.Flush(); err != nil {
		firstErr = mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageSyncFailure, "flush data file on close").WithPath(f.path)
	}
	if err := f.mm.Unmap(); err != nil && firstErr == nil {
		firstErr = mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageMapFailure, "unmap data file on close").WithPath(f.path)
	}
	// Trim the file to the written length so the next Open, which takes the
	// file size as the write offset, resumes at the logical end of data.
	if err := f.f.Truncate(int64(f.writeOffset.Load())); err != nil && firstErr == nil {
		firstErr = mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "truncate data file to written length on close").WithPath(f.path)
	}
	if err := f.f.Close(); err != nil && firstErr == nil {
		firstErr = mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "close data file").WithPath(f.path)
	}
	return firstErr
}

// Len returns the number of bytes written so far (the logical end of data,
// not the physical mapping size).
func (f *File) Len() uint64 {
	return f.writeOffset.Load()
}

// resetOffsetForTest rewinds the write offset without truncating the
// mapping, letting tests replay Append sequences against a fixed file size.
func (f *File) resetOffsetForTest() {
	f.writeOffset.Store(0)
}

// TruncateTo rewinds the logical write offset to validOffset, treating
// every byte beyond it as garbage. It is the production counterpart of
// resetOffsetForTest, used by recovery's FileSystemCheck action to discard
// a torn trailing write discovered after a crash; it never shrinks the
// physical mapping, only the logical length reads and appends respect.
func (f *File) TruncateTo(validOffset uint64) error {
	if validOffset > f.writeOffset.Load() {
		return mcerrors.NewStorageError(nil, mcerrors.ErrorCodeInvalidInput, "cannot truncate data file forward").
		WithPath(f.path).
		WithOffset(int64(validOffset))
	}
	f.writeOffset.Store(validOffset)
	return nil
}

func filenameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
