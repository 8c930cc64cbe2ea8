// Package engine composes the memory-mapped data file, binary record
// codec, index manager, performance tracker, and atomic error handler into
// the bulk-first storage engine. It is the single place that
// understands the five-state lifecycle (Created -> Initialized -> Open,
// Open <-> Compacting, Open -> Closed) and the five-step batch transaction
// protocol that BulkStore and BulkUpdate run through; BulkRemove only
// deletes index entries and writes nothing to the data file.
package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamNilotpal/mediacat/internal/index"
	"github.com/iamNilotpal/mediacat/internal/mmapfile"
	"github.com/iamNilotpal/mediacat/internal/perf"
	"github.com/iamNilotpal/mediacat/internal/record"
	"github.com/iamNilotpal/mediacat/internal/recovery"
	mcerrors "github.com/iamNilotpal/mediacat/pkg/errors"
	"github.com/iamNilotpal/mediacat/pkg/filesys"
	"github.com/iamNilotpal/mediacat/pkg/options"
)

// pendingWrite is a write operation queued while the engine is
// StateCompacting; Vacuum drains the queue and delivers each op's result
// over done once the swap completes.
type pendingWrite struct {
	op func() error
	done chan error
}

// Engine is the bulk-transactional storage engine.
// Every field is either immutable after New or protected by its own
// synchronization (atomics, or the collaborator's own locking), so Engine
// itself holds no general-purpose mutex beyond writeQueueMu.
type Engine struct {
	state atomic.Int32
	options *options.Options
	log *zap.SugaredLogger

	dataPath string
	indexPath string

	data *mmapfile.File
	index *index.Manager
	perf *perf.Tracker
	errh *recovery.Handler

	nextID atomic.Uint64

	totalEntries atomic.Int64
	totalBytes atomic.Uint64

	writeQueueMu sync.Mutex
	writeQueue []pendingWrite
}

// New builds and opens an Engine: Created -> Initialized -> Open. The data
// file and index snapshot are opened or created under cfg.Options.DataDir,
// and every categorical index not covered by the snapshot is rebuilt by a
// full scan of the data file.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil || cfg.Options == nil {
		return nil, mcerrors.NewValidationError(nil, mcerrors.ErrorCodeInvalidInput, "engine requires non-nil options").
		WithField("Options")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	opts := cfg.Options

	if err := filesys.CreateDir(opts.DataDir, 0o755, true); err != nil {
		return nil, mcerrors.ClassifyDirectoryCreationError(err, opts.DataDir)
	}

	e := &Engine{
		options: opts,
		log: log.With("component", "engine"),
		dataPath: filepath.Join(opts.DataDir, dataFileName),
		indexPath: filepath.Join(opts.DataDir, indexFileName),
	}
	e.state.Store(int32(StateCreated))

	resuming, err := filesys.Exists(e.dataPath)
	if err != nil {
		return nil, mcerrors.ClassifyDirectoryCreationError(err, e.dataPath)
	}

	data, err := mmapfile.Open(e.dataPath, opts.Data.InitialSizeBytes, opts.Data.MaxSizeBytes, log)
	if err != nil {
		return nil, err
	}
	e.data = data

	idx := index.New(index.Config{
		CacheMaxEntries: opts.IndexCacheEntries,
		CacheMaxBytes: opts.Cache.MaxBytes,
		PersistenceInterval: opts.PersistenceInterval,
	}, log)

	if err := idx.Load(e.indexPath); err != nil {
		// Load applies nothing on error; the data-file scan below
		// re-inserts every record, so the index is rebuilt from scratch.
		e.log.Warnw("index snapshot unusable, rebuilding from data file", "error", err)
	}

	if length := data.Len(); length > 0 {
		raw, err := data.ReadAt(0, uint32(length))
		if err != nil {
			data.Close()
			return nil, err
		}
		entries, offsets := record.DecodeBatchWithOffsets(raw)
		idx.RebuildCategorical(entries, offsets)
	}
	e.index = idx
	e.nextID.Store(idx.MaxID())

	e.perf = perf.New(256)

	e.errh = recovery.New(recovery.Config{
		BackoffBase: opts.RetryBaseDelay,
		BackoffMax: opts.RetryMaxDelay,
		MaxRetryAttempts: opts.MaxRetryAttempts,
		HistorySize: opts.ErrorHistorySize,
	}, log)
	e.errh.SetContext(&recovery.Context{
		Index: e.index,
		Caches: e.index.Caches(),
		Data: e.data,
		ResetConfig: e.resetConfig,
	})

	e.totalEntries.Store(int64(len(e.index.AllOffsets())))

	e.state.Store(int32(StateInitialized))
	e.state.Store(int32(StateOpen))

	e.log.Infow("engine opened",
		"dataDir", opts.DataDir, "profile", opts.Profile.String(),
		"entries", e.totalEntries.Load(), "resumed", resuming)
	return e, nil
}

// resetConfig restores the active profile's preset values, the action
// recovery.KindConfiguration dispatches to.
func (e *Engine) resetConfig() error {
	options.WithProfile(e.options.Profile)(e.options)
	e.log.Infow("configuration reset to profile defaults", "profile", e.options.Profile.String())
	return nil
}

// ensureReadable reports whether the engine can currently serve reads — any
// state short of Closed is acceptable, since Compacting still serves reads
// against the live, pre-swap map.
func (e *Engine) ensureReadable() error {
	if State(e.state.Load()) == StateClosed {
		return mcerrors.NewStorageError(nil, mcerrors.ErrorCodeEngineClosed, "operation attempted on closed engine")
	}
	return nil
}

// runWrite executes op immediately if the engine is Open, queues it if the
// engine is Compacting (Vacuum drains the queue after the swap), or fails
// fast if the engine is not yet Open or already Closed.
func (e *Engine) runWrite(op func() error) error {
	switch State(e.state.Load()) {
	case StateOpen:
		return op()
	case StateCompacting:
		done := make(chan error, 1)
		e.writeQueueMu.Lock()
		e.writeQueue = append(e.writeQueue, pendingWrite{op: op, done: done})
		e.writeQueueMu.Unlock()
		return <-done
	default:
		return mcerrors.NewStorageError(nil, mcerrors.ErrorCodeEngineClosed, "write attempted on non-open engine")
	}
}

// readEntryAt decodes the single length-prefixed record frame stored at
// offset in the data file.
func (e *Engine) readEntryAt(offset uint64) (*record.Entry, error) {
	lenBytes, err := e.data.ReadAt(offset, 4)
	if err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBytes)

	full, err := e.data.ReadAt(offset, 4+length)
	if err != nil {
		return nil, err
	}
	entry, _, err := record.DecodeFrame(full)
	if err != nil {
		return nil, mcerrors.NewIndexCorruptionError("readEntryAt", 1, err)
	}
	return entry, nil
}

// validateEntries rejects a batch up front if any entry is missing a field
// the index keys on, before a single byte reaches the data file.
func validateEntries(entries []*record.Entry) error {
	for _, ent := range entries {
		if strings.TrimSpace(ent.Path) == "" {
			return mcerrors.NewRequiredFieldError("Path")
		}
		if strings.TrimSpace(ent.FileName) == "" {
			return mcerrors.NewRequiredFieldError("FileName")
		}
	}
	return nil
}

func (e *Engine) readEntries(offsets []uint64) ([]*record.Entry, error) {
	entries := make([]*record.Entry, 0, len(offsets))
	for _, off := range offsets {
		entry, err := e.readEntryAt(off)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// BulkStore implements the five-step transaction protocol: reserve an id
// range, encode the whole batch into one contiguous buffer, append it with
// a single offset reservation, insert every record's resolved offset into
// the index, and record throughput. A failure at any step aborts the
// entire batch via recovery.Handler.ExecuteTransaction before any index
// mutation is made.
func (e *Engine) BulkStore(ctx context.Context, entries []*record.Entry) ([]uint64, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	start := time.Now()
	now := time.Now()
	ids := make([]uint64, len(entries))

	err := e.runWrite(func() error {
		return e.errh.ExecuteTransaction(ctx, uuid.New(), func() error {
			for i, ent := range entries {
				ent.ID = e.nextID.Add(1)
				ent.CreatedAt = now
				ent.UpdatedAt = now
				ids[i] = ent.ID
			}

			buf, relOffsets, err := record.EncodeBatch(entries)
			if err != nil {
				return err
			}

			base, err := e.data.Append(buf)
			if err != nil {
				return err
			}

			for i, ent := range entries {
				e.index.Insert(ent, base+uint64(relOffsets[i]))
			}
			return nil
		})
	})

	if err != nil {
		e.perf.RecordBatch(len(entries), 1, time.Since(start), false)
		return nil, err
	}

	var totalSize uint64
	for _, ent := range entries {
		totalSize += ent.Size
	}
	e.totalEntries.Add(int64(len(entries)))
	e.totalBytes.Add(totalSize)
	e.perf.RecordMemory(totalSize, 0)
	e.perf.RecordBatch(len(entries), 1, time.Since(start), true)
	return ids, nil
}

// BulkUpdate re-appends every entry (records are never mutated in place)
// and re-points the index at the new offset, reusing each entry's existing
// id and creation time when its canonical path is already known. Old
// bytes become garbage, reclaimable by Vacuum.
func (e *Engine) BulkUpdate(ctx context.Context, entries []*record.Entry) error {
	if err := e.ensureReadable(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := validateEntries(entries); err != nil {
		return err
	}

	start := time.Now()
	now := time.Now()

	err := e.runWrite(func() error {
		return e.errh.ExecuteTransaction(ctx, uuid.New(), func() error {
			for _, ent := range entries {
				if existingOffset, ok := e.index.FindByPath(ent.Path); ok {
					if existing, err := e.readEntryAt(existingOffset); err == nil {
						ent.ID = existing.ID
						ent.CreatedAt = existing.CreatedAt
					}
				}
				if ent.ID == 0 {
					ent.ID = e.nextID.Add(1)
				}
				ent.UpdatedAt = now
			}

			buf, relOffsets, err := record.EncodeBatch(entries)
			if err != nil {
				return err
			}

			base, err := e.data.Append(buf)
			if err != nil {
				return err
			}

			for i, ent := range entries {
				e.index.Insert(ent, base+uint64(relOffsets[i]))
			}
			return nil
		})
	})

	if err != nil {
		e.perf.RecordBatch(len(entries), 1, time.Since(start), false)
		return err
	}
	e.perf.RecordBatch(len(entries), 1, time.Since(start), true)
	return nil
}

// BulkRemove deletes every path from the index (old bytes become garbage)
// and returns how many of the requested paths actually existed.
func (e *Engine) BulkRemove(ctx context.Context, paths []string) (int, error) {
	if err := e.ensureReadable(); err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, nil
	}

	removed := 0
	err := e.runWrite(func() error {
		for _, p := range paths {
			if _, ok := e.index.Remove(p); ok {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.totalEntries.Add(-int64(removed))
	return removed, nil
}

// BulkGetByPaths resolves each path through the index (cache first, then
// the authoritative map) and reads the matching record from the data
// file; paths with no index entry are silently omitted.
func (e *Engine) BulkGetByPaths(ctx context.Context, paths []string) ([]*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}

	var offsets []uint64
	for _, p := range paths {
		if off, ok := e.index.FindByPath(p); ok {
			e.perf.RecordCacheHit()
			offsets = append(offsets, off)
		} else {
			e.perf.RecordCacheMiss()
		}
	}
	return e.readEntries(offsets)
}

// GetByID is the single-item convenience form of the id lookup path; it
// goes through the same index-then-data-file read used by every bulk read.
func (e *Engine) GetByID(ctx context.Context, id uint64) (*record.Entry, error) {
	if err := e.ensureReadable(); err != nil {
		return nil, err
	}
	off, ok := e.index.FindByID(id)
	if !ok {
		e.perf.RecordCacheMiss()
		return nil, mcerrors.NewKeyNotFoundError("id", fmt.Sprintf("%d", id))
	}
	e.perf.RecordCacheHit()
	return e.readEntryAt(off)
}

// GetByPath is the single-item convenience form of BulkGetByPaths.
func (e *Engine) GetByPath(ctx context.Context, p string) (*record.Entry, error) {
	found, err := e.BulkGetByPaths(ctx, []string{p})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, mcerrors.NewKeyNotFoundError("path", p)
	}
	return found[0], nil
}
