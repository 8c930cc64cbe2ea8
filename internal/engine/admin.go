package engine

import (
	"bytes"
	"context"
	"fmt"

	natomic "github.com/natefinch/atomic"

	"github.com/iamNilotpal/mediacat/internal/index"
	"github.com/iamNilotpal/mediacat/internal/mmapfile"
	"github.com/iamNilotpal/mediacat/internal/record"
	"github.com/iamNilotpal/mediacat/internal/recovery"
	mcerrors "github.com/iamNilotpal/mediacat/pkg/errors"
)

// Vacuum rewrites the data region with only live records: Open ->
// Compacting, read every live offset, re-encode and atomically swap the
// data file via natefinch/atomic's rename-swap, rebuild the index against
// the new offsets, then Compacting -> Open, draining any writes queued
// during the swap.
func (e *Engine) Vacuum(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateOpen), int32(StateCompacting)) {
		return mcerrors.NewStorageError(nil, mcerrors.ErrorCodeEngineClosed, "vacuum requires an open engine")
	}

	entries, err := e.readEntries(e.index.AllOffsets())
	if err != nil {
		e.state.Store(int32(StateOpen))
		return err
	}

	buf, relOffsets, err := record.EncodeBatch(entries)
	if err != nil {
		e.state.Store(int32(StateOpen))
		return err
	}

	if err := natomic.WriteFile(e.dataPath, bytes.NewReader(buf)); err != nil {
		e.state.Store(int32(StateOpen))
		return mcerrors.NewStorageError(err, mcerrors.ErrorCodeStorageIOFailure, "atomically replace data file during vacuum").
		WithPath(e.dataPath)
	}

	oldData := e.data
	newData, err := mmapfile.Open(e.dataPath, e.options.Data.InitialSizeBytes, e.options.Data.MaxSizeBytes, e.log)
	if err != nil {
		e.state.Store(int32(StateOpen))
		return err
	}
	oldData.Close()

	newIndex := index.New(index.Config{
		CacheMaxEntries: e.options.IndexCacheEntries,
		CacheMaxBytes: e.options.Cache.MaxBytes,
		PersistenceInterval: e.options.PersistenceInterval,
	}, e.log)
	for i, ent := range entries {
		newIndex.Insert(ent, uint64(relOffsets[i]))
	}

	e.data = newData
	e.index = newIndex
	e.errh.SetContext(&recovery.Context{
		Index: e.index,
		Caches: e.index.Caches(),
		Data: e.data,
		ResetConfig: e.resetConfig,
	})

	e.state.Store(int32(StateOpen))
	e.log.Infow("vacuum complete", "liveEntries", len(entries), "fileBytes", newData.Len())

	e.drainWriteQueue()
	return nil
}

// drainWriteQueue runs every write queued while the engine was
// StateCompacting, delivering each op's result back to its caller.
func (e *Engine) drainWriteQueue() {
	e.writeQueueMu.Lock()
	queue := e.writeQueue
	e.writeQueue = nil
	e.writeQueueMu.Unlock()

	for _, pw := range queue {
		pw.done <- pw.op()
	}
}

// CheckAndRepair scans the data file for a crash-torn trailing write,
// truncating it if found, then triggers a full index reconstruction via
// the recovery handler so every secondary index reflects exactly what
// survived.
func (e *Engine) CheckAndRepair(ctx context.Context) (Health, error) {
	if err := e.ensureReadable(); err != nil {
		return Health{}, err
	}

	health := Health{Healthy: true}

	if length := e.data.Len(); length > 0 {
		data, err := e.data.ReadAt(0, uint32(length))
		if err != nil {
			return Health{}, err
		}

		offset := uint32(0)
		for offset < uint32(len(data)) {
			_, consumed, err := record.DecodeFrame(data[offset:])
			if err != nil {
				health.Healthy = false
				health.TruncatedBytes = uint64(len(data)) - uint64(offset)
				health.Issues = append(health.Issues, fmt.Sprintf("truncated trailing write at offset %d", offset))
				if terr := e.data.TruncateTo(uint64(offset)); terr != nil {
					return Health{}, terr
				}
				break
			}
			offset += uint32(consumed)
		}
	}

	if err := e.errh.AttemptRecovery(ctx, recovery.KindIndex, "check_and_repair"); err != nil {
		health.Healthy = false
		health.Issues = append(health.Issues, "index reconstruction failed: "+err.Error())
	} else {
		health.ReindexedEntries = len(e.index.AllOffsets())
	}

	e.totalEntries.Store(int64(health.ReindexedEntries))
	return health, nil
}

// Stats returns the engine-wide snapshot of total_entries, total_bytes,
// and file_bytes, plus the performance tracker's derived metrics.
func (e *Engine) Stats() Stats {
	return Stats{
		TotalEntries: int(e.totalEntries.Load()),
		TotalBytes: e.totalBytes.Load(),
		FileBytes: e.data.Len(),
		Throughput: e.perf.CurrentThroughput(),
		MemoryEfficiency: e.perf.MemoryEfficiency(),
		CacheHitRate: e.perf.CacheHitRate(),
		State: State(e.state.Load()),
	}
}

// Close transitions the engine to Closed, persisting the index snapshot
// before flushing and closing the data file. Close is idempotent.
func (e *Engine) Close() error {
	if !e.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		if State(e.state.Load()) == StateClosed {
			return nil
		}
		// Closing from a non-Open, non-Closed state (e.g. mid-Vacuum) still
		// forces the engine closed rather than leaving it stuck.
		e.state.Store(int32(StateClosed))
	}

	if err := e.index.Persist(e.indexPath); err != nil {
		e.log.Warnw("failed to persist index snapshot on close", "error", err)
	}
	return e.data.Close()
}
