package recovery

import (
	"context"
	"fmt"

	"github.com/iamNilotpal/mediacat/internal/cache"
	"github.com/iamNilotpal/mediacat/internal/index"
	"github.com/iamNilotpal/mediacat/internal/mmapfile"
	"github.com/iamNilotpal/mediacat/internal/record"
)

// Context gathers the engine collaborators the six recovery actions
// operate against. engine.Engine wires this at construction, so this
// package never imports internal/engine and no import cycle is possible.
type Context struct {
	Index  *index.Manager
	Caches *cache.Manager
	Data   *mmapfile.File

	// ResetConfig restores the engine's tuning parameters to the active
	// profile's defaults. Supplied by engine.Engine since only it knows
	// the active Options and PerformanceProfile.
	ResetConfig func() error
}

// automaticRetry confirms an IO/Connection-kind error is of a retryable
// class. The actual timed retry loop lives in Handler.ExecuteWithRetry,
// which callers invoke directly around the failing operation — this action
// exists so AttemptRecovery has a uniform dispatch target for every Kind
// and records the attempt in the same history/statistics path.
func automaticRetry(ctx context.Context, h *Handler, ctxInfo string) error {
	h.log.Debugw("automatic retry recovery acknowledged", "context", ctxInfo)
	return nil
}

// transactionRollback acknowledges a transaction-kind failure reported
// outside of ExecuteTransaction's own inline rollback path (e.g. surfaced
// asynchronously after the fact).
func transactionRollback(ctx context.Context, rc *Context, ctxInfo string) error {
	return nil
}

// indexReconstruction drops every secondary index and rebuilds it by
// streaming the entire data file through record.DecodeFrame, re-inserting
// each (entry, offset) pair through index.Manager's normal Insert path.
func indexReconstruction(ctx context.Context, rc *Context) error {
	if rc.Index == nil || rc.Data == nil {
		return fmt.Errorf("recovery: index reconstruction requires index and data collaborators")
	}

	rc.Index.ClearAll()

	length := rc.Data.Len()
	if length == 0 {
		return nil
	}
	data, err := rc.Data.ReadAt(0, uint32(length))
	if err != nil {
		return err
	}

	offset := uint32(0)
	for offset < uint32(len(data)) {
		e, consumed, err := record.DecodeFrame(data[offset:])
		if err != nil {
			// A torn trailing write from a crash stops reconstruction at
			// the last known-good record; FileSystemCheck is responsible
			// for truncating the data file to match.
			break
		}
		rc.Index.Insert(e, uint64(offset))
		offset += uint32(consumed)
	}
	return nil
}

// memoryCleanup clears cache pressure by force-reducing every managed
// cache to half its current byte usage.
func memoryCleanup(ctx context.Context, rc *Context) error {
	if rc.Caches == nil {
		return fmt.Errorf("recovery: memory cleanup requires a cache collaborator")
	}
	rc.Caches.ForceCleanupAll(0.5)
	return nil
}

// fileSystemCheck scans the data file for the first record frame that
// fails to decode and truncates the logical write offset to just before
// it, discarding a crash-torn trailing write.
func fileSystemCheck(ctx context.Context, rc *Context) error {
	if rc.Data == nil {
		return fmt.Errorf("recovery: filesystem check requires a data collaborator")
	}

	length := rc.Data.Len()
	if length == 0 {
		return nil
	}
	data, err := rc.Data.ReadAt(0, uint32(length))
	if err != nil {
		return err
	}

	offset := uint32(0)
	for offset < uint32(len(data)) {
		_, consumed, err := record.DecodeFrame(data[offset:])
		if err != nil {
			return rc.Data.TruncateTo(uint64(offset))
		}
		offset += uint32(consumed)
	}
	return nil
}

// configurationReset restores the engine's tuning parameters to the active
// profile's defaults via the engine-supplied callback.
func configurationReset(ctx context.Context, rc *Context) error {
	if rc.ResetConfig == nil {
		return fmt.Errorf("recovery: configuration reset requires a reset callback")
	}
	return rc.ResetConfig()
}
