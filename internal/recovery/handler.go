// Package recovery implements the atomic error handler: error-kind
// classification, retry with exponential backoff and jitter, transaction
// rollback bookkeeping, and the six concrete recovery actions dispatched
// by kind.
package recovery

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	mcerrors "github.com/iamNilotpal/mediacat/pkg/errors"
)

// Handler tracks error history and executes the transaction, retry, and
// recovery-dispatch protocols. It is deliberately decoupled from
// engine.Engine to avoid an import cycle — engine.Engine supplies a
// *Context at construction, following this module's dependency-injection
// idiom of wiring collaborators through a Config struct.
type Handler struct {
	mu sync.Mutex
	history []Event

	counts map[Kind]*atomic.Uint64
	total atomic.Uint64

	txSuccess, txFailure atomic.Uint64
	rollbackSuccess, rollbackFailure atomic.Uint64
	retrySuccess, retryExhausted atomic.Uint64
	recoverySuccess, recoveryFailure atomic.Uint64

	backoffBase, backoffMax time.Duration
	maxRetryAttempts int
	historySize int

	ctx *Context
	log *zap.SugaredLogger
}

// New builds a Handler. ctx may be wired after construction via SetContext
// once the owning engine has assembled its collaborators.
func New(cfg Config, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 500
	}

	counts := make(map[Kind]*atomic.Uint64, 9)
	for _, k := range []Kind{
		KindTransaction, KindSerialization, KindIO, KindMemory, KindValidation,
		KindIndex, KindConfiguration, KindConnection, KindUnknown,
	} {
		counts[k] = &atomic.Uint64{}
	}

	return &Handler{
		counts: counts,
		backoffBase: cfg.BackoffBase,
		backoffMax: cfg.BackoffMax,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		historySize: cfg.HistorySize,
		log: log.With("component", "recovery"),
	}
}

// SetContext wires the engine collaborators AttemptRecovery's actions
// operate against. Must be called once before AttemptRecovery is used.
func (h *Handler) SetContext(ctx *Context) {
	h.ctx = ctx
}

// ExecuteTransaction runs op and records the transaction outcome. On
// failure it counts a rollback and returns a TransactionError marked as
// rolled back; the handler itself undoes nothing, so any partial state op
// leaves behind is op's own to unwind.
func (h *Handler) ExecuteTransaction(ctx context.Context, id uuid.UUID, op func() error) error {
	err := op()
	if err == nil {
		h.txSuccess.Add(1)
		h.record(Event{Kind: KindTransaction, OperationContext: id.String(), Resolved: true})
		return nil
	}

	h.txFailure.Add(1)
	h.recordClassified(err, id.String(), true)

	if rbErr := h.rollback(op); rbErr != nil {
		h.rollbackFailure.Add(1)
		return mcerrors.NewTransactionError(rbErr, mcerrors.ErrorCodeTransactionAborted, "transaction rollback failed").
		WithBatchID(id.String()).
		WithOperation("ExecuteTransaction").
		WithRollback(true, rbErr)
	}

	h.rollbackSuccess.Add(1)
	return mcerrors.NewTransactionError(err, mcerrors.ErrorCodeTransactionAborted, "transaction aborted and rolled back").
	WithBatchID(id.String()).
	WithOperation("ExecuteTransaction").
	WithRollback(true, nil)
}

// rollback is a bookkeeping hook that undoes nothing and always succeeds.
// The engine's batch ops run every fallible step (encode, Append) before
// their first index insert, so a failed op leaves no index state to unwind.
func (h *Handler) rollback(op func() error) error {
	return nil
}

// ExecuteWithRetry retries op up to maxRetryAttempts times with exponential
// backoff and jitter between attempts: jpillora/backoff supplies the capped
// delay min(base·2^(n-1), max) for attempt n, and that delay is scaled by a
// random factor in [0.75, 1.25).
func (h *Handler) ExecuteWithRetry(ctx context.Context, name string, op func() error) error {
	b := &backoff.Backoff{Min: h.backoffBase, Max: h.backoffMax}

	var lastErr error
	for attempt := 1; attempt <= h.maxRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			h.retrySuccess.Add(1)
			return nil
		}

		h.recordRetry(name, attempt, lastErr)

		if attempt == h.maxRetryAttempts {
			break
		}

		delay := time.Duration(float64(b.Duration()) * (0.75 + rand.Float64()*0.5))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.retryExhausted.Add(1)
	return mcerrors.NewTransactionError(lastErr, mcerrors.ErrorCodeRetryExhausted, "retry attempts exhausted").
	WithOperation(name).
	WithRetryAttempt(h.maxRetryAttempts)
}

// AttemptRecovery dispatches kind to one of the six concrete recovery
// actions. SetContext must have been called first.
func (h *Handler) AttemptRecovery(ctx context.Context, kind Kind, ctxInfo string) error {
	if h.ctx == nil {
		return mcerrors.NewTransactionError(nil, mcerrors.ErrorCodeConfigurationInvalid, "recovery context not wired").
		WithOperation(string(kind))
	}

	var err error
	switch kind {
	case KindIO, KindConnection:
		err = automaticRetry(ctx, h, ctxInfo)
	case KindTransaction:
		err = transactionRollback(ctx, h.ctx, ctxInfo)
	case KindIndex:
		err = indexReconstruction(ctx, h.ctx)
	case KindMemory:
		err = memoryCleanup(ctx, h.ctx)
	case KindConfiguration:
		err = configurationReset(ctx, h.ctx)
	default:
		err = fileSystemCheck(ctx, h.ctx)
	}

	if err == nil {
		h.recoverySuccess.Add(1)
	} else {
		h.recoveryFailure.Add(1)
	}

	h.record(Event{
		Kind: kind, OperationContext: ctxInfo,
		RecoveryAttempted: true, Resolved: err == nil,
	})
	return err
}

// Statistics computes the statistics snapshot: per-kind counts,
// success rates, hourly error rate, most-common kind, trend, and a
// composite stability score.
func (h *Handler) Statistics() Stats {
	h.mu.Lock()
	history := append([]Event(nil), h.history...)
	h.mu.Unlock()

	counts := make(map[Kind]uint64, len(h.counts))
	var mostCommon Kind
	var mostCommonCount uint64
	for k, c := range h.counts {
		v := c.Load()
		counts[k] = v
		if v > mostCommonCount {
			mostCommonCount = v
			mostCommon = k
		}
	}

	cutoff := time.Now().Add(-time.Hour)
	recentCount := 0
	for _, e := range history {
		if e.Timestamp.After(cutoff) {
			recentCount++
		}
	}
	total := len(history)

	var recentRatio float64
	if total > 0 {
		recentRatio = float64(recentCount) / float64(total)
	}

	trend := TrendStable
	switch {
	case recentRatio > 0.7:
		trend = TrendCritical
	case recentRatio > 0.4:
		trend = TrendDegrading
	case recentRatio < 0.1:
		trend = TrendImproving
	}

	txRate := rate(h.txSuccess.Load(), h.txFailure.Load())
	rbRate := rate(h.rollbackSuccess.Load(), h.rollbackFailure.Load())
	retryRate := rate(h.retrySuccess.Load(), h.retryExhausted.Load())
	recoveryRate := rate(h.recoverySuccess.Load(), h.recoveryFailure.Load())

	errorsPerHour := float64(recentCount)
	stability := clamp01((txRate + rbRate + retryRate + recoveryRate + clamp01(1-min1(errorsPerHour/100))) / 5)

	return Stats{
		CountsByKind: counts,
		Total: h.total.Load(),
		TransactionSuccessRate: txRate,
		RollbackSuccessRate: rbRate,
		RetrySuccessRate: retryRate,
		RecoverySuccessRate: recoveryRate,
		ErrorsPerHour: errorsPerHour,
		MostCommon: mostCommon,
		Trend: trend,
		StabilityScore: stability,
	}
}

func (h *Handler) record(e Event) {
	e.Timestamp = time.Now()

	h.mu.Lock()
	h.history = append(h.history, e)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	h.mu.Unlock()

	if c, ok := h.counts[e.Kind]; ok {
		c.Add(1)
	}
	h.total.Add(1)
}

func (h *Handler) recordClassified(err error, opCtx string, recoveryAttempted bool) {
	h.record(Event{
		Kind: classify(err),
		Message: err.Error(),
		OperationContext: opCtx,
		RecoveryAttempted: recoveryAttempted,
	})
}

func (h *Handler) recordRetry(opCtx string, attempt int, err error) {
	h.record(Event{
		Kind: classify(err),
		Message: err.Error(),
		OperationContext: opCtx,
		RetryAttempt: attempt,
	})
}

func classify(err error) Kind {
	switch {
	case mcerrors.IsTransactionError(err):
		return KindTransaction
	case mcerrors.IsIndexError(err):
		return KindIndex
	case mcerrors.IsValidationError(err):
		return KindValidation
	case mcerrors.IsCacheError(err):
		return KindMemory
	case mcerrors.IsStorageError(err):
		return KindIO
	default:
		return KindUnknown
	}
}

func rate(success, failure uint64) float64 {
	total := success + failure
	if total == 0 {
		return 1
	}
	return float64(success) / float64(total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
