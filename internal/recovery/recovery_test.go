package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/mediacat/internal/cache"
	mcerrors "github.com/iamNilotpal/mediacat/pkg/errors"
)

func testHandler() *Handler {
	return New(Config{
		BackoffBase:      time.Millisecond,
		BackoffMax:       10 * time.Millisecond,
		MaxRetryAttempts: 3,
		HistorySize:      50,
	}, nil)
}

func TestExecuteTransactionSuccess(t *testing.T) {
	h := testHandler()
	err := h.ExecuteTransaction(context.Background(), uuid.New(), func() error { return nil })
	require.NoError(t, err)

	stats := h.Statistics()
	assert.InDelta(t, 1.0, stats.TransactionSuccessRate, 0.0001)
}

func TestExecuteTransactionFailureRollsBack(t *testing.T) {
	h := testHandler()
	cause := errors.New("disk full")
	err := h.ExecuteTransaction(context.Background(), uuid.New(), func() error { return cause })
	require.Error(t, err)

	te, ok := mcerrors.AsTransactionError(err)
	require.True(t, ok)
	assert.True(t, te.RolledBack())
}

func TestExecuteWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	h := testHandler()
	attempts := 0
	err := h.ExecuteWithRetry(context.Background(), "flush", func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestExecuteWithRetryExhausted(t *testing.T) {
	h := testHandler()
	err := h.ExecuteWithRetry(context.Background(), "flush", func() error {
		return errors.New("permanent")
	})

	require.Error(t, err)
	te, ok := mcerrors.AsTransactionError(err)
	require.True(t, ok)
	assert.Equal(t, mcerrors.ErrorCodeRetryExhausted, te.Code())
}

func TestExecuteWithRetryRespectsContextCancellation(t *testing.T) {
	h := testHandler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.ExecuteWithRetry(ctx, "flush", func() error {
		return errors.New("should not matter")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttemptRecoveryWithoutContextFails(t *testing.T) {
	h := testHandler()
	err := h.AttemptRecovery(context.Background(), KindMemory, "test")
	assert.Error(t, err)
}

func TestAttemptRecoveryDispatchesMemoryCleanup(t *testing.T) {
	h := testHandler()
	caches := cache.NewManager(cache.Config{MaxEntries: 100, MaxBytes: 1 << 20})
	h.SetContext(&Context{Caches: caches})

	err := h.AttemptRecovery(context.Background(), KindMemory, "pressure")
	require.NoError(t, err)
}

func TestStatisticsComputesMostCommonKind(t *testing.T) {
	h := testHandler()
	h.recordClassified(errors.New("boom"), "op1", false)
	h.recordClassified(errors.New("boom"), "op2", false)

	stats := h.Statistics()
	assert.Equal(t, KindUnknown, stats.MostCommon)
	assert.EqualValues(t, 2, stats.Total)
}

func TestClassifyMapsErrorTypes(t *testing.T) {
	assert.Equal(t, KindTransaction, classify(mcerrors.NewTransactionError(nil, mcerrors.ErrorCodeTransactionAborted, "x")))
	assert.Equal(t, KindIndex, classify(mcerrors.NewIndexError(nil, mcerrors.ErrorCodeIndexCorrupted, "x")))
	assert.Equal(t, KindMemory, classify(mcerrors.NewCacheError(nil, mcerrors.ErrorCodeCacheCapacityExceeded, "x")))
	assert.Equal(t, KindIO, classify(mcerrors.NewStorageError(nil, mcerrors.ErrorCodeIO, "x")))
	assert.Equal(t, KindUnknown, classify(errors.New("plain")))
}

func TestRateHandlesNoObservations(t *testing.T) {
	assert.Equal(t, 1.0, rate(0, 0))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}
