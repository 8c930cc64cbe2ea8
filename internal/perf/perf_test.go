package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordBatchUpdatesThroughputAndTotals(t *testing.T) {
	tr := New(0)
	tr.RecordBatch(10, 10, time.Millisecond, true)

	assert.Greater(t, tr.CurrentThroughput(), 0.0)
	assert.EqualValues(t, 10, tr.TotalFiles())

	success, failure := tr.BatchOutcomes()
	assert.EqualValues(t, 1, success)
	assert.EqualValues(t, 0, failure)
}

func TestRecordBatchTracksFailures(t *testing.T) {
	tr := New(0)
	tr.RecordBatch(5, 5, time.Millisecond, false)

	success, failure := tr.BatchOutcomes()
	assert.EqualValues(t, 0, success)
	assert.EqualValues(t, 1, failure)
}

func TestMemoryEfficiencyNoAllocationsIsOne(t *testing.T) {
	tr := New(0)
	assert.Equal(t, 1.0, tr.MemoryEfficiency())
}

func TestMemoryEfficiencyTracksRetainedFraction(t *testing.T) {
	tr := New(0)
	tr.RecordMemory(100, 40)
	assert.InDelta(t, 0.6, tr.MemoryEfficiency(), 0.0001)
}

func TestMemoryEfficiencyClampsToZero(t *testing.T) {
	tr := New(0)
	tr.RecordMemory(100, 500)
	assert.Equal(t, 0.0, tr.MemoryEfficiency())
}

func TestCacheHitRateNoObservationsIsZero(t *testing.T) {
	tr := New(0)
	assert.Equal(t, 0.0, tr.CacheHitRate())
}

func TestCacheHitRateComputesRatio(t *testing.T) {
	tr := New(0)
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheHit()
	tr.RecordCacheMiss()

	assert.InDelta(t, 0.75, tr.CacheHitRate(), 0.0001)
}

func TestWindowPrunesByMaxCount(t *testing.T) {
	tr := New(3)
	for i := 0; i < 10; i++ {
		tr.RecordBatch(1, 1, time.Microsecond, true)
	}
	assert.LessOrEqual(t, len(tr.window), 3)
}

func TestDefaultWindowMaxAppliedForNonPositive(t *testing.T) {
	tr := New(-5)
	assert.Equal(t, 256, tr.windowMax)
}
