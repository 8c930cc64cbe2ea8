package perf

import "github.com/prometheus/client_golang/prometheus"

// collectorDescs holds the metric descriptors Collect emits on every scrape.
var (
	descThroughput = prometheus.NewDesc(
		"mediacat_throughput_files_per_second", "Current bulk-ingest throughput in files/sec.", nil, nil,
	)
	descTotalFiles = prometheus.NewDesc(
		"mediacat_total_files_processed", "Cumulative files processed across all batches.", nil, nil,
	)
	descMemoryEfficiency = prometheus.NewDesc(
		"mediacat_memory_efficiency_ratio", "Fraction of allocated memory currently retained, clamped to [0,1].", nil, nil,
	)
	descCacheHitRate = prometheus.NewDesc(
		"mediacat_cache_hit_rate", "Cache hit rate across all index caches.", nil, nil,
	)
	descBatchOutcomes = prometheus.NewDesc(
		"mediacat_batch_outcomes_total", "Cumulative batch outcomes by result.", []string{"result"}, nil,
	)
)

// collector mirrors Tracker's atomics as a read-only prometheus.Collector.
// It takes no additional locks: every value it reads is already safe for
// lock-free concurrent access, so registering it with a Registry adds no
// contention to the hot path.
type collector struct {
	t *Tracker
}

// Collector returns a prometheus.Collector view over t, for an embedding
// front-end to register with its own prometheus.Registry. This mirror is
// optional and not the authoritative source of truth — Tracker's own
// methods are.
func (t *Tracker) Collector() prometheus.Collector {
	return &collector{t: t}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descThroughput
	ch <- descTotalFiles
	ch <- descMemoryEfficiency
	ch <- descCacheHitRate
	ch <- descBatchOutcomes
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descThroughput, prometheus.GaugeValue, c.t.CurrentThroughput())
	ch <- prometheus.MustNewConstMetric(descTotalFiles, prometheus.CounterValue, float64(c.t.TotalFiles()))
	ch <- prometheus.MustNewConstMetric(descMemoryEfficiency, prometheus.GaugeValue, c.t.MemoryEfficiency())
	ch <- prometheus.MustNewConstMetric(descCacheHitRate, prometheus.GaugeValue, c.t.CacheHitRate())

	success, failure := c.t.BatchOutcomes()
	ch <- prometheus.MustNewConstMetric(descBatchOutcomes, prometheus.CounterValue, float64(success), "success")
	ch <- prometheus.MustNewConstMetric(descBatchOutcomes, prometheus.CounterValue, float64(failure), "failure")
}
