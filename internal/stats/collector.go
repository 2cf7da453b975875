// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Pipeline metrics.
	MetricArchivesDecoded  = "wordmap_archives_decoded_total"
	MetricArchivesEncoded  = "wordmap_archives_encoded_total"
	MetricBlocksDecoded    = "wordmap_blocks_decoded_total"
	MetricBlocksEncoded    = "wordmap_blocks_encoded_total"
	MetricEntriesExtracted = "wordmap_entries_extracted_total"
	MetricEntriesReplaced  = "wordmap_entries_replaced_total"
	MetricTruncatedTables  = "wordmap_truncated_tables_total"
	MetricDuplicateIDs     = "wordmap_duplicate_ids_total"
	MetricArchiveBytes     = "wordmap_archive_bytes"

	// Translation metrics.
	MetricBatchesTranslated = "wordmap_translate_batches_total"
	MetricBatchesFailed     = "wordmap_translate_batches_failed_total"

	// Cache metrics.
	MetricCacheHits   = "wordmap_cache_hits_total"
	MetricCacheMisses = "wordmap_cache_misses_total"
	MetricCacheSize   = "wordmap_cache_size"
)

var help = map[string]string{
	MetricArchivesDecoded:   "Archives decoded.",
	MetricArchivesEncoded:   "Archives encoded.",
	MetricBlocksDecoded:     "Container blocks decompressed.",
	MetricBlocksEncoded:     "Container blocks compressed.",
	MetricEntriesExtracted:  "String table entries extracted.",
	MetricEntriesReplaced:   "String table entries replaced on repack.",
	MetricTruncatedTables:   "String tables whose entry table ended early.",
	MetricDuplicateIDs:      "Entry ids seen more than once.",
	MetricArchiveBytes:      "Size of archives read or written, in bytes.",
	MetricBatchesTranslated: "Translation batches merged.",
	MetricBatchesFailed:     "Translation batches skipped after retries.",
	MetricCacheHits:         "Store cache hits.",
	MetricCacheMisses:       "Store cache misses.",
	MetricCacheSize:         "Objects held in the store cache.",
}

// Help returns the description of a metric, or its name if it has none.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
