package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by partition
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_hits_total",
			Help: "Total number of cache hits by partition",
		},
		[]string{"partition"},
	)

	// CacheMisses tracks cache misses by partition
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_misses_total",
			Help: "Total number of cache misses by partition",
		},
		[]string{"partition"},
	)

	// CacheWrites tracks entries written by partition
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_writes_total",
			Help: "Total number of cache entries written by partition",
		},
		[]string{"partition"},
	)

	// CacheEntrySize observes the serialized size of written entries
	CacheEntrySize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_cache_entry_size_bytes",
			Help:    "Serialized size of cache entries in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"partition"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "scan"
	)
)
