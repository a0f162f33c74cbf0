// Package metrics provides the centralized Prometheus metrics registry for
// the recipe proxy. All metrics are defined in their respective packages
// (cache, strategy, lifecycle, mealdb) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the recipe proxy.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - recipe_cache_hits_total{partition} (Counter): Cache hits by partition
//   - recipe_cache_misses_total{partition} (Counter): Cache misses by partition
//   - recipe_cache_writes_total{partition} (Counter): Entries written by partition
//   - recipe_cache_entry_size_bytes{partition} (Histogram): Serialized entry sizes
//   - recipe_cache_errors_total{operation} (Counter): Cache operation errors
//
// Strategy Metrics (pkg/strategy):
//   - recipe_strategy_executions_total{strategy, outcome} (Counter): Strategy
//     dispatches by outcome (network, cache, fallback, unavailable)
//   - recipe_revalidations_total{result} (Counter): Background image refreshes
//
// Lifecycle Metrics (pkg/lifecycle):
//   - recipe_lifecycle_installs_total{result} (Counter): Install attempts
//   - recipe_lifecycle_partition_evictions_total (Counter): Stale partitions evicted
//
// Upstream Metrics (pkg/mealdb):
//   - recipe_upstream_requests_total{endpoint, status} (Counter): Upstream requests
//   - recipe_upstream_request_duration_seconds{endpoint} (Histogram): Request duration
//   - recipe_upstream_errors_total{class} (Counter): Errors by class
//   - recipe_upstream_retries_total{error_class} (Counter): Retry attempts
//   - recipe_upstream_retry_exhausted_total{error_class} (Counter): Exhausted retries
//   - recipe_upstream_memo_hits_total (Counter): Response memo hits
//   - recipe_upstream_memo_misses_total (Counter): Response memo misses
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(recipe_cache_hits_total[5m])) /
//   (sum(rate(recipe_cache_hits_total[5m])) + sum(rate(recipe_cache_misses_total[5m])))
//
//   # Offline Fallback Rate
//   rate(recipe_strategy_executions_total{outcome="fallback"}[5m])
//
//   # Upstream Error Rate
//   rate(recipe_upstream_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(recipe_upstream_request_duration_seconds_bucket[5m]))
