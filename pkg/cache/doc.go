// Package cache provides partitioned HTTP response caching with Redis backend.
//
// The cache is organized into named, versioned partitions following the
// naming scheme {prefix}-{role}-{version}, with one partition per role:
//
//   - precache: application shell assets populated at install time
//   - runtime:  API and document responses captured at runtime
//   - images:   image responses refreshed in the background
//
// Entries carry no TTL. They live until their partition is deleted by
// lifecycle activation cleanup or an explicit clear-all operation. Writes
// are whole-entry overwrites, so concurrent writers for the same request
// key race safely (last writer wins).
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager with an explicit version
//	manager := cache.NewManager(redisClient, cache.Config{
//		Prefix:  "recipe-finder",
//		Version: "v2",
//	})
//
//	names := manager.Config().Names()
//
//	// Get from cache
//	entry, err := manager.Get(ctx, names.Runtime, "/api/search?s=pasta")
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from network
//	}
//
// # HTTP Response Caching
//
//	// Convert HTTP response to cache entry (only successful responses)
//	if cache.Cacheable(resp) {
//		entry, err := cache.ResponseToEntry(resp)
//		if err != nil {
//			return err
//		}
//		if err := manager.Put(ctx, names.Runtime, cache.RequestKey(req), entry); err != nil {
//			return err
//		}
//	}
//
// # Partition Maintenance
//
//	// Enumerate partitions and evict stale generations
//	partitions, err := manager.Partitions(ctx)
//	for _, name := range partitions {
//		if !names.Expected(name) {
//			manager.DeletePartition(ctx, name)
//		}
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - recipe_cache_hits_total{partition} - Cache hits
//   - recipe_cache_misses_total{partition} - Cache misses
//   - recipe_cache_writes_total{partition} - Entries written
//   - recipe_cache_entry_size_bytes{partition} - Entry sizes
//   - recipe_cache_errors_total{operation} - Cache operation errors
package cache
