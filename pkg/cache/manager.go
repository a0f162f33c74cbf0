package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested entry was not found in the partition
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanBatch is the COUNT hint used for partition enumeration scans.
const scanBatch = 100

// Manager handles partitioned caching operations with Redis backend.
type Manager struct {
	redis  *redis.Client
	config Config
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client, cfg Config) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if cfg.Prefix == "" || cfg.Version == "" {
		panic("cache config requires prefix and version")
	}
	return &Manager{
		redis:  redisClient,
		config: cfg,
	}
}

// Config returns the cache configuration the manager was built with.
func (m *Manager) Config() Config {
	return m.config
}

// Get retrieves an entry from a partition.
// Returns ErrCacheMiss if no entry exists for the request key.
func (m *Manager) Get(ctx context.Context, partition, requestKey string) (*Entry, error) {
	data, err := m.redis.Get(ctx, entryKey(partition, requestKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(partition).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(partition).Inc()
	return &entry, nil
}

// Put stores an entry in a partition, overwriting any previous entry for the
// same request key. Entries carry no TTL: they live until their partition is
// deleted or an explicit clear runs.
func (m *Manager) Put(ctx context.Context, partition, requestKey string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, entryKey(partition, requestKey), data, 0).Err(); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrites.WithLabelValues(partition).Inc()
	CacheEntrySize.WithLabelValues(partition).Observe(float64(len(data)))
	return nil
}

// Delete removes a single entry from a partition.
func (m *Manager) Delete(ctx context.Context, partition, requestKey string) error {
	if err := m.redis.Del(ctx, entryKey(partition, requestKey)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Partitions enumerates the distinct partition names currently present under
// the configured prefix, sorted for determinism.
func (m *Manager) Partitions(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	iter := m.redis.Scan(ctx, 0, m.config.Prefix+"-*", scanBatch).Iterator()
	for iter.Next(ctx) {
		if name := partitionOf(iter.Val()); name != "" {
			seen[name] = struct{}{}
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("redis scan: %w", err)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeletePartition removes every entry belonging to the named partition.
func (m *Manager) DeletePartition(ctx context.Context, partition string) error {
	return m.deleteMatching(ctx, partition+keySeparator+"*")
}

// DeleteAll removes every partition owned by the configured prefix.
// The favorites store is not touched: it lives outside the cache manager.
func (m *Manager) DeleteAll(ctx context.Context) error {
	return m.deleteMatching(ctx, m.config.Prefix+"-*")
}

// deleteMatching scans and deletes all keys matching the pattern.
func (m *Manager) deleteMatching(ctx context.Context, pattern string) error {
	iter := m.redis.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		if err := m.redis.Del(ctx, iter.Val()).Err(); err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
