// Package strategy implements the fetch interceptor: every outgoing request
// is classified and dispatched to exactly one caching strategy backed by the
// partitioned response cache.
package strategy

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/savorly/recipe-proxy/pkg/cache"
)

// Fetcher performs a network fetch. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Cache is the partition store consulted and updated by the strategies.
// *cache.Manager satisfies it.
type Cache interface {
	Get(ctx context.Context, partition, requestKey string) (*cache.Entry, error)
	Put(ctx context.Context, partition, requestKey string, entry *cache.Entry) error
}

// Config holds interceptor configuration.
type Config struct {
	// APIPrefix is the path namespace routed through Network-First (e.g. "/api")
	APIPrefix string

	// Origin is the host considered same-origin. Relative requests always
	// qualify; absolute requests qualify only when the host matches.
	Origin string

	// OfflinePath is the precached fallback document served to failed
	// document fetches (e.g. "/offline.html")
	OfflinePath string
}

// DefaultConfig returns interceptor defaults matching the application shell.
func DefaultConfig() Config {
	return Config{
		APIPrefix:   "/api",
		OfflinePath: "/offline.html",
	}
}

// Interceptor classifies intercepted requests and applies caching strategies.
type Interceptor struct {
	cache     Cache
	names     cache.Names
	fetcher   Fetcher
	apiPrefix string
	origin    string
	offline   string
	logger    zerolog.Logger

	background sync.WaitGroup
}

// New creates a fetch interceptor over the given cache and fetcher.
func New(store Cache, names cache.Names, fetcher Fetcher, cfg Config, logger zerolog.Logger) *Interceptor {
	if store == nil {
		panic("cache cannot be nil")
	}
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	if cfg.OfflinePath == "" {
		cfg.OfflinePath = "/offline.html"
	}
	return &Interceptor{
		cache:     store,
		names:     names,
		fetcher:   fetcher,
		apiPrefix: cfg.APIPrefix,
		origin:    cfg.Origin,
		offline:   cfg.OfflinePath,
		logger:    logger,
	}
}

// Intercepts reports whether a request is handled by a caching strategy.
// Only read-only same-origin requests are intercepted; everything else
// passes through the network untouched. Cross-origin and mutating requests
// are never cached or rewritten.
func (i *Interceptor) Intercepts(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if req.URL.Host != "" && req.URL.Host != i.origin {
		return false
	}
	return true
}

// Handle dispatches a request to its strategy and always returns a usable
// response for intercepted requests: live, cached, fallback document, or a
// synthetic unavailable response. Non-intercepted requests pass through
// natively, including their transport errors.
func (i *Interceptor) Handle(ctx context.Context, req *http.Request) (*http.Response, error) {
	if !i.Intercepts(req) {
		strategyExecutions.WithLabelValues("passthrough", "network").Inc()
		return i.fetcher.Do(outbound(ctx, req))
	}

	switch class := i.Classify(req); class {
	case ClassAPI:
		return i.networkFirst(ctx, req, false), nil
	case ClassImage:
		return i.staleWhileRevalidate(ctx, req), nil
	case ClassAsset:
		return i.cacheFirst(ctx, req), nil
	default:
		return i.networkFirst(ctx, req, true), nil
	}
}

// Drain blocks until all in-flight background revalidations finish.
// Intended for graceful shutdown and tests.
func (i *Interceptor) Drain() {
	i.background.Wait()
}
