// Package lifecycle manages the install/activate/version-migration cycle of
// the cache partitions: precache population at install, stale partition
// eviction at activation, and the cache-clearing control channel.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/savorly/recipe-proxy/pkg/cache"
)

// State is the lifecycle controller's position in the install/activate cycle.
type State string

const (
	StateUninstalled State = "uninstalled"
	StateInstalling  State = "installing"
	StateInstalled   State = "installed"
	StateActivating  State = "activating"
	StateActive      State = "active"
)

// ErrInvalidTransition is returned when Install or Activate is called from
// the wrong state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Fetcher performs a network fetch. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Cache is the partition store managed across lifecycle transitions.
// *cache.Manager satisfies it.
type Cache interface {
	Put(ctx context.Context, partition, requestKey string, entry *cache.Entry) error
	Partitions(ctx context.Context) ([]string, error)
	DeletePartition(ctx context.Context, partition string) error
	DeleteAll(ctx context.Context) error
}

// DefaultManifest is the fixed set of shell resources precached at install:
// root document, index document, manifest file, offline fallback document.
func DefaultManifest() []string {
	return []string{"/", "/index.html", "/manifest.json", "/offline.html"}
}

// Config holds controller configuration.
type Config struct {
	// BaseURL is the origin the shell manifest is fetched from
	BaseURL string

	// Manifest lists the shell paths precached at install.
	// Defaults to DefaultManifest when empty.
	Manifest []string
}

// Controller drives cache partitions through install and activate.
type Controller struct {
	cache    Cache
	names    cache.Names
	fetcher  Fetcher
	baseURL  string
	manifest []string
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates a lifecycle controller in the uninstalled state.
func New(store Cache, names cache.Names, fetcher Fetcher, cfg Config, logger zerolog.Logger) *Controller {
	if store == nil {
		panic("cache cannot be nil")
	}
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	manifest := cfg.Manifest
	if len(manifest) == 0 {
		manifest = DefaultManifest()
	}
	return &Controller{
		cache:    store,
		names:    names,
		fetcher:  fetcher,
		baseURL:  cfg.BaseURL,
		manifest: manifest,
		logger:   logger,
		state:    StateUninstalled,
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) transition(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return fmt.Errorf("%w: %s -> %s (current: %s)", ErrInvalidTransition, from, to, c.state)
	}
	c.state = to
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Install populates the precache partition with the shell manifest.
// The step is all-or-nothing: every manifest resource is fetched before a
// single write happens, and any fetch or write failure aborts the install
// with no partial shell committed. A failed install returns the controller
// to the uninstalled state so the host can retry.
//
// On success the controller is immediately promotable; it never waits for a
// previous instance to wind down.
func (c *Controller) Install(ctx context.Context) error {
	if err := c.transition(StateUninstalled, StateInstalling); err != nil {
		return err
	}

	entries, err := c.fetchManifest(ctx)
	if err != nil {
		c.setState(StateUninstalled)
		installsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("precache population: %w", err)
	}

	for path, entry := range entries {
		if err := c.cache.Put(ctx, c.names.Precache, path, entry); err != nil {
			// Roll back so no partial shell survives
			if delErr := c.cache.DeletePartition(ctx, c.names.Precache); delErr != nil {
				c.logger.Error().Err(delErr).Msg("Failed to roll back partial precache")
			}
			c.setState(StateUninstalled)
			installsTotal.WithLabelValues("failure").Inc()
			return fmt.Errorf("precache write %s: %w", path, err)
		}
	}

	c.setState(StateInstalled)
	installsTotal.WithLabelValues("success").Inc()
	c.logger.Info().
		Str("partition", c.names.Precache).
		Int("resources", len(entries)).
		Msg("Install complete")
	return nil
}

// fetchManifest fetches every shell resource, failing fast on the first
// error or non-success status.
func (c *Controller) fetchManifest(ctx context.Context) (map[string]*cache.Entry, error) {
	entries := make(map[string]*cache.Entry, len(c.manifest))

	for _, path := range c.manifest {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build request %s: %w", path, err)
		}

		resp, err := c.fetcher.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}

		if !cache.Cacheable(resp) {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
		}

		entry, err := cache.ResponseToEntry(resp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", path, err)
		}
		entries[path] = entry
	}

	return entries, nil
}

// Activate evicts every partition under the configured prefix that is not
// part of the active set, then takes effect immediately (callers never wait
// for a reload). Eviction failures are logged and never block activation.
func (c *Controller) Activate(ctx context.Context) error {
	if err := c.transition(StateInstalled, StateActivating); err != nil {
		return err
	}

	partitions, err := c.cache.Partitions(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Partition enumeration failed during activation")
	}

	for _, name := range partitions {
		if c.names.Expected(name) {
			continue
		}
		if err := c.cache.DeletePartition(ctx, name); err != nil {
			c.logger.Warn().Err(err).Str("partition", name).Msg("Failed to evict stale partition")
			continue
		}
		partitionEvictions.Inc()
		c.logger.Info().Str("partition", name).Msg("Evicted stale partition")
	}

	c.setState(StateActive)
	c.logger.Info().
		Str("precache", c.names.Precache).
		Str("runtime", c.names.Runtime).
		Str("images", c.names.Images).
		Msg("Activation complete")
	return nil
}
