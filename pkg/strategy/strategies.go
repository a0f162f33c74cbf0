package strategy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/savorly/recipe-proxy/pkg/cache"
)

// revalidateTimeout bounds background refresh fetches, which are detached
// from the originating request's context.
const revalidateTimeout = 30 * time.Second

// outbound prepares an intercepted request for re-issue through the fetcher.
// Requests arriving through a server handler carry a RequestURI, which client
// transports reject on outgoing requests.
func outbound(ctx context.Context, req *http.Request) *http.Request {
	fresh := req.Clone(ctx)
	fresh.RequestURI = ""
	return fresh
}

// networkFirst prefers the live network response and falls back to the
// runtime partition. Failed document fetches with no cached copy degrade to
// the precached offline fallback document.
func (i *Interceptor) networkFirst(ctx context.Context, req *http.Request, document bool) *http.Response {
	key := cache.RequestKey(req)

	resp, err := i.fetcher.Do(outbound(ctx, req))
	if err == nil {
		i.store(ctx, i.names.Runtime, key, resp)
		strategyExecutions.WithLabelValues("network_first", "network").Inc()
		return resp
	}

	i.logger.Debug().
		Err(err).
		Str("url", req.URL.String()).
		Msg("Network fetch failed, consulting runtime cache")

	if entry, cacheErr := i.cache.Get(ctx, i.names.Runtime, key); cacheErr == nil {
		strategyExecutions.WithLabelValues("network_first", "cache").Inc()
		return cache.EntryToResponse(entry)
	}

	if document {
		if entry, cacheErr := i.cache.Get(ctx, i.names.Precache, i.offline); cacheErr == nil {
			strategyExecutions.WithLabelValues("network_first", "fallback").Inc()
			return cache.EntryToResponse(entry)
		}
	}

	strategyExecutions.WithLabelValues("network_first", "unavailable").Inc()
	return unavailable()
}

// staleWhileRevalidate serves a cached image immediately when present and
// refreshes the entry in the background. Refresh failures are swallowed.
func (i *Interceptor) staleWhileRevalidate(ctx context.Context, req *http.Request) *http.Response {
	key := cache.RequestKey(req)

	if entry, err := i.cache.Get(ctx, i.names.Images, key); err == nil {
		i.background.Add(1)
		go func() {
			defer i.background.Done()
			i.revalidate(req, key)
		}()
		strategyExecutions.WithLabelValues("stale_while_revalidate", "cache").Inc()
		return cache.EntryToResponse(entry)
	}

	resp, err := i.fetcher.Do(outbound(ctx, req))
	if err != nil {
		strategyExecutions.WithLabelValues("stale_while_revalidate", "unavailable").Inc()
		return unavailable()
	}

	i.store(ctx, i.names.Images, key, resp)
	strategyExecutions.WithLabelValues("stale_while_revalidate", "network").Inc()
	return resp
}

// cacheFirst serves precached assets without touching the network, fetching
// and precaching only on a miss.
func (i *Interceptor) cacheFirst(ctx context.Context, req *http.Request) *http.Response {
	key := cache.RequestKey(req)

	if entry, err := i.cache.Get(ctx, i.names.Precache, key); err == nil {
		strategyExecutions.WithLabelValues("cache_first", "cache").Inc()
		return cache.EntryToResponse(entry)
	}

	resp, err := i.fetcher.Do(outbound(ctx, req))
	if err != nil {
		strategyExecutions.WithLabelValues("cache_first", "unavailable").Inc()
		return unavailable()
	}

	i.store(ctx, i.names.Precache, key, resp)
	strategyExecutions.WithLabelValues("cache_first", "network").Inc()
	return resp
}

// revalidate re-fetches an image and refreshes its cache entry. It runs
// detached from the request that triggered it; the page may be gone by the
// time it completes, which is fine.
func (i *Interceptor) revalidate(req *http.Request, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
	defer cancel()

	fresh := outbound(ctx, req)
	fresh.Body = nil

	resp, err := i.fetcher.Do(fresh)
	if err != nil {
		i.logger.Debug().
			Err(err).
			Str("url", req.URL.String()).
			Msg("Background revalidation failed")
		revalidations.WithLabelValues("error").Inc()
		return
	}
	defer resp.Body.Close()

	i.store(ctx, i.names.Images, key, resp)
	revalidations.WithLabelValues("ok").Inc()
}

// store captures a successful response into a partition. Failures are logged
// and never surfaced: a cache write must not mask a live response.
func (i *Interceptor) store(ctx context.Context, partition, key string, resp *http.Response) {
	if !cache.Cacheable(resp) {
		return
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		i.logger.Warn().Err(err).Str("partition", partition).Msg("Failed to capture response")
		return
	}

	if err := i.cache.Put(ctx, partition, key, entry); err != nil {
		i.logger.Warn().Err(err).Str("partition", partition).Msg("Failed to cache response")
	}
}

// unavailable builds the synthetic service-unavailable response returned
// when neither network nor cache can serve a request.
func unavailable() *http.Response {
	body := []byte("Service unavailable: no network and no cached copy")
	return &http.Response{
		StatusCode: http.StatusServiceUnavailable,
		Status:     http.StatusText(http.StatusServiceUnavailable),
		Header: http.Header{
			"Content-Type": []string{"text/plain; charset=utf-8"},
		},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
