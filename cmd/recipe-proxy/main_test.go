package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/savorly/recipe-proxy/internal/testutil"
	"github.com/savorly/recipe-proxy/pkg/cache"
	"github.com/savorly/recipe-proxy/pkg/favorites"
	"github.com/savorly/recipe-proxy/pkg/lifecycle"
	"github.com/savorly/recipe-proxy/pkg/mealdb"
	"github.com/savorly/recipe-proxy/pkg/strategy"
)

// memStore is an in-memory stand-in for the Redis-backed cache manager.
type memStore struct {
	mu      sync.Mutex
	entries map[string]map[string]*cache.Entry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]map[string]*cache.Entry)}
}

func (s *memStore) Get(ctx context.Context, partition, requestKey string) (*cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[partition][requestKey]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return entry, nil
}

func (s *memStore) Put(ctx context.Context, partition, requestKey string, entry *cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[partition] == nil {
		s.entries[partition] = make(map[string]*cache.Entry)
	}
	s.entries[partition][requestKey] = entry
	return nil
}

func (s *memStore) Partitions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memStore) DeletePartition(ctx context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, partition)
	return nil
}

func (s *memStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]map[string]*cache.Entry)
	return nil
}

func (s *memStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, partition := range s.entries {
		total += len(partition)
	}
	return total
}

type testEnv struct {
	router   http.Handler
	upstream *testutil.MockUpstream
	store    *memStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	upstream := testutil.NewMockUpstream()
	t.Cleanup(upstream.Close)

	client, err := mealdb.New(mealdb.Config{
		BaseURL:    upstream.URL(),
		APIKey:     "1",
		MaxRetries: 1,
	}, nil)
	if err != nil {
		t.Fatalf("mealdb.New failed: %v", err)
	}

	store := newMemStore()
	names := cache.Config{Prefix: "recipe-finder", Version: "v2"}.Names()
	logger := zerolog.Nop()

	interceptor := strategy.New(store, names, &upstreamFetcher{client: client}, strategy.DefaultConfig(), logger)
	controller := lifecycle.New(store, names, http.DefaultClient, lifecycle.Config{BaseURL: "http://localhost:0"}, logger)

	favStore := favorites.NewStore(filepath.Join(t.TempDir(), "favorites.db"), logger)
	t.Cleanup(func() { favStore.Close() })

	return &testEnv{
		router: newRouter(&server{
			interceptor: interceptor,
			lifecycle:   controller,
			favorites:   favStore,
			logger:      logger,
		}),
		upstream: upstream,
		store:    store,
	}
}

func (e *testEnv) do(method, target string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("status = %s, want ok", payload["status"])
	}
	if payload["timestamp"] == "" {
		t.Error("timestamp missing")
	}
}

func TestSearchRelaysUpstream(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetHandler("/1/search.php", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("s"); got != "pasta" {
			t.Errorf("upstream query s = %q, want pasta", got)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"meals": [{"idMeal": "52771", "strMeal": "Spicy Arrabiata Penne"}]}`))
	})

	rec := env.do(http.MethodGet, "/api/search?s=pasta", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Spicy Arrabiata Penne") {
		t.Errorf("body does not contain upstream payload: %s", rec.Body.String())
	}
}

func TestMealLookupMapsIDToUpstream(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetHandler("/1/lookup.php", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("i"); got != "52771" {
			t.Errorf("upstream query i = %q, want 52771", got)
		}
		w.Write([]byte(`{"meals": [{"idMeal": "52771"}]}`))
	})

	rec := env.do(http.MethodGet, "/api/meal/52771", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSearchServedFromCacheWhenUpstreamDown(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetResponse("/1/search.php", testutil.NewMealResponse("52771", "Spicy Arrabiata Penne"))

	first := env.do(http.MethodGet, "/api/search?s=pasta", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}

	env.upstream.Close()

	second := env.do(http.MethodGet, "/api/search?s=pasta", nil)
	if second.Code != http.StatusOK {
		t.Fatalf("offline status = %d, want 200 from cache", second.Code)
	}
	if !strings.Contains(second.Body.String(), "Spicy Arrabiata Penne") {
		t.Errorf("cached body mismatch: %s", second.Body.String())
	}
}

func TestSearchUnavailableWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.Close()

	rec := env.do(http.MethodGet, "/api/search?s=pasta", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestUpstreamErrorStatusRelayedUncached(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SetResponse("/1/categories.php", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "not found"}`,
	})

	rec := env.do(http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 relayed", rec.Code)
	}
	if env.store.size() != 0 {
		t.Errorf("error response was cached, store size = %d", env.store.size())
	}
}

func TestClearCacheMessage(t *testing.T) {
	env := newTestEnv(t)
	env.store.Put(context.Background(), "recipe-finder-runtime-v2", "/api/search", &cache.Entry{Data: []byte("x"), StatusCode: 200})
	env.do(http.MethodPut, "/favorites/52771", []byte(`{"idMeal": "52771", "strMeal": "Penne"}`))

	rec := env.do(http.MethodPost, "/cache/clear", []byte(`{"type": "CLEAR_CACHE"}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if env.store.size() != 0 {
		t.Errorf("store size = %d after clear, want 0", env.store.size())
	}

	// Clearing caches must not touch favorites.
	rec = env.do(http.MethodGet, "/favorites/52771", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("favorite lost after cache clear, status = %d", rec.Code)
	}
}

func TestClearCacheUnknownTypeIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.store.Put(context.Background(), "recipe-finder-runtime-v2", "/api/search", &cache.Entry{Data: []byte("x"), StatusCode: 200})

	rec := env.do(http.MethodPost, "/cache/clear", []byte(`{"type": "SKIP_WAITING"}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if env.store.size() != 1 {
		t.Errorf("unknown message type must not clear the cache")
	}
}

func TestClearCacheInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/cache/clear", []byte(`not json`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFavoritesCRUD(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"idMeal": "52771", "strMeal": "Spicy Arrabiata Penne", "strCategory": "Pasta"}`)
	rec := env.do(http.MethodPut, "/favorites/52771", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/favorites/52771", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var fav favorites.Favorite
	if err := json.Unmarshal(rec.Body.Bytes(), &fav); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if fav.Name != "Spicy Arrabiata Penne" {
		t.Errorf("Name = %s", fav.Name)
	}

	rec = env.do(http.MethodGet, "/favorites/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var favs []favorites.Favorite
	if err := json.Unmarshal(rec.Body.Bytes(), &favs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(favs) != 1 {
		t.Fatalf("len = %d, want 1", len(favs))
	}

	rec = env.do(http.MethodDelete, "/favorites/52771", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = env.do(http.MethodGet, "/favorites/52771", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestFavoriteIDMismatchRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/favorites/1", []byte(`{"idMeal": "2"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestClearFavorites(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodPut, "/favorites/1", []byte(`{"idMeal": "1", "strMeal": "A"}`))
	env.do(http.MethodPut, "/favorites/2", []byte(`{"idMeal": "2", "strMeal": "B"}`))

	rec := env.do(http.MethodDelete, "/favorites/", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", rec.Code)
	}

	rec = env.do(http.MethodGet, "/favorites/", nil)
	var favs []favorites.Favorite
	if err := json.Unmarshal(rec.Body.Bytes(), &favs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(favs) != 0 {
		t.Errorf("len = %d after clear, want 0", len(favs))
	}
}
