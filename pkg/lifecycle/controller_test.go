package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/savorly/recipe-proxy/pkg/cache"
)

// fakeStore is an in-memory Cache used to exercise lifecycle transitions
// without Redis.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]map[string]*cache.Entry
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]map[string]*cache.Entry)}
}

func (s *fakeStore) Put(_ context.Context, partition, requestKey string, entry *cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	if s.entries[partition] == nil {
		s.entries[partition] = make(map[string]*cache.Entry)
	}
	s.entries[partition][requestKey] = entry
	return nil
}

func (s *fakeStore) Partitions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStore) DeletePartition(_ context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, partition)
	return nil
}

func (s *fakeStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]map[string]*cache.Entry)
	return nil
}

func (s *fakeStore) seed(partition, requestKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[partition] == nil {
		s.entries[partition] = make(map[string]*cache.Entry)
	}
	s.entries[partition][requestKey] = &cache.Entry{Data: []byte("x"), StatusCode: 200}
}

func (s *fakeStore) count(partition string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[partition])
}

// newShellServer serves the default shell manifest, optionally failing
// specific paths with the given status.
func newShellServer(failures map[string]int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, failed := failures[r.URL.Path]; failed {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>" + r.URL.Path + "</html>"))
	}))
}

func testNames() cache.Names {
	return cache.Config{Prefix: "recipe-finder", Version: "v2"}.Names()
}

func newTestController(store Cache, baseURL string) *Controller {
	return New(store, testNames(), http.DefaultClient, Config{BaseURL: baseURL}, zerolog.Nop())
}

func TestInstall_PopulatesPrecache(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	store := newFakeStore()
	c := newTestController(store, server.URL)

	if c.State() != StateUninstalled {
		t.Fatalf("Initial state = %s, want %s", c.State(), StateUninstalled)
	}

	if err := c.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if c.State() != StateInstalled {
		t.Errorf("State after install = %s, want %s", c.State(), StateInstalled)
	}

	if got := store.count(testNames().Precache); got != len(DefaultManifest()) {
		t.Errorf("Precached resources = %d, want %d", got, len(DefaultManifest()))
	}
}

func TestInstall_FetchFailureIsAllOrNothing(t *testing.T) {
	server := newShellServer(map[string]int{"/offline.html": http.StatusNotFound})
	defer server.Close()

	store := newFakeStore()
	c := newTestController(store, server.URL)

	if err := c.Install(context.Background()); err == nil {
		t.Fatal("Install should fail when a manifest fetch fails")
	}

	if c.State() != StateUninstalled {
		t.Errorf("State after failed install = %s, want %s", c.State(), StateUninstalled)
	}

	// No partial shell may be committed
	if got := store.count(testNames().Precache); got != 0 {
		t.Errorf("Precached resources after failed install = %d, want 0", got)
	}
}

func TestInstall_WriteFailureRollsBack(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	store := newFakeStore()
	store.putErr = errors.New("redis down")
	c := newTestController(store, server.URL)

	if err := c.Install(context.Background()); err == nil {
		t.Fatal("Install should fail when a precache write fails")
	}

	if c.State() != StateUninstalled {
		t.Errorf("State = %s, want %s", c.State(), StateUninstalled)
	}
	if got := store.count(testNames().Precache); got != 0 {
		t.Errorf("Precached resources = %d, want 0 after rollback", got)
	}
}

func TestInstall_RetryAfterFailure(t *testing.T) {
	failures := map[string]int{"/manifest.json": http.StatusInternalServerError}
	server := newShellServer(failures)
	defer server.Close()

	store := newFakeStore()
	c := newTestController(store, server.URL)

	if err := c.Install(context.Background()); err == nil {
		t.Fatal("First install should fail")
	}

	// Host retry after the upstream recovers
	delete(failures, "/manifest.json")
	if err := c.Install(context.Background()); err != nil {
		t.Fatalf("Retry install failed: %v", err)
	}
	if c.State() != StateInstalled {
		t.Errorf("State = %s, want %s", c.State(), StateInstalled)
	}
}

func TestActivate_EvictsStalePartitions(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	store := newFakeStore()
	names := testNames()
	stale := cache.Config{Prefix: "recipe-finder", Version: "v1"}
	store.seed(stale.Names().Precache, "/")
	store.seed(stale.Names().Runtime, "/api/random")
	store.seed(stale.Names().Images, "/img/a.jpg")
	store.seed(names.Runtime, "/api/random")

	c := newTestController(store, server.URL)
	if err := c.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := c.Activate(context.Background()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if c.State() != StateActive {
		t.Errorf("State = %s, want %s", c.State(), StateActive)
	}

	partitions, _ := store.Partitions(context.Background())
	for _, name := range partitions {
		if !names.Expected(name) {
			t.Errorf("Stale partition %s survived activation", name)
		}
	}
	if store.count(names.Runtime) != 1 {
		t.Error("Current-version runtime partition should survive activation")
	}
	if store.count(names.Precache) != len(DefaultManifest()) {
		t.Error("Precache partition should survive activation")
	}
}

func TestActivate_RequiresInstalled(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	c := newTestController(newFakeStore(), server.URL)

	err := c.Activate(context.Background())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Activate from uninstalled = %v, want ErrInvalidTransition", err)
	}
}

func TestInstall_RequiresUninstalled(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	c := newTestController(newFakeStore(), server.URL)
	if err := c.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	err := c.Install(context.Background())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Second install = %v, want ErrInvalidTransition", err)
	}
}

func TestHandleMessage_ClearCache(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	store := newFakeStore()
	names := testNames()
	store.seed(names.Runtime, "/api/random")
	store.seed(names.Images, "/img/a.jpg")

	c := newTestController(store, server.URL)

	if err := c.HandleMessage(context.Background(), Message{Type: MessageClearCache}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	partitions, _ := store.Partitions(context.Background())
	if len(partitions) != 0 {
		t.Errorf("Partitions after clear = %v, want none", partitions)
	}
}

func TestHandleMessage_UnknownTypeIgnored(t *testing.T) {
	server := newShellServer(nil)
	defer server.Close()

	store := newFakeStore()
	store.seed(testNames().Runtime, "/api/random")

	c := newTestController(store, server.URL)

	if err := c.HandleMessage(context.Background(), Message{Type: "SYNC_FAVORITES"}); err != nil {
		t.Fatalf("Unknown message should be a no-op, got %v", err)
	}
	if store.count(testNames().Runtime) != 1 {
		t.Error("Unknown message must not touch partitions")
	}
}
