package mealdb

import (
	"sync"
	"time"
)

// Memo is a short-lived in-process response memo fronting the upstream API
// for the proxy's hot endpoints. It is an explicitly constructed component
// passed into the client by reference, not ambient package state.
type Memo struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoEntry
}

type memoEntry struct {
	data    []byte
	expires time.Time
}

// NewMemo creates a memo whose entries live for ttl.
func NewMemo(ttl time.Duration) *Memo {
	return &Memo{
		ttl:     ttl,
		entries: make(map[string]memoEntry),
	}
}

// Get returns the memoized body for a key, if present and fresh.
func (m *Memo) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		memoMisses.Inc()
		return nil, false
	}
	if time.Now().After(entry.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		memoMisses.Inc()
		return nil, false
	}

	memoHits.Inc()
	return entry.data, true
}

// Put memoizes a body under a key for the memo's TTL.
func (m *Memo) Put(key string, data []byte) {
	m.mu.Lock()
	m.entries[key] = memoEntry{
		data:    data,
		expires: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()
}

// Len returns the number of live entries (expired entries may be counted
// until their next lookup).
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
