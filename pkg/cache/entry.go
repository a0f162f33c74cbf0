// Package cache provides the partitioned HTTP response cache backing the
// offline core, with a Redis backend.
package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry represents a captured HTTP response stored in a cache partition.
type Entry struct {
	// Data is the response body snapshot
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the captured response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// FetchedAt is when the response was captured
	FetchedAt time.Time `json:"fetched_at"`
}

// Cacheable reports whether a response may be written to a partition.
// Only successful responses are ever stored.
func Cacheable(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ResponseToEntry converts an HTTP response to an Entry.
// It reads the response body and restores it so the caller can still
// stream the live response.
func ResponseToEntry(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return &Entry{
		Data:       body,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		FetchedAt:  time.Now(),
	}, nil
}

// EntryToResponse converts an Entry back into a servable HTTP response.
func EntryToResponse(entry *Entry) *http.Response {
	if entry == nil {
		return nil
	}
	return &http.Response{
		StatusCode:    entry.StatusCode,
		Status:        http.StatusText(entry.StatusCode),
		Header:        entry.Headers.Clone(),
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
	}
}
