package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/savorly/recipe-proxy/pkg/mealdb"
)

// upstreamFetcher bridges the fetch interceptor to the upstream API client:
// same-origin /api requests are translated into upstream calls and the raw
// JSON is wrapped back into a response the strategies can capture.
type upstreamFetcher struct {
	client *mealdb.Client
}

func (f *upstreamFetcher) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	query := req.URL.Query()

	var body []byte
	var err error

	switch {
	case req.URL.Path == "/api/search":
		body, err = f.client.Search(ctx, query.Get("s"))
	case strings.HasPrefix(req.URL.Path, "/api/meal/"):
		body, err = f.client.Lookup(ctx, strings.TrimPrefix(req.URL.Path, "/api/meal/"))
	case req.URL.Path == "/api/categories":
		body, err = f.client.Categories(ctx)
	case req.URL.Path == "/api/filter":
		body, err = f.client.FilterByCategory(ctx, query.Get("c"))
	case req.URL.Path == "/api/random":
		body, err = f.client.Random(ctx)
	default:
		return nil, fmt.Errorf("no upstream mapping for %s", req.URL.Path)
	}

	if err != nil {
		// Upstream HTTP errors are live responses, not network failures:
		// relay the status so the interceptor returns them uncached.
		var upstreamErr *mealdb.UpstreamError
		if errors.As(err, &upstreamErr) && upstreamErr.StatusCode > 0 {
			return jsonResponse(upstreamErr.StatusCode, []byte(`{"error": "upstream error"}`)), nil
		}
		return nil, err
	}

	return jsonResponse(http.StatusOK, body), nil
}

func jsonResponse(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header: http.Header{
			"Content-Type": []string{"application/json; charset=utf-8"},
		},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
