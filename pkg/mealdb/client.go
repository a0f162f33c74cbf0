// Package mealdb provides the upstream recipe API client with retry,
// error classification, and short-lived response memoization.
package mealdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is the upstream recipe API client.
type Client struct {
	httpClient *http.Client
	memo       *Memo
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the upstream API root (no trailing slash)
	BaseURL string

	// APIKey is the path segment selecting the upstream API key
	APIKey string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout bounds a single upstream request
	Timeout time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://www.themealdb.com/api/json/v1",
		APIKey:         "1",
		UserAgent:      "recipe-proxy/1.0",
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// New creates an upstream client. The memo is owned by the caller; pass nil
// to disable memoization.
func New(cfg Config, memo *Memo) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := log.With().Str("component", "mealdb-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		memo:   memo,
		config: cfg,
		logger: logger,
	}, nil
}

// Get fetches an upstream endpoint and returns the raw JSON body.
// Responses are memoized; server and network errors are retried with
// backoff, client errors are not.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.get(ctx, endpoint, query, true)
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, memoize bool) ([]byte, error) {
	target := c.config.BaseURL + "/" + c.config.APIKey + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if memoize && c.memo != nil {
		if data, ok := c.memo.Get(target); ok {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Memo hit")
			return data, nil
		}
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, c.config.retryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errClass = classify(0, err)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &UpstreamError{ErrorClass: errClass, Message: "request failed", Err: err}
		}
		defer resp.Body.Close()

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass = classify(resp.StatusCode, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Upstream request error")

			return &UpstreamError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			errClass = ErrorClassNetwork
			return &UpstreamError{ErrorClass: errClass, Message: "read body", Err: err}
		}
		return nil
	}, func() ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	if memoize && c.memo != nil {
		c.memo.Put(target, body)
	}
	return body, nil
}

// Search queries recipes by name.
func (c *Client) Search(ctx context.Context, query string) ([]byte, error) {
	return c.Get(ctx, "/search.php", url.Values{"s": []string{query}})
}

// Lookup fetches full recipe details by id.
func (c *Client) Lookup(ctx context.Context, id string) ([]byte, error) {
	return c.Get(ctx, "/lookup.php", url.Values{"i": []string{id}})
}

// Categories lists all recipe categories.
func (c *Client) Categories(ctx context.Context) ([]byte, error) {
	return c.Get(ctx, "/categories.php", nil)
}

// FilterByCategory lists recipes in a category.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]byte, error) {
	return c.Get(ctx, "/filter.php", url.Values{"c": []string{category}})
}

// Random fetches a single random recipe. Never memoized, each call
// must reach the upstream for a fresh pick.
func (c *Client) Random(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/random.php", nil, false)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
