// Package cep provides postal code lookup drivers for the public Brazilian
// CEP APIs (ViaCEP, BrasilAPI and WideNet) plus a manager that races them.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultUserAgent identifies this toolkit to the providers.
	DefaultUserAgent = "cadastro/1.0"

	defaultMaxAttempts = 3
	maxErrorBody       = 2048
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// clientConfig carries the HTTP settings shared by every driver in this
// package.
type clientConfig struct {
	baseURL    string
	httpClient HTTPDoer
	userAgent  string
	retries    int
	timeout    time.Duration
}

// Option is a functional option accepted by every driver constructor in
// this package.
type Option func(*clientConfig)

// WithBaseURL points the driver at a different API endpoint.
func WithBaseURL(base string) Option {
	return func(c *clientConfig) {
		if base != "" {
			c.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *clientConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent overrides the User-Agent header sent to the provider.
func WithUserAgent(userAgent string) Option {
	return func(c *clientConfig) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryAttempts sets the number of attempts for failed requests.
func WithRetryAttempts(attempts int) Option {
	return func(c *clientConfig) {
		if attempts > 0 {
			c.retries = attempts
		}
	}
}

// WithTimeout sets the per-request timeout of the built-in HTTP client.
// It has no effect when WithHTTPClient supplies a custom client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func newClientConfig(defaultBase string, opts ...Option) clientConfig {
	cfg := clientConfig{
		baseURL:   defaultBase,
		userAgent: DefaultUserAgent,
		retries:   defaultMaxAttempts,
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return cfg
}

// StatusError reports a non-2xx provider response. The body is retained so
// callers can inspect provider-specific error payloads.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

// getJSON fetches endpoint and decodes the JSON response into target,
// retrying transient network failures with exponential backoff.
func (c clientConfig) getJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := c.doJSONRequest(ctx, endpoint, target); err != nil {
			lastErr = err
			if !isRetryable(err) || attempt == c.retries {
				return err
			}
			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (c clientConfig) doJSONRequest(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: body}
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

func isRetryable(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}
