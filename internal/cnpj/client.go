// Package cnpj provides company lookup drivers for the public Brazilian
// CNPJ registries (BrasilAPI, CNPJA, CNPJ.ws and OpenCNPJ) plus a manager
// that races them.
package cnpj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/cadastro/internal/address"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/format"
	"github.com/lepinkainen/cadastro/internal/ratelimit"
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

// AddressResolver fills in address details for a postal code. Drivers use
// it to complete provider records that carry a CEP but an incomplete
// street, city or state.
type AddressResolver func(ctx context.Context, cep string) (*address.Address, error)

// clientConfig carries the HTTP settings shared by every driver in this
// package.
type clientConfig struct {
	provider   string
	baseURL    string
	httpClient HTTPDoer
	userAgent  string
	retries    int
	timeout    time.Duration
	limiter    *ratelimit.Limiter
	resolver   AddressResolver

	// HTTP 429 backoff: min(backoffBase doubled per attempt, backoffMax).
	backoffBase time.Duration
	backoffMax  time.Duration
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

// WithRateLimiter replaces the driver's provider pacing.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *clientConfig) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithAddressResolver wires postal-code completion into a driver: when a
// provider reports a CEP but an incomplete street or city, the resolver
// fills the gaps. Resolver failures never fail the company lookup.
func WithAddressResolver(resolver AddressResolver) Option {
	return func(c *clientConfig) {
		c.resolver = resolver
	}
}

func newClientConfig(provider, defaultBase string, opts ...Option) clientConfig {
	cfg := clientConfig{
		provider:    provider,
		baseURL:     defaultBase,
		userAgent:   DefaultUserAgent,
		retries:     defaultMaxAttempts,
		timeout:     10 * time.Second,
		backoffBase: time.Second,
		backoffMax:  30 * time.Second,
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

// getJSON fetches endpoint and decodes the JSON response into target.
// Transient network failures retry with exponential backoff; HTTP 429 waits
// out the provider's published backoff before retrying and becomes a
// RateLimitError once attempts run out.
func (c clientConfig) getJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := c.doJSONRequest(ctx, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err

		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusTooManyRequests {
			if attempt == c.retries {
				return apperrors.NewRateLimitError(c.provider, "")
			}
			delay := rateLimitBackoff(c.backoffBase, c.backoffMax, attempt)
			slog.Warn("Provider rate limited, backing off",
				"provider", c.provider, "delay", delay, "attempt", attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if !isRetryable(err) || attempt == c.retries {
			return err
		}
		select {
		case <-time.After(backoffDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
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

func rateLimitBackoff(base, maxDelay time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt-1)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// normalizeCNPJ validates key and returns its bare-digit and display forms.
func normalizeCNPJ(key string) (bare, formatted string, err error) {
	bare, err = format.CleanCNPJ(key)
	if err != nil {
		return "", "", err
	}
	if err = format.ValidateCNPJ(bare); err != nil {
		return "", "", err
	}
	formatted, err = format.FormatCNPJ(bare)
	if err != nil {
		return "", "", err
	}
	return bare, formatted, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// formatPhone renders a Brazilian landline or mobile number as
// (XX) XXXX-XXXX or (XX) XXXXX-XXXX.
func formatPhone(area, number string) string {
	area = digitsOnly(area)
	number = digitsOnly(number)
	if len(area) != 2 || len(number) < 8 {
		return ""
	}
	switch len(number) {
	case 8:
		return fmt.Sprintf("(%s) %s-%s", area, number[:4], number[4:])
	case 9:
		return fmt.Sprintf("(%s) %s-%s", area, number[:5], number[5:])
	}
	return fmt.Sprintf("(%s) %s", area, number)
}

// providerAddress carries the raw address fields a registry reported,
// before postal-code completion.
type providerAddress struct {
	Street       string // assembled single street line
	Neighborhood string
	City         string
	State        string
	PostalCode   string
}

// buildAddress assembles a provider's address fields into an Address.
// When the record carries a postal code but misses the street, city or
// state, the configured resolver races the postal-code drivers to fill
// the gaps; resolution failures only log at debug.
func (c clientConfig) buildAddress(ctx context.Context, in providerAddress) *address.Address {
	postalCode := in.PostalCode
	if postalCode != "" {
		if formatted, err := format.FormatCEP(postalCode); err == nil {
			postalCode = formatted
		}
	}

	street := in.Street
	neighborhood := in.Neighborhood
	city := in.City
	state := in.State

	if postalCode != "" && c.resolver != nil && (street == "" || city == "" || state == "") {
		slog.Debug("Resolving company address through postal code",
			"provider", c.provider, "cep", postalCode)
		resolved, err := c.resolver(ctx, postalCode)
		switch {
		case err != nil:
			slog.Debug("Postal code resolution failed",
				"provider", c.provider, "cep", postalCode, "error", err)
		case resolved != nil:
			if street == "" {
				street = resolved.StreetName
			}
			if neighborhood == "" {
				neighborhood = resolved.Neighborhood
			}
			if city == "" {
				city = resolved.Locality
			}
			if state == "" {
				state = resolved.AdministrativeArea1
			}
		}
	}

	if street == "" && city == "" && postalCode == "" {
		return nil
	}

	addr := address.New()
	addr.StreetName = street
	addr.Neighborhood = neighborhood
	addr.Locality = city
	addr.AdministrativeArea1 = state
	addr.PostalCode = postalCode
	addr.Country = address.Brazil()
	addr.MarkVerified(c.provider)
	return addr
}

// joinStreet joins the non-empty street parts with commas, the way the
// registries print street lines (name, number, complement).
func joinStreet(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
