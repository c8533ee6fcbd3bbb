package cnpj

import (
	"time"

	"github.com/lepinkainen/cadastro/internal/cache"
	"github.com/lepinkainen/cadastro/internal/company"
	"github.com/lepinkainen/cadastro/internal/lookup"
	"github.com/lepinkainen/cadastro/internal/ratelimit"
)

// Manager races and caches company lookups across the registered drivers.
type Manager = lookup.Manager[*company.Company]

// Config adjusts how NewManager builds its driver set.
type Config struct {
	// Cache stores successful single-driver lookups. Nil disables caching.
	Cache cache.Store
	// PoolSize bounds concurrent driver requests. Zero uses the default.
	PoolSize int
	// Timeout is the first-to-respond deadline. Zero uses the default.
	Timeout time.Duration
	// UserAgent overrides the User-Agent header sent to every provider.
	UserAgent string
	// HTTPClient replaces the HTTP client of every driver, mostly for
	// tests.
	HTTPClient HTTPDoer
	// RateLimiter replaces every driver's provider pacing, mostly for
	// tests.
	RateLimiter *ratelimit.Limiter
	// Resolver completes provider addresses through postal-code lookups.
	Resolver AddressResolver
}

// NewManager returns a manager with the built-in company drivers
// registered. The first registration, brasilapi, is the default driver for
// single-driver lookups.
func NewManager(cfg Config) *Manager {
	var opts []lookup.ManagerOption[*company.Company]
	if cfg.Cache != nil {
		opts = append(opts, lookup.WithCache[*company.Company](cfg.Cache))
	}
	if cfg.PoolSize > 0 {
		opts = append(opts, lookup.WithPoolSize[*company.Company](cfg.PoolSize))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, lookup.WithDefaultTimeout[*company.Company](cfg.Timeout))
	}

	var driverOpts []Option
	if cfg.UserAgent != "" {
		driverOpts = append(driverOpts, WithUserAgent(cfg.UserAgent))
	}
	if cfg.HTTPClient != nil {
		driverOpts = append(driverOpts, WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.RateLimiter != nil {
		driverOpts = append(driverOpts, WithRateLimiter(cfg.RateLimiter))
	}
	if cfg.Resolver != nil {
		driverOpts = append(driverOpts, WithAddressResolver(cfg.Resolver))
	}

	m := lookup.NewManager[*company.Company]("cnpj", opts...)
	m.Register("brasilapi", func() (lookup.Driver[*company.Company], error) {
		return NewBrasilAPI(driverOpts...), nil
	}, map[string]string{
		"description": "BrasilAPI Brazilian company data service",
		"version":     "1.0.0",
		"country":     "BR",
	})
	m.Register("cnpja", func() (lookup.Driver[*company.Company], error) {
		return NewCNPJA(driverOpts...), nil
	}, map[string]string{
		"description": "CNPJA.com Brazilian company data service with rate limiting",
		"version":     "1.0.0",
		"country":     "BR",
	})
	m.Register("opencnpj", func() (lookup.Driver[*company.Company], error) {
		return NewOpenCNPJ(driverOpts...), nil
	}, map[string]string{
		"description": "OpenCNPJ.org Brazilian company data service",
		"version":     "1.0.0",
		"country":     "BR",
	})
	m.Register("cnpjws", func() (lookup.Driver[*company.Company], error) {
		return NewCNPJWS(driverOpts...), nil
	}, map[string]string{
		"description": "CNPJ.ws Brazilian company data service with comprehensive information",
		"version":     "1.0.0",
		"country":     "BR",
	})
	return m
}
