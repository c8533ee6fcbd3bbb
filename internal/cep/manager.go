package cep

import (
	"time"

	"github.com/lepinkainen/cadastro/internal/address"
	"github.com/lepinkainen/cadastro/internal/cache"
	"github.com/lepinkainen/cadastro/internal/lookup"
)

// Manager races and caches postal code lookups across the registered
// drivers.
type Manager = lookup.Manager[*address.Address]

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
}

// NewManager returns a manager with the built-in postal code drivers
// registered. The first registration, viacep, is the default driver for
// single-driver lookups.
func NewManager(cfg Config) *Manager {
	var opts []lookup.ManagerOption[*address.Address]
	if cfg.Cache != nil {
		opts = append(opts, lookup.WithCache[*address.Address](cfg.Cache))
	}
	if cfg.PoolSize > 0 {
		opts = append(opts, lookup.WithPoolSize[*address.Address](cfg.PoolSize))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, lookup.WithDefaultTimeout[*address.Address](cfg.Timeout))
	}

	var driverOpts []Option
	if cfg.UserAgent != "" {
		driverOpts = append(driverOpts, WithUserAgent(cfg.UserAgent))
	}
	if cfg.HTTPClient != nil {
		driverOpts = append(driverOpts, WithHTTPClient(cfg.HTTPClient))
	}

	m := lookup.NewManager[*address.Address]("cep", opts...)
	m.Register("viacep", func() (lookup.Driver[*address.Address], error) {
		return NewViaCEP(driverOpts...), nil
	}, map[string]string{
		"description": "ViaCEP Brazilian postal code service",
		"version":     "1.0.0",
		"country":     "BR",
	})
	m.Register("widenet", func() (lookup.Driver[*address.Address], error) {
		return NewWideNet(driverOpts...), nil
	}, map[string]string{
		"description": "WideNet Brazilian postal code service",
		"version":     "1.0.0",
		"country":     "BR",
	})
	m.Register("brasilapi", func() (lookup.Driver[*address.Address], error) {
		return NewBrasilAPI(driverOpts...), nil
	}, map[string]string{
		"description": "BrasilAPI Brazilian postal code service",
		"version":     "1.0.0",
		"country":     "BR",
	})
	return m
}
