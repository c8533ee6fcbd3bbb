package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/cadastro/internal/cache"
)

// DefaultBulkConcurrency bounds how many keys Bulk resolves at once.
const DefaultBulkConcurrency = 4

// Manager coordinates the named drivers for one lookup kind. It owns the
// driver registry, a bounded pool of lookup slots shared across races and
// an optional result cache for single-driver lookups.
type Manager[T any] struct {
	name     string
	registry *Registry[T]
	pool     *Pool
	cache    cache.Store
	timeout  time.Duration

	mu            sync.RWMutex
	defaultDriver string
}

// ManagerOption configures a Manager at construction time.
type ManagerOption[T any] func(*Manager[T])

// WithCache enables success-only caching of single-driver lookups. Races
// never consult the cache.
func WithCache[T any](store cache.Store) ManagerOption[T] {
	return func(m *Manager[T]) {
		m.cache = store
	}
}

// WithPoolSize overrides how many driver lookups may run concurrently.
func WithPoolSize[T any](size int) ManagerOption[T] {
	return func(m *Manager[T]) {
		m.pool = NewPool(size)
	}
}

// WithDefaultTimeout overrides the race timeout used when a call does not
// set its own.
func WithDefaultTimeout[T any](timeout time.Duration) ManagerOption[T] {
	return func(m *Manager[T]) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// NewManager creates an empty manager. The name tags log lines and should
// describe the lookup kind ("cep", "cnpj").
func NewManager[T any](name string, opts ...ManagerOption[T]) *Manager[T] {
	m := &Manager[T]{
		name:     name,
		registry: NewRegistry[T](),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pool == nil {
		m.pool = NewPool(DefaultPoolSize)
	}
	return m
}

// Register adds or replaces a driver. The first registered driver becomes
// the default for single-driver lookups until SetDefaultDriver changes it.
func (m *Manager[T]) Register(name string, factory Factory[T], metadata map[string]string) {
	m.registry.Register(name, factory, metadata)
}

// Unregister removes a driver and reports whether it existed. If the
// removed driver was the explicit default, the default reverts to the
// first remaining registration.
func (m *Manager[T]) Unregister(name string) bool {
	existed := m.registry.Unregister(name)
	if existed {
		m.mu.Lock()
		if m.defaultDriver == name {
			m.defaultDriver = ""
		}
		m.mu.Unlock()
	}
	return existed
}

// Drivers returns the registered driver names in registration order.
func (m *Manager[T]) Drivers() []string {
	return m.registry.Names()
}

// HasDriver reports whether name is registered.
func (m *Manager[T]) HasDriver(name string) bool {
	return m.registry.Has(name)
}

// DriverMetadata returns the metadata registered for name.
func (m *Manager[T]) DriverMetadata(name string) (map[string]string, error) {
	return m.registry.Metadata(name)
}

// SetDefaultDriver selects the driver used when Lookup is called without
// an explicit driver name.
func (m *Manager[T]) SetDefaultDriver(name string) error {
	if !m.registry.Has(name) {
		return NewDriverNotFoundError(name)
	}
	m.mu.Lock()
	m.defaultDriver = name
	m.mu.Unlock()
	return nil
}

// DefaultDriver returns the explicit default if one is set and still
// registered, otherwise the first registered driver.
func (m *Manager[T]) DefaultDriver() (string, error) {
	m.mu.RLock()
	name := m.defaultDriver
	m.mu.RUnlock()

	if name != "" && m.registry.Has(name) {
		return name, nil
	}
	names := m.registry.Names()
	if len(names) == 0 {
		return "", NewNoDriversError(nil)
	}
	return names[0], nil
}

// Lookup resolves key through a single driver, using the default driver
// when driverName is empty. Successful results are cached under
// "driver:key" when a cache store is configured.
func (m *Manager[T]) Lookup(ctx context.Context, key, driverName string) (T, error) {
	var zero T

	if driverName == "" {
		name, err := m.DefaultDriver()
		if err != nil {
			return zero, err
		}
		driverName = name
	}

	cacheKey := driverName + ":" + key
	if m.cache != nil {
		if value, ok := m.cacheGet(ctx, cacheKey); ok {
			return value, nil
		}
	}

	driver, err := m.registry.Load(driverName)
	if err != nil {
		return zero, err
	}

	value, err := driver.Lookup(ctx, key)
	if err != nil {
		return zero, err
	}

	if m.cache != nil {
		m.cachePut(ctx, cacheKey, value)
	}
	return value, nil
}

// RaceOption adjusts a single FirstResponse call.
type RaceOption func(*raceConfig)

type raceConfig struct {
	drivers []string
	timeout time.Duration
}

// WithDrivers restricts a race to the named drivers. Without names the
// race spans every registered driver.
func WithDrivers(names ...string) RaceOption {
	return func(c *raceConfig) {
		c.drivers = names
	}
}

// WithTimeout overrides the overall race timeout for one call.
func WithTimeout(timeout time.Duration) RaceOption {
	return func(c *raceConfig) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// FirstResponse races drivers for key and returns the first success.
// Drivers that fail to load are skipped with a warning; if none load the
// call fails immediately with NoDriversError and no lookup is attempted.
func (m *Manager[T]) FirstResponse(ctx context.Context, key string, opts ...RaceOption) (T, error) {
	var zero T

	cfg := raceConfig{timeout: m.timeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	names := cfg.drivers
	if len(names) == 0 {
		names = m.registry.Names()
	}

	drivers := make([]Driver[T], 0, len(names))
	for _, name := range names {
		driver, err := m.registry.Load(name)
		if err != nil {
			slog.Warn("Skipping driver for lookup race",
				"manager", m.name, "driver", name, "error", err)
			continue
		}
		drivers = append(drivers, driver)
	}
	if len(drivers) == 0 {
		return zero, NewNoDriversError(names)
	}

	slog.Debug("Starting first-to-respond lookup",
		"manager", m.name, "key", sanitizeKey(key), "drivers", len(drivers), "timeout", cfg.timeout)
	return runRace(ctx, m.pool, key, drivers, cfg.timeout)
}

// BulkResult pairs one input key with its lookup outcome.
type BulkResult[T any] struct {
	Key   string
	Value T
	Err   error
}

// Bulk resolves many keys concurrently, racing drivers for each one.
// Results are returned in input order; individual failures land in the
// corresponding BulkResult instead of aborting the batch.
func (m *Manager[T]) Bulk(ctx context.Context, keys []string, concurrency int, opts ...RaceOption) []BulkResult[T] {
	if concurrency < 1 {
		concurrency = DefaultBulkConcurrency
	}

	results := make([]BulkResult[T], len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, key := range keys {
		g.Go(func() error {
			value, err := m.FirstResponse(ctx, key, opts...)
			results[i] = BulkResult[T]{Key: key, Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// CacheStats describes the manager's response cache.
type CacheStats struct {
	Enabled bool
	Size    int
}

// CacheStats reports whether caching is enabled and how many responses
// are stored.
func (m *Manager[T]) CacheStats(ctx context.Context) (CacheStats, error) {
	if m.cache == nil {
		return CacheStats{}, nil
	}
	size, err := m.cache.Len(ctx)
	if err != nil {
		return CacheStats{Enabled: true}, err
	}
	return CacheStats{Enabled: true, Size: size}, nil
}

// ClearCache drops every cached response and returns how many were
// removed.
func (m *Manager[T]) ClearCache(ctx context.Context) (int64, error) {
	if m.cache == nil {
		return 0, nil
	}
	return m.cache.Clear(ctx)
}

func (m *Manager[T]) cacheGet(ctx context.Context, cacheKey string) (T, bool) {
	var zero T

	data, ok, err := m.cache.Get(ctx, cacheKey)
	if err != nil {
		slog.Warn("Cache read failed", "manager", m.name, "key", sanitizeKey(cacheKey), "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		slog.Warn("Failed to unmarshal cached entry, refetching",
			"manager", m.name, "key", sanitizeKey(cacheKey), "error", err)
		return zero, false
	}
	slog.Debug("Cache hit", "manager", m.name, "key", sanitizeKey(cacheKey))
	return value, true
}

func (m *Manager[T]) cachePut(ctx context.Context, cacheKey string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Failed to marshal result for caching",
			"manager", m.name, "key", sanitizeKey(cacheKey), "error", err)
		return
	}
	if err := m.cache.Set(ctx, cacheKey, data); err != nil {
		slog.Warn("Failed to cache result",
			"manager", m.name, "key", sanitizeKey(cacheKey), "error", err)
		return
	}
	slog.Debug("Result cached", "manager", m.name, "key", sanitizeKey(cacheKey))
}
