// Package cache provides pluggable result caches for the lookup managers.
//
// Three backends are available: an in-process map, a SQLite database and a
// shared Redis instance. All of them store JSON blobs keyed by
// "driver:lookup-key" and apply a TTL so stale records get refreshed on the
// next lookup instead of being served forever.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// DefaultTTL is the default time-to-live for cached entries (30 days).
const DefaultTTL = 720 * time.Hour

// Namespaces keep postal code and company records apart so both lookup
// managers can share a backend without key collisions.
const (
	NamespaceCEP  = "cep"
	NamespaceCNPJ = "cnpj"
)

// validNamespaces is the whitelist of allowed cache namespaces. SQLite
// derives table names from the namespace, so this also prevents SQL
// injection via the table name.
var validNamespaces = map[string]bool{
	NamespaceCEP:  true,
	NamespaceCNPJ: true,
}

// Store is a TTL-aware byte cache shared by the lookup managers.
type Store interface {
	// Get returns the cached blob for key and whether it was present and
	// still fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a blob under key, replacing any previous entry.
	Set(ctx context.Context, key string, data []byte) error
	// Clear removes every entry and reports how many were deleted.
	Clear(ctx context.Context) (int64, error)
	// Len reports the number of entries currently stored.
	Len(ctx context.Context) (int, error)
	// Close releases the backend resources.
	Close() error
}

// Open builds a Store for the given namespace from the active configuration.
// The "none" backend (or an empty setting) returns a nil Store, meaning
// lookups run uncached.
func Open(namespace string) (Store, error) {
	backend := viper.GetString("cache.backend")
	ttl := configuredTTL()

	switch backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(ttl), nil
	case "sqlite":
		dbPath := viper.GetString("cache.dbfile")
		if dbPath == "" {
			dbPath = "./cache.db"
		}
		return NewSQLite(dbPath, namespace, ttl)
	case "redis":
		addr := viper.GetString("cache.redis.addr")
		if addr == "" {
			addr = "localhost:6379"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			closeErr := client.Close()
			return nil, errors.Join(fmt.Errorf("failed to connect to redis at %s: %w", addr, err), closeErr)
		}
		return NewRedis(client, namespace, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (valid: none, memory, sqlite, redis)", backend)
	}
}

// configuredTTL reads cache.ttl from config, falling back to DefaultTTL on
// missing or unparseable values.
func configuredTTL() time.Duration {
	ttlStr := viper.GetString("cache.ttl")
	if ttlStr == "" {
		return DefaultTTL
	}
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		slog.Warn("Invalid cache TTL, using default", "ttl", ttlStr, "error", err)
		return DefaultTTL
	}
	return ttl
}

func validateNamespace(namespace string) error {
	if !validNamespaces[namespace] {
		return fmt.Errorf("invalid cache namespace: %s", namespace)
	}
	return nil
}
