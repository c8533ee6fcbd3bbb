package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestOpen_BackendSelection(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Unset and "none" both disable caching.
	store, err := Open(NamespaceCEP)
	if err != nil {
		t.Fatalf("Expected no error for unset backend, got %v", err)
	}
	if store != nil {
		t.Error("Expected nil store for unset backend")
	}

	viper.Set("cache.backend", "none")
	store, err = Open(NamespaceCEP)
	if err != nil || store != nil {
		t.Errorf("Expected nil store for backend none, got store=%v err=%v", store, err)
	}

	viper.Set("cache.backend", "memory")
	store, err = Open(NamespaceCEP)
	if err != nil {
		t.Fatalf("Expected no error for memory backend, got %v", err)
	}
	if _, ok := store.(*Memory); !ok {
		t.Errorf("Expected *Memory store, got %T", store)
	}

	viper.Set("cache.backend", "sqlite")
	viper.Set("cache.dbfile", filepath.Join(t.TempDir(), "cache.db"))
	store, err = Open(NamespaceCNPJ)
	if err != nil {
		t.Fatalf("Expected no error for sqlite backend, got %v", err)
	}
	if _, ok := store.(*SQLite); !ok {
		t.Errorf("Expected *SQLite store, got %T", store)
	}
	_ = store.Close()

	viper.Set("cache.backend", "bogus")
	if _, err := Open(NamespaceCEP); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestConfiguredTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if ttl := configuredTTL(); ttl != DefaultTTL {
		t.Errorf("Expected default TTL when unset, got %v", ttl)
	}

	viper.Set("cache.ttl", "12h")
	if ttl := configuredTTL(); ttl != 12*time.Hour {
		t.Errorf("Expected 12h, got %v", ttl)
	}

	viper.Set("cache.ttl", "not-a-duration")
	if ttl := configuredTTL(); ttl != DefaultTTL {
		t.Errorf("Expected default TTL for invalid value, got %v", ttl)
	}
}
