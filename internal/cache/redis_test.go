package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to the Redis instance named by REDIS_ADDR, or skips
// the test when none is available.
func newTestRedis(t *testing.T, namespace string) *Redis {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis cache tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis at %s not reachable: %v", addr, err)
	}

	store := NewRedis(client, namespace, time.Hour)
	if _, err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Failed to clear test keys: %v", err)
	}
	t.Cleanup(func() {
		_, _ = store.Clear(context.Background())
		_ = store.Close()
	})
	return store
}

func TestRedis_GetSet(t *testing.T) {
	ctx := context.Background()
	store := newTestRedis(t, NamespaceCEP)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Expected miss for unknown key, got ok=%v err=%v", ok, err)
	}

	data := []byte(`{"postal_code":"01310-100"}`)
	if err := store.Set(ctx, "viacep:01310100", data); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "viacep:01310100")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if string(got) != string(data) {
		t.Errorf("Expected %s, got %s", data, got)
	}
}

func TestRedis_ClearAndLen(t *testing.T) {
	ctx := context.Background()
	store := newTestRedis(t, NamespaceCEP)

	_ = store.Set(ctx, "key1", []byte("1"))
	_ = store.Set(ctx, "key2", []byte("2"))
	_ = store.Set(ctx, "key3", []byte("3"))

	n, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 entries, got %d", n)
	}

	deleted, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 keys deleted, got %d", deleted)
	}

	if n, _ := store.Len(ctx); n != 0 {
		t.Errorf("Expected empty cache after clear, got %d entries", n)
	}
}

func TestRedis_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	cepStore := newTestRedis(t, NamespaceCEP)
	cnpjStore := newTestRedis(t, NamespaceCNPJ)

	_ = cepStore.Set(ctx, "shared-key", []byte("address"))
	_ = cnpjStore.Set(ctx, "shared-key", []byte("company"))

	got, ok, err := cepStore.Get(ctx, "shared-key")
	if err != nil || !ok {
		t.Fatalf("Expected cep hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != "address" {
		t.Errorf("Namespaces leaked: cep store returned %s", got)
	}

	if deleted, _ := cnpjStore.Clear(ctx); deleted != 1 {
		t.Errorf("Expected cnpj clear to delete 1 key, got %d", deleted)
	}
	if _, ok, _ := cepStore.Get(ctx, "shared-key"); !ok {
		t.Error("Clearing cnpj namespace must not touch cep keys")
	}
}
