package lookup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/cadastro/internal/cache"
)

// funcDriver delegates lookups to a plain function.
type funcDriver struct {
	name string
	fn   func(ctx context.Context, key string) (string, error)
}

func (d *funcDriver) Name() string { return d.name }

func (d *funcDriver) Lookup(ctx context.Context, key string) (string, error) {
	return d.fn(ctx, key)
}

func countingDriver(name, result string) (*funcDriver, *atomic.Int64) {
	var calls atomic.Int64
	return &funcDriver{
		name: name,
		fn: func(context.Context, string) (string, error) {
			calls.Add(1)
			return result, nil
		},
	}, &calls
}

func TestManager_LookupUsesFirstRegisteredByDefault(t *testing.T) {
	m := newRaceManager(
		&stubDriver{name: "a", result: "from-a"},
		&stubDriver{name: "b", result: "from-b"},
	)

	result, err := m.Lookup(context.Background(), "88304-053", "")
	require.NoError(t, err)
	assert.Equal(t, "from-a", result)

	result, err = m.Lookup(context.Background(), "88304-053", "b")
	require.NoError(t, err)
	assert.Equal(t, "from-b", result)
}

func TestManager_SetDefaultDriver(t *testing.T) {
	m := newRaceManager(
		&stubDriver{name: "a", result: "from-a"},
		&stubDriver{name: "b", result: "from-b"},
	)

	require.NoError(t, m.SetDefaultDriver("b"))
	result, err := m.Lookup(context.Background(), "88304-053", "")
	require.NoError(t, err)
	assert.Equal(t, "from-b", result)

	err = m.SetDefaultDriver("nope")
	assert.True(t, IsDriverNotFound(err))

	// Removing the explicit default falls back to registration order.
	assert.True(t, m.Unregister("b"))
	name, err := m.DefaultDriver()
	require.NoError(t, err)
	assert.Equal(t, "a", name)
}

func TestManager_LookupUnknownDriver(t *testing.T) {
	m := newRaceManager(&stubDriver{name: "a", result: "from-a"})

	_, err := m.Lookup(context.Background(), "88304-053", "missing")
	assert.True(t, IsDriverNotFound(err))
}

func TestManager_LookupEmptyRegistry(t *testing.T) {
	m := NewManager[string]("test")

	_, err := m.Lookup(context.Background(), "88304-053", "")
	assert.True(t, IsNoDrivers(err))
}

func TestManager_LookupCachesSuccessOnly(t *testing.T) {
	driver, calls := countingDriver("counted", "cached-value")
	m := NewManager[string]("test", WithCache[string](cache.NewMemory(time.Hour)))
	m.Register("counted", stubFactory(driver), nil)

	for range 3 {
		result, err := m.Lookup(context.Background(), "88304-053", "")
		require.NoError(t, err)
		assert.Equal(t, "cached-value", result)
	}
	assert.Equal(t, int64(1), calls.Load(), "repeat lookups must hit the cache")

	// Failures are never cached, so every call reaches the driver.
	var failCalls atomic.Int64
	failing := &funcDriver{name: "failing", fn: func(context.Context, string) (string, error) {
		failCalls.Add(1)
		return "", errors.New("upstream down")
	}}
	m.Register("failing", stubFactory(failing), nil)

	for range 2 {
		_, err := m.Lookup(context.Background(), "88304-053", "failing")
		require.Error(t, err)
	}
	assert.Equal(t, int64(2), failCalls.Load())
}

func TestManager_RaceNeverConsultsCache(t *testing.T) {
	store := cache.NewMemory(time.Hour)
	require.NoError(t, store.Set(context.Background(), "counted:88304-053", []byte(`"stale-value"`)))

	driver, calls := countingDriver("counted", "live-value")
	m := NewManager[string]("test", WithCache[string](store))
	m.Register("counted", stubFactory(driver), nil)

	result, err := m.FirstResponse(context.Background(), "88304-053", WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "live-value", result)
	assert.Equal(t, int64(1), calls.Load(), "races must always hit the driver")
}

func TestManager_LookupSurvivesCorruptCacheEntry(t *testing.T) {
	store := cache.NewMemory(time.Hour)
	require.NoError(t, store.Set(context.Background(), "counted:88304-053", []byte(`{not json`)))

	driver, _ := countingDriver("counted", "fresh-value")
	m := NewManager[string]("test", WithCache[string](store))
	m.Register("counted", stubFactory(driver), nil)

	result, err := m.Lookup(context.Background(), "88304-053", "")
	require.NoError(t, err)
	assert.Equal(t, "fresh-value", result)
}

func TestManager_Bulk(t *testing.T) {
	driver := &funcDriver{name: "echo", fn: func(_ context.Context, key string) (string, error) {
		if key == "bad-key" {
			return "", errors.New("no record")
		}
		return "value-" + key, nil
	}}
	m := NewManager[string]("test")
	m.Register("echo", stubFactory(driver), nil)

	keys := []string{"k1", "bad-key", "k2", "k3"}
	results := m.Bulk(context.Background(), keys, 2, WithTimeout(time.Second))

	require.Len(t, results, len(keys))
	for i, r := range results {
		assert.Equal(t, keys[i], r.Key, "results must keep input order")
	}

	assert.Equal(t, "value-k1", results[0].Value)
	assert.NoError(t, results[0].Err)

	assert.Error(t, results[1].Err)
	assert.True(t, IsAllFailed(results[1].Err))

	assert.Equal(t, "value-k2", results[2].Value)
	assert.Equal(t, "value-k3", results[3].Value)
}

func TestManager_BulkEmptyKeys(t *testing.T) {
	m := newRaceManager(&stubDriver{name: "a", result: "from-a"})

	results := m.Bulk(context.Background(), nil, 0)
	assert.Empty(t, results)
}

func TestManager_DriverIntrospection(t *testing.T) {
	m := NewManager[string]("test")
	m.Register("a", stubFactory(&stubDriver{name: "a"}), map[string]string{"provider": "Alpha"})
	m.Register("b", stubFactory(&stubDriver{name: "b"}), map[string]string{"provider": "Beta"})

	assert.Equal(t, []string{"a", "b"}, m.Drivers())
	assert.True(t, m.HasDriver("a"))
	assert.False(t, m.HasDriver("zzz"))

	meta, err := m.DriverMetadata("b")
	require.NoError(t, err)
	assert.Equal(t, "Beta", meta["provider"])

	_, err = m.DriverMetadata("zzz")
	assert.True(t, IsDriverNotFound(err))

	assert.True(t, m.Unregister("a"))
	assert.False(t, m.Unregister("a"))
	assert.Equal(t, []string{"b"}, m.Drivers())
}
