package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndNames(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("viacep", stubFactory(&stubDriver{name: "viacep"}), nil)
	r.Register("brasilapi", stubFactory(&stubDriver{name: "brasilapi"}), nil)
	r.Register("widenet", stubFactory(&stubDriver{name: "widenet"}), nil)

	assert.Equal(t, []string{"viacep", "brasilapi", "widenet"}, r.Names())

	// Overwriting keeps the original position.
	r.Register("brasilapi", stubFactory(&stubDriver{name: "brasilapi", result: "v2"}), nil)
	assert.Equal(t, []string{"viacep", "brasilapi", "widenet"}, r.Names())
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("viacep", stubFactory(&stubDriver{name: "viacep"}), nil)

	assert.True(t, r.Unregister("viacep"))
	assert.False(t, r.Unregister("viacep"))
	assert.False(t, r.Has("viacep"))
	assert.Empty(t, r.Names())
}

func TestRegistry_Metadata(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("viacep", stubFactory(&stubDriver{name: "viacep"}),
		map[string]string{"provider": "ViaCEP", "country": "BR"})

	meta, err := r.Metadata("viacep")
	require.NoError(t, err)
	assert.Equal(t, "ViaCEP", meta["provider"])

	// The returned map is a copy.
	meta["provider"] = "tampered"
	meta2, err := r.Metadata("viacep")
	require.NoError(t, err)
	assert.Equal(t, "ViaCEP", meta2["provider"])

	_, err = r.Metadata("missing")
	assert.True(t, IsDriverNotFound(err))
}

func TestRegistry_Load(t *testing.T) {
	r := NewRegistry[string]()
	r.Register("ok", stubFactory(&stubDriver{name: "ok", result: "data"}), nil)

	cause := errors.New("api key unset")
	r.Register("broken", func() (Driver[string], error) {
		return nil, cause
	}, nil)

	driver, err := r.Load("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", driver.Name())

	_, err = r.Load("broken")
	require.Error(t, err)
	assert.True(t, IsDriverLoad(err))
	assert.ErrorIs(t, err, cause)

	_, err = r.Load("missing")
	assert.True(t, IsDriverNotFound(err))
}
