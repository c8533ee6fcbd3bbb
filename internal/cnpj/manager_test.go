package cnpj

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/cadastro/internal/address"
	"github.com/lepinkainen/cadastro/internal/lookup"
)

// hostRouterDoer serves requests in memory, routing by host, so a single
// fake client can stand in for every registry at once.
type hostRouterDoer struct {
	handlers map[string]http.HandlerFunc
}

func (d *hostRouterDoer) Do(req *http.Request) (*http.Response, error) {
	handler, ok := d.handlers[req.URL.Host]
	if !ok {
		return nil, fmt.Errorf("no handler for host %s", req.URL.Host)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec.Result(), nil
}

func TestNewManager_RegistersDefaultDrivers(t *testing.T) {
	m := NewManager(Config{})

	assert.Equal(t, []string{"brasilapi", "cnpja", "opencnpj", "cnpjws"}, m.Drivers())

	name, err := m.DefaultDriver()
	require.NoError(t, err)
	assert.Equal(t, "brasilapi", name)

	meta, err := m.DriverMetadata("cnpja")
	require.NoError(t, err)
	assert.Contains(t, meta["description"], "CNPJA")
	assert.Equal(t, "1.0.0", meta["version"])
}

func TestManager_FirstResponse_AcrossRegistries(t *testing.T) {
	record := `{"cnpj": "11222333000181", "razao_social": "EMPRESA EXEMPLO LTDA", "situacao_cadastral": "ATIVA"}`
	doer := &hostRouterDoer{handlers: map[string]http.HandlerFunc{
		"brasilapi.com.br": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(record))
		},
		"open.cnpja.com": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"cnpj": "11222333000181", "company": {"name": "EMPRESA EXEMPLO LTDA", "status": "ATIVA"}}`))
		},
		"api.opencnpj.org": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(record))
		},
		"publica.cnpj.ws": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"razao_social": "EMPRESA EXEMPLO LTDA", "estabelecimento": {"cnpj": "11222333000181", "situacao_cadastral": "Ativa"}}`))
		},
	}}

	m := NewManager(Config{
		HTTPClient:  doer,
		RateLimiter: fastLimiter(),
		Timeout:     2 * time.Second,
	})

	c, err := m.FirstResponse(context.Background(), testCNPJ)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "EMPRESA EXEMPLO LTDA", c.LegalName)
	assert.Contains(t, []string{"brasilapi", "cnpja", "opencnpj", "cnpjws"}, c.VerificationSource)
}

func TestManager_FirstResponse_AllRegistriesFail(t *testing.T) {
	notFound := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}
	doer := &hostRouterDoer{handlers: map[string]http.HandlerFunc{
		"brasilapi.com.br": notFound,
		"open.cnpja.com":   notFound,
		"api.opencnpj.org": notFound,
		"publica.cnpj.ws":  notFound,
	}}

	m := NewManager(Config{
		HTTPClient:  doer,
		RateLimiter: fastLimiter(),
		Timeout:     2 * time.Second,
	})

	_, err := m.FirstResponse(context.Background(), testCNPJ)
	require.Error(t, err)
	require.True(t, lookup.IsAllFailed(err))

	var allFailed *lookup.AllFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Failures, 4)
}

func TestManager_ResolverWiredIntoDrivers(t *testing.T) {
	doer := &hostRouterDoer{handlers: map[string]http.HandlerFunc{
		"brasilapi.com.br": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"cnpj": "11222333000181", "razao_social": "EMPRESA EXEMPLO LTDA", "cep": "88304053"}`))
		},
	}}

	resolved := 0
	resolver := func(ctx context.Context, cep string) (*address.Address, error) {
		resolved++
		addr := address.New()
		addr.StreetName = "Rua Alberto Werner"
		addr.Locality = "Itajaí"
		addr.AdministrativeArea1 = "SC"
		addr.PostalCode = cep
		return addr, nil
	}

	m := NewManager(Config{
		HTTPClient:  doer,
		RateLimiter: fastLimiter(),
		Resolver:    resolver,
	})

	c, err := m.Lookup(context.Background(), testCNPJ, "brasilapi")
	require.NoError(t, err)
	require.NotNil(t, c.Address)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, "Rua Alberto Werner", c.Address.StreetName)
	assert.Equal(t, "Itajaí", c.Address.Locality)
}
