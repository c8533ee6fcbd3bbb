package cnpj

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/ratelimit"
)

// fastLimiter keeps driver tests from waiting out the real provider pacing.
func fastLimiter() *ratelimit.Limiter {
	return ratelimit.New("test", 1000)
}

func TestCNPJA_Lookup_LegacyFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/"+testCNPJBare, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"cnpj": "11222333000181",
			"company": {
				"name": "EMPRESA EXEMPLO LTDA",
				"alias": "Empresa Exemplo",
				"founded": "2020-01-01",
				"status": "ATIVA",
				"nature": {"code": "2062", "description": "Sociedade Empresária Limitada"},
				"size": {"acronym": "ME", "description": "Microempresa"}
			},
			"address": {
				"street": "Rua das Flores",
				"number": "123",
				"details": "Sala 1",
				"district": "Centro",
				"city": "Itajaí",
				"state": "SC",
				"zip": "88304053"
			},
			"phones": [{"area": "47", "number": "33334444"}],
			"emails": ["contato@empresa.com.br"],
			"activities": [
				{"code": "6201500", "description": "Desenvolvimento de programas de computador sob encomenda", "primary": true}
			],
			"capital": 10000.00
		}`))
	}))
	defer server.Close()

	driver := NewCNPJA(WithBaseURL(server.URL), WithRateLimiter(fastLimiter()))

	c, err := driver.Lookup(context.Background(), testCNPJ)
	require.NoError(t, err)

	assert.Equal(t, "EMPRESA EXEMPLO LTDA", c.LegalName)
	assert.Equal(t, "Empresa Exemplo", c.TradeName)
	assert.Equal(t, "ATIVA", c.Status)
	assert.Equal(t, "2020-01-01", c.RegistrationDate)
	assert.Equal(t, "(47) 3333-4444", c.Phone)
	assert.Equal(t, "contato@empresa.com.br", c.Email)
	assert.Equal(t, "Desenvolvimento de programas de computador sob encomenda", c.PrimaryActivity)
	assert.Equal(t, "Microempresa", c.CompanySize)
	assert.Equal(t, "Sociedade Empresária Limitada", c.LegalNature)
	assert.InDelta(t, 10000.0, c.ShareCapital, 0.001)

	require.NotNil(t, c.Address)
	assert.Equal(t, "Rua das Flores, 123, Sala 1", c.Address.StreetName)
	assert.Equal(t, "88304-053", c.Address.PostalCode)
	assert.Equal(t, "cnpja", c.VerificationSource)
}

func TestCNPJA_Lookup_CurrentFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"taxId": "11222333000181",
			"alias": "Empresa Exemplo",
			"founded": "2020-01-01",
			"status": {"id": 2, "text": "Ativa"},
			"mainActivity": {"id": 6201500, "text": "Desenvolvimento de programas de computador sob encomenda"},
			"company": {
				"name": "EMPRESA EXEMPLO LTDA",
				"equity": 10000,
				"nature": {"id": 2062, "text": "Sociedade Empresária Limitada"},
				"size": {"id": 1, "acronym": "ME", "text": "Microempresa"}
			},
			"address": {
				"street": "Rua das Flores",
				"number": "123",
				"district": "Centro",
				"city": "Itajaí",
				"state": "SC",
				"zip": "88304053"
			},
			"phones": [{"type": "LANDLINE", "area": "19", "number": "331356800"}],
			"emails": [{"ownership": "CORPORATE", "address": "contato@empresa.com.br"}]
		}`))
	}))
	defer server.Close()

	driver := NewCNPJA(WithBaseURL(server.URL), WithRateLimiter(fastLimiter()))

	c, err := driver.Lookup(context.Background(), testCNPJ)
	require.NoError(t, err)

	assert.Equal(t, "EMPRESA EXEMPLO LTDA", c.LegalName)
	assert.Equal(t, "Empresa Exemplo", c.TradeName)
	assert.Equal(t, "Ativa", c.Status)
	assert.Equal(t, "2020-01-01", c.RegistrationDate)
	assert.Equal(t, "contato@empresa.com.br", c.Email)
	assert.Equal(t, "Desenvolvimento de programas de computador sob encomenda", c.PrimaryActivity)
	assert.Equal(t, "Microempresa", c.CompanySize)
	assert.Equal(t, "Sociedade Empresária Limitada", c.LegalNature)
	assert.InDelta(t, 10000.0, c.ShareCapital, 0.001)
	// A nine-digit subscriber number splits five-four.
	assert.Equal(t, "(19) 33135-6800", c.Phone)
}

func TestCNPJA_Lookup_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	driver := NewCNPJA(WithBaseURL(server.URL), WithRateLimiter(fastLimiter()))

	_, err := driver.Lookup(context.Background(), testCNPJ)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCNPJA_Lookup_Blocked(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	driver := NewCNPJA(WithBaseURL(server.URL), WithRateLimiter(fastLimiter()))

	_, err := driver.Lookup(context.Background(), testCNPJ)
	require.Error(t, err)
	assert.True(t, apperrors.IsBlockedError(err))
	assert.Equal(t, 1, calls, "a block must not be retried")
}

func TestCNPJA_Lookup_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	driver := NewCNPJA(WithBaseURL(server.URL), WithRateLimiter(fastLimiter()), WithRetryAttempts(1))

	_, err := driver.Lookup(context.Background(), testCNPJ)
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimitError(err))
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		area, number, want string
	}{
		{"47", "33334444", "(47) 3333-4444"},
		{"19", "987654321", "(19) 98765-4321"},
		{"11", "12345678901", "(11) 12345678901"},
		{"4", "33334444", ""},
		{"47", "1234", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPhone(tt.area, tt.number), "area=%q number=%q", tt.area, tt.number)
	}
}
