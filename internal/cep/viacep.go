package cep

import (
	"context"
	"fmt"
	"strings"

	"github.com/lepinkainen/cadastro/internal/address"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/format"
)

const viaCEPBaseURL = "https://viacep.com.br/ws"

// ViaCEP looks up postal codes through the public viacep.com.br API.
type ViaCEP struct {
	client clientConfig
}

// NewViaCEP creates a ViaCEP driver.
func NewViaCEP(opts ...Option) *ViaCEP {
	return &ViaCEP{client: newClientConfig(viaCEPBaseURL, opts...)}
}

func (d *ViaCEP) Name() string { return "viacep" }

// viaCEPResponse mirrors the provider payload. The erro flag marks unknown
// postal codes, which still come back as HTTP 200.
type viaCEPResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	IBGE         string `json:"ibge"`
	AreaCode     string `json:"ddd"`
	SIAFI        string `json:"siafi"`
	NotFound     bool   `json:"erro"`
}

func (d *ViaCEP) Lookup(ctx context.Context, key string) (*address.Address, error) {
	formatted, err := format.FormatCEP(key)
	if err != nil {
		return nil, err
	}
	// ViaCEP expects the bare 8 digit form in the path.
	bare := strings.ReplaceAll(formatted, "-", "")

	endpoint := fmt.Sprintf("%s/%s/json/", d.client.baseURL, bare)
	var payload viaCEPResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("viacep request failed: %w", err)
	}

	if payload.NotFound {
		return nil, apperrors.NewNotFoundError(d.Name(), formatted)
	}

	return d.buildAddress(&payload, formatted), nil
}

func (d *ViaCEP) buildAddress(payload *viaCEPResponse, formattedCEP string) *address.Address {
	addr := address.New()
	addr.StreetName = payload.Street
	addr.Unit = payload.Complement
	addr.Neighborhood = payload.Neighborhood
	addr.Locality = payload.City
	addr.AdministrativeArea1 = payload.State
	addr.PostalCode = formattedCEP
	addr.Country = address.Brazil()

	if payload.IBGE != "" {
		addr.AddComponent("ibge_code", payload.IBGE)
	}
	if payload.AreaCode != "" {
		addr.AddComponent("area_code", payload.AreaCode)
	}
	if payload.SIAFI != "" {
		addr.AddComponent("siafi_code", payload.SIAFI)
	}

	addr.MarkVerified(d.Name())
	return addr
}
