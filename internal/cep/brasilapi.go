package cep

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lepinkainen/cadastro/internal/address"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/format"
)

const brasilAPIBaseURL = "https://brasilapi.com.br/api/cep/v1"

// BrasilAPI looks up postal codes through brasilapi.com.br.
type BrasilAPI struct {
	client clientConfig
}

// NewBrasilAPI creates a BrasilAPI postal code driver.
func NewBrasilAPI(opts ...Option) *BrasilAPI {
	return &BrasilAPI{client: newClientConfig(brasilAPIBaseURL, opts...)}
}

func (d *BrasilAPI) Name() string { return "brasilapi" }

type brasilAPIResponse struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
}

func (d *BrasilAPI) Lookup(ctx context.Context, key string) (*address.Address, error) {
	formatted, err := format.FormatCEP(key)
	if err != nil {
		return nil, err
	}
	bare := strings.ReplaceAll(formatted, "-", "")

	endpoint := fmt.Sprintf("%s/%s", d.client.baseURL, bare)
	var payload brasilAPIResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		// BrasilAPI answers 404 for unknown postal codes.
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(d.Name(), formatted)
		}
		return nil, fmt.Errorf("brasilapi request failed: %w", err)
	}

	addr := address.New()
	addr.StreetName = payload.Street
	addr.Neighborhood = payload.Neighborhood
	addr.Locality = payload.City
	addr.AdministrativeArea1 = payload.State
	addr.PostalCode = formatted
	addr.Country = address.Brazil()
	addr.MarkVerified(d.Name())
	return addr, nil
}
