package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lepinkainen/cadastro/internal/address"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/format"
)

const wideNetBaseURL = "https://cdn.apicep.com/file/apicep"

// WideNet looks up postal codes through the apicep.com CDN.
type WideNet struct {
	client clientConfig
}

// NewWideNet creates a WideNet postal code driver.
func NewWideNet(opts ...Option) *WideNet {
	return &WideNet{client: newClientConfig(wideNetBaseURL, opts...)}
}

func (d *WideNet) Name() string { return "widenet" }

type wideNetResponse struct {
	OK       bool   `json:"ok"`
	Status   int    `json:"status"`
	Code     string `json:"code"`
	Address  string `json:"address"`
	District string `json:"district"`
	City     string `json:"city"`
	State    string `json:"state"`
}

func (d *WideNet) Lookup(ctx context.Context, key string) (*address.Address, error) {
	formatted, err := format.FormatCEP(key)
	if err != nil {
		return nil, err
	}

	// The CDN wants the dashed form in the path.
	endpoint := fmt.Sprintf("%s/%s.json", d.client.baseURL, formatted)
	var payload wideNetResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		// Unknown postal codes come back as HTTP 400 with an ok=false
		// body, so inspect the body before treating this as a failure.
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusBadRequest {
			var body wideNetResponse
			if jsonErr := json.Unmarshal(status.Body, &body); jsonErr == nil && !body.OK {
				return nil, apperrors.NewNotFoundError(d.Name(), formatted)
			}
		}
		return nil, fmt.Errorf("widenet request failed: %w", err)
	}
	if !payload.OK || payload.Status != http.StatusOK {
		return nil, apperrors.NewNotFoundError(d.Name(), formatted)
	}

	addr := address.New()
	addr.StreetName = payload.Address
	addr.Neighborhood = payload.District
	addr.Locality = payload.City
	addr.AdministrativeArea1 = payload.State
	addr.PostalCode = formatted
	addr.Country = address.Brazil()
	addr.MarkVerified(d.Name())
	return addr, nil
}
