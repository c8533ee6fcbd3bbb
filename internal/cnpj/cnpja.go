package cnpj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lepinkainen/cadastro/internal/company"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/ratelimit"
)

const cnpjaBaseURL = "https://open.cnpja.com/office"

// cnpjaLimiter paces every CNPJA driver in the process: the open endpoint
// allows one request every two seconds.
var cnpjaLimiter = ratelimit.NewEvery("cnpja", 2*time.Second)

// CNPJA looks up companies through the open.cnpja.com office endpoint. The
// service has answered with two payload generations over time; both are
// handled.
type CNPJA struct {
	client clientConfig
}

// NewCNPJA creates a CNPJA company driver.
func NewCNPJA(opts ...Option) *CNPJA {
	defaults := []Option{WithRateLimiter(cnpjaLimiter)}
	cfg := newClientConfig("cnpja", cnpjaBaseURL, append(defaults, opts...)...)
	cfg.backoffBase = 2 * time.Second
	cfg.backoffMax = 10 * time.Second
	return &CNPJA{client: cfg}
}

func (d *CNPJA) Name() string { return "cnpja" }

// cnpjaLabel carries the description the legacy payload uses and the text
// label the current payload uses; at most one is set.
type cnpjaLabel struct {
	Description string `json:"description"`
	Text        string `json:"text"`
}

func (l cnpjaLabel) label() string {
	if l.Text != "" {
		return l.Text
	}
	return l.Description
}

type cnpjaCompanyInfo struct {
	Name    string     `json:"name"`
	Alias   string     `json:"alias"`
	Founded string     `json:"founded"`
	Status  string     `json:"status"`
	Equity  float64    `json:"equity"`
	Nature  cnpjaLabel `json:"nature"`
	Size    cnpjaLabel `json:"size"`
}

type cnpjaAddress struct {
	Street   string `json:"street"`
	Number   string `json:"number"`
	Details  string `json:"details"`
	District string `json:"district"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

type cnpjaPhone struct {
	Area   string `json:"area"`
	Number string `json:"number"`
}

type cnpjaActivity struct {
	Description string `json:"description"`
	Text        string `json:"text"`
	Primary     bool   `json:"primary"`
}

type cnpjaResponse struct {
	// Legacy generation: cnpj at the top level, labels under company.
	CNPJ       string          `json:"cnpj"`
	Capital    float64         `json:"capital"`
	Activities []cnpjaActivity `json:"activities"`

	// Current generation: taxId at the top level.
	TaxID        string          `json:"taxId"`
	Alias        string          `json:"alias"`
	Founded      string          `json:"founded"`
	Status       json.RawMessage `json:"status"`
	MainActivity cnpjaActivity   `json:"mainActivity"`

	Company cnpjaCompanyInfo `json:"company"`
	Address cnpjaAddress     `json:"address"`
	Phones  []cnpjaPhone     `json:"phones"`
	Emails  json.RawMessage  `json:"emails"`
}

func (d *CNPJA) Lookup(ctx context.Context, key string) (*company.Company, error) {
	bare, formatted, err := normalizeCNPJ(key)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", d.client.baseURL, bare)
	var payload cnpjaResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		var status *StatusError
		if errors.As(err, &status) {
			switch status.Status {
			case http.StatusNotFound:
				return nil, apperrors.NewNotFoundError(d.Name(), formatted)
			case http.StatusForbidden:
				return nil, apperrors.NewBlockedError(d.Name(), status.Status)
			}
		}
		return nil, fmt.Errorf("cnpja request failed: %w", err)
	}
	if payload.CNPJ == "" && payload.TaxID == "" {
		return nil, apperrors.NewNotFoundError(d.Name(), formatted)
	}

	c := company.New(formatted)
	c.LegalName = payload.Company.Name
	if c.LegalName == "" {
		c.LegalName = "Unknown Company"
	}
	c.CompanySize = payload.Company.Size.label()
	c.LegalNature = payload.Company.Nature.label()

	if payload.TaxID != "" {
		// Current generation.
		c.TradeName = payload.Alias
		if status := decodeStatusText(payload.Status); status != "" {
			c.Status = status
		}
		c.RegistrationDate = payload.Founded
		c.PrimaryActivity = d.currentActivity(payload.MainActivity)
		c.ShareCapital = payload.Company.Equity
	} else {
		// Legacy generation.
		c.TradeName = payload.Company.Alias
		if payload.Company.Status != "" {
			c.Status = payload.Company.Status
		}
		c.RegistrationDate = payload.Company.Founded
		c.PrimaryActivity = d.legacyActivity(payload.Activities)
		c.ShareCapital = payload.Capital
	}

	if len(payload.Phones) > 0 {
		c.Phone = formatPhone(payload.Phones[0].Area, payload.Phones[0].Number)
	}
	c.Email = decodeFirstEmail(payload.Emails)

	c.Address = d.client.buildAddress(ctx, providerAddress{
		Street:       joinStreet(payload.Address.Street, payload.Address.Number, payload.Address.Details),
		Neighborhood: payload.Address.District,
		City:         payload.Address.City,
		State:        payload.Address.State,
		PostalCode:   payload.Address.Zip,
	})

	c.MarkVerified(d.Name())
	return c, nil
}

func (d *CNPJA) currentActivity(main cnpjaActivity) string {
	if main.Text != "" {
		return main.Text
	}
	return main.Description
}

// legacyActivity picks the activity flagged primary, falling back to the
// first listed one.
func (d *CNPJA) legacyActivity(activities []cnpjaActivity) string {
	for _, activity := range activities {
		if activity.Primary {
			return activity.Description
		}
	}
	if len(activities) > 0 {
		return activities[0].Description
	}
	return ""
}

// decodeStatusText accepts both status shapes: the current generation's
// {"text": "Ativa"} object and a plain string.
func decodeStatusText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	return ""
}

// decodeFirstEmail accepts both email shapes: the legacy list of strings
// and the current list of {"address": ...} objects.
func decodeFirstEmail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var objs []struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &objs); err == nil && len(objs) > 0 {
		return objs[0].Address
	}
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil && len(plain) > 0 {
		return plain[0]
	}
	return ""
}
