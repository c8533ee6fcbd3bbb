package cnpj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/cadastro/internal/company"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
	"github.com/lepinkainen/cadastro/internal/ratelimit"
)

const openCNPJBaseURL = "https://api.opencnpj.org"

// openCNPJLimiter paces every OpenCNPJ driver in the process at one
// request per second.
var openCNPJLimiter = ratelimit.NewEvery("opencnpj", time.Second)

// OpenCNPJ looks up companies through api.opencnpj.org, which serves the
// federal revenue registry as flat records.
type OpenCNPJ struct {
	client clientConfig
}

// NewOpenCNPJ creates an OpenCNPJ company driver.
func NewOpenCNPJ(opts ...Option) *OpenCNPJ {
	defaults := []Option{WithRateLimiter(openCNPJLimiter)}
	cfg := newClientConfig("opencnpj", openCNPJBaseURL, append(defaults, opts...)...)
	cfg.backoffBase = time.Second
	cfg.backoffMax = 5 * time.Second
	return &OpenCNPJ{client: cfg}
}

func (d *OpenCNPJ) Name() string { return "opencnpj" }

type openCNPJResponse struct {
	CNPJ                string          `json:"cnpj"`
	RazaoSocial         string          `json:"razao_social"`
	NomeFantasia        string          `json:"nome_fantasia"`
	SituacaoCadastral   string          `json:"situacao_cadastral"`
	DataInicioAtividade string          `json:"data_inicio_atividade"`
	NaturezaJuridica    string          `json:"natureza_juridica"`
	Porte               string          `json:"porte"`
	Telefone1           string          `json:"telefone_1"`
	Telefone2           string          `json:"telefone_2"`
	Email               string          `json:"email"`
	AtividadePrincipal  json.RawMessage `json:"atividade_principal"`
	CapitalSocial       string          `json:"capital_social"`

	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Municipio   string `json:"municipio"`
	UF          string `json:"uf"`
	CEP         string `json:"cep"`
}

func (d *OpenCNPJ) Lookup(ctx context.Context, key string) (*company.Company, error) {
	bare, formatted, err := normalizeCNPJ(key)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", d.client.baseURL, bare)
	var payload openCNPJResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(d.Name(), formatted)
		}
		return nil, fmt.Errorf("opencnpj request failed: %w", err)
	}
	if payload.CNPJ == "" {
		return nil, apperrors.NewNotFoundError(d.Name(), formatted)
	}

	c := company.New(formatted)
	c.LegalName = payload.RazaoSocial
	if c.LegalName == "" {
		c.LegalName = "Unknown Company"
	}
	c.TradeName = payload.NomeFantasia
	if payload.SituacaoCadastral != "" {
		c.Status = payload.SituacaoCadastral
	}
	c.RegistrationDate = payload.DataInicioAtividade
	c.Email = payload.Email
	c.Phone = payload.Telefone1
	if c.Phone == "" {
		c.Phone = payload.Telefone2
	}
	c.PrimaryActivity = decodeActivity(payload.AtividadePrincipal)
	c.CompanySize = payload.Porte
	c.LegalNature = payload.NaturezaJuridica
	c.ShareCapital = parseShareCapital(payload.CapitalSocial)

	c.Address = d.client.buildAddress(ctx, providerAddress{
		Street:       joinStreet(payload.Logradouro, payload.Numero, payload.Complemento),
		Neighborhood: payload.Bairro,
		City:         payload.Municipio,
		State:        payload.UF,
		PostalCode:   payload.CEP,
	})

	c.MarkVerified(d.Name())
	return c, nil
}

// decodeActivity accepts both activity shapes OpenCNPJ has served: an
// object with a descricao field and a plain string.
func decodeActivity(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Descricao string `json:"descricao"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Descricao != "" {
		return obj.Descricao
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	return ""
}

// parseShareCapital accepts both plain decimals ("10000.00") and Brazilian
// currency strings ("R$ 10.000,00").
func parseShareCapital(raw string) float64 {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	capital, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return capital
}
