package cnpj

import (
	"context"
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

const cnpjwsBaseURL = "https://publica.cnpj.ws/cnpj"

// cnpjwsLimiter paces every CNPJ.ws driver in the process: the public
// endpoint allows three requests per minute.
var cnpjwsLimiter = ratelimit.NewEvery("cnpjws", 20*time.Second)

// CNPJWS looks up companies through the publica.cnpj.ws registry mirror,
// which nests establishment data under the company record.
type CNPJWS struct {
	client clientConfig
}

// NewCNPJWS creates a CNPJ.ws company driver.
func NewCNPJWS(opts ...Option) *CNPJWS {
	defaults := []Option{WithRateLimiter(cnpjwsLimiter)}
	cfg := newClientConfig("cnpjws", cnpjwsBaseURL, append(defaults, opts...)...)
	cfg.backoffBase = 20 * time.Second
	cfg.backoffMax = 60 * time.Second
	return &CNPJWS{client: cfg}
}

func (d *CNPJWS) Name() string { return "cnpjws" }

type cnpjwsLabel struct {
	Descricao string `json:"descricao"`
}

type cnpjwsOffice struct {
	SituacaoCadastral   string      `json:"situacao_cadastral"`
	NomeFantasia        string      `json:"nome_fantasia"`
	DataInicioAtividade string      `json:"data_inicio_atividade"`
	Email               string      `json:"email"`
	DDD1                string      `json:"ddd1"`
	Telefone1           string      `json:"telefone1"`
	AtividadePrincipal  cnpjwsLabel `json:"atividade_principal"`

	TipoLogradouro string `json:"tipo_logradouro"`
	Logradouro     string `json:"logradouro"`
	Numero         string `json:"numero"`
	Complemento    string `json:"complemento"`
	Bairro         string `json:"bairro"`
	CEP            string `json:"cep"`
	Cidade         struct {
		Nome string `json:"nome"`
	} `json:"cidade"`
	Estado struct {
		Sigla string `json:"sigla"`
	} `json:"estado"`
}

type cnpjwsResponse struct {
	RazaoSocial      string        `json:"razao_social"`
	CapitalSocial    string        `json:"capital_social"`
	Porte            cnpjwsLabel   `json:"porte"`
	NaturezaJuridica cnpjwsLabel   `json:"natureza_juridica"`
	Estabelecimento  *cnpjwsOffice `json:"estabelecimento"`
}

func (d *CNPJWS) Lookup(ctx context.Context, key string) (*company.Company, error) {
	bare, formatted, err := normalizeCNPJ(key)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", d.client.baseURL, bare)
	var payload cnpjwsResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(d.Name(), formatted)
		}
		return nil, fmt.Errorf("cnpjws request failed: %w", err)
	}
	office := payload.Estabelecimento
	if office == nil {
		return nil, apperrors.NewNotFoundError(d.Name(), formatted)
	}

	c := company.New(formatted)
	c.LegalName = payload.RazaoSocial
	if c.LegalName == "" {
		c.LegalName = "Unknown Company"
	}
	c.TradeName = office.NomeFantasia
	if office.SituacaoCadastral != "" {
		c.Status = office.SituacaoCadastral
	}
	c.RegistrationDate = office.DataInicioAtividade
	c.Email = office.Email
	c.Phone = formatPhone(office.DDD1, office.Telefone1)
	c.PrimaryActivity = office.AtividadePrincipal.Descricao
	c.CompanySize = payload.Porte.Descricao
	c.LegalNature = payload.NaturezaJuridica.Descricao
	if payload.CapitalSocial != "" {
		if capital, err := strconv.ParseFloat(payload.CapitalSocial, 64); err == nil {
			c.ShareCapital = capital
		}
	}

	street := strings.TrimSpace(office.TipoLogradouro + " " + office.Logradouro)
	c.Address = d.client.buildAddress(ctx, providerAddress{
		Street:       joinStreet(street, office.Numero, office.Complemento),
		Neighborhood: office.Bairro,
		City:         office.Cidade.Nome,
		State:        office.Estado.Sigla,
		PostalCode:   office.CEP,
	})

	c.MarkVerified(d.Name())
	return c, nil
}
