package cnpj

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lepinkainen/cadastro/internal/company"
	apperrors "github.com/lepinkainen/cadastro/internal/errors"
)

const brasilAPIBaseURL = "https://brasilapi.com.br/api/cnpj/v1"

// BrasilAPI looks up companies through brasilapi.com.br, which republishes
// the federal revenue service registry.
type BrasilAPI struct {
	client clientConfig
}

// NewBrasilAPI creates a BrasilAPI company driver.
func NewBrasilAPI(opts ...Option) *BrasilAPI {
	return &BrasilAPI{client: newClientConfig("brasilapi", brasilAPIBaseURL, opts...)}
}

func (d *BrasilAPI) Name() string { return "brasilapi" }

type brasilAPIResponse struct {
	CNPJ                       string  `json:"cnpj"`
	RazaoSocial                string  `json:"razao_social"`
	NomeFantasia               string  `json:"nome_fantasia"`
	DescricaoSituacaoCadastral string  `json:"descricao_situacao_cadastral"`
	DataInicioAtividade        string  `json:"data_inicio_atividade"`
	CodigoNaturezaJuridica     int     `json:"codigo_natureza_juridica"`
	CNAEFiscalDescricao        string  `json:"cnae_fiscal_descricao"`
	DescricaoPorte             string  `json:"descricao_porte"`
	CapitalSocial              float64 `json:"capital_social"`
	CorreioEletronico          string  `json:"correio_eletronico"`
	DDDTelefone1               string  `json:"ddd_telefone_1"`
	Telefone1                  string  `json:"telefone_1"`

	DescricaoTipoLogradouro string `json:"descricao_tipo_logradouro"`
	Logradouro              string `json:"logradouro"`
	Numero                  string `json:"numero"`
	Complemento             string `json:"complemento"`
	Bairro                  string `json:"bairro"`
	Municipio               string `json:"municipio"`
	UF                      string `json:"uf"`
	CEP                     string `json:"cep"`
}

func (d *BrasilAPI) Lookup(ctx context.Context, key string) (*company.Company, error) {
	bare, formatted, err := normalizeCNPJ(key)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s", d.client.baseURL, bare)
	var payload brasilAPIResponse
	if err := d.client.getJSON(ctx, endpoint, &payload); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(d.Name(), formatted)
		}
		return nil, fmt.Errorf("brasilapi request failed: %w", err)
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
	if payload.DescricaoSituacaoCadastral != "" {
		c.Status = payload.DescricaoSituacaoCadastral
	}
	c.RegistrationDate = payload.DataInicioAtividade
	c.Email = payload.CorreioEletronico
	c.Phone = d.buildPhone(payload)
	c.PrimaryActivity = payload.CNAEFiscalDescricao
	c.CompanySize = payload.DescricaoPorte
	c.ShareCapital = payload.CapitalSocial
	if payload.CodigoNaturezaJuridica != 0 {
		c.LegalNature = strconv.Itoa(payload.CodigoNaturezaJuridica)
	}

	street := strings.TrimSpace(payload.DescricaoTipoLogradouro + " " + payload.Logradouro)
	c.Address = d.client.buildAddress(ctx, providerAddress{
		Street:       joinStreet(street, payload.Numero, payload.Complemento),
		Neighborhood: payload.Bairro,
		City:         payload.Municipio,
		State:        payload.UF,
		PostalCode:   payload.CEP,
	})

	c.MarkVerified(d.Name())
	return c, nil
}

// buildPhone renders the phone as (DD) NNNNNNNN. BrasilAPI reports the
// subscriber number unsplit, with the area code in its own field.
func (d *BrasilAPI) buildPhone(payload brasilAPIResponse) string {
	area := digitsOnly(payload.DDDTelefone1)
	number := digitsOnly(payload.Telefone1)
	if len(area) != 2 || len(number) < 8 {
		return ""
	}
	return fmt.Sprintf("(%s) %s", area, number)
}
