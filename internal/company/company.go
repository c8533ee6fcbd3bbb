// Package company defines the normalized company record produced by CNPJ
// lookup drivers.
package company

import (
	"strings"
	"time"

	"github.com/lepinkainen/cadastro/internal/address"
)

// Company is the payload type produced by company-registry drivers. Fields
// left empty simply were not reported by the provider that produced the
// record.
type Company struct {
	// Identification
	CNPJ      string `json:"cnpj"` // canonical NN.NNN.NNN/NNNN-NN form
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name,omitempty"`

	// Registration
	Status           string `json:"status"`
	RegistrationDate string `json:"registration_date,omitempty"` // ISO date as reported

	Address *address.Address `json:"address,omitempty"`

	// Contact
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`

	// Business profile
	PrimaryActivity string  `json:"primary_activity,omitempty"`
	CompanySize     string  `json:"company_size,omitempty"`
	ShareCapital    float64 `json:"share_capital,omitempty"`
	LegalNature     string  `json:"legal_nature,omitempty"`

	Country *address.Country `json:"country,omitempty"`

	// Verification
	IsVerified         bool      `json:"is_verified"`
	VerificationSource string    `json:"verification_source,omitempty"`
	LastUpdated        time.Time `json:"last_updated"`
}

// New returns a Company with the defaults every driver starts from.
func New(cnpj string) *Company {
	return &Company{
		CNPJ:        cnpj,
		Status:      "UNKNOWN",
		Country:     address.Brazil(),
		LastUpdated: time.Now().UTC(),
	}
}

// DisplayName prefers the trade name and falls back to the legal name.
func (c *Company) DisplayName() string {
	if c.TradeName != "" {
		return c.TradeName
	}
	return c.LegalName
}

// IsActive reports whether the registry lists the company as active.
func (c *Company) IsActive() bool {
	switch strings.ToUpper(c.Status) {
	case "ATIVA", "ACTIVE":
		return true
	}
	return false
}

// FullAddress returns the display form of the company address, or "".
func (c *Company) FullAddress() string {
	if c.Address == nil {
		return ""
	}
	return c.Address.DisplayName()
}

// MarkVerified records that source confirmed this record.
func (c *Company) MarkVerified(source string) {
	c.IsVerified = true
	c.VerificationSource = source
	c.LastUpdated = time.Now().UTC()
}
