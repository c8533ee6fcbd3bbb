// Package address defines the normalized address model shared by all
// postal-code and company lookup drivers, loosely following ISO 19160
// structuring: street fields, geographic areas, postal information and
// provider-specific components.
package address

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies what an address is used for.
type Type string

const (
	TypeResidential Type = "residential"
	TypeCommercial  Type = "commercial"
	TypePostal      Type = "postal"
)

// Status tracks the lifecycle of an address record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusVerified Status = "verified"
)

// Country identifies a country by its ISO 3166 codes.
type Country struct {
	Code      string `json:"code"`    // ISO 3166-1 alpha-2
	Alpha3    string `json:"alpha3"`  // ISO 3166-1 alpha-3
	Numeric   string `json:"numeric"` // ISO 3166-1 numeric
	Name      string `json:"name"`
	LocalName string `json:"local_name,omitempty"`
}

// Brazil returns the Country every driver in this toolkit resolves against.
func Brazil() *Country {
	return &Country{Code: "BR", Alpha3: "BRA", Numeric: "076", Name: "Brazil", LocalName: "Brasil"}
}

// Coordinates is a WGS 84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Component carries a provider-specific address attribute that has no
// dedicated field, such as IBGE municipality codes or phone area codes.
type Component struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	ShortName string `json:"short_name,omitempty"`
	LongName  string `json:"long_name,omitempty"`
}

// Address is the payload type produced by postal-code drivers and embedded
// in company records.
type Address struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Street information
	StreetNumber string `json:"street_number,omitempty"`
	StreetName   string `json:"street_name,omitempty"`
	StreetType   string `json:"street_type,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Building     string `json:"building,omitempty"`
	Floor        string `json:"floor,omitempty"`

	// Geographic areas
	Neighborhood         string `json:"neighborhood,omitempty"`
	Locality             string `json:"locality,omitempty"` // city, town, village
	Sublocality          string `json:"sublocality,omitempty"`
	AdministrativeArea1  string `json:"administrative_area_1,omitempty"` // state
	AdministrativeArea2  string `json:"administrative_area_2,omitempty"` // county
	AdministrativeArea3  string `json:"administrative_area_3,omitempty"`

	// Postal information
	PostalCode       string `json:"postal_code,omitempty"`
	PostalCodeSuffix string `json:"postal_code_suffix,omitempty"`

	Country *Country `json:"country,omitempty"`

	AddressType Type   `json:"address_type"`
	Status      Status `json:"status"`

	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Provider-specific extras
	Components []Component `json:"components,omitempty"`

	FormattedAddress      string `json:"formatted_address,omitempty"`
	FormattedAddressLocal string `json:"formatted_address_local,omitempty"`

	// Verification
	IsVerified         bool       `json:"is_verified"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	VerificationSource string     `json:"verification_source,omitempty"`
}

// New returns an empty Address with identity and defaults populated.
func New() *Address {
	return &Address{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		AddressType: TypeResidential,
		Status:      StatusActive,
	}
}

// ErrIncomplete is returned by Validate when an address carries no usable
// location information at all.
var ErrIncomplete = errors.New("address must have at least one of: street name, locality, formatted address")

// Validate checks the minimum-content rule: at least one of street name,
// locality or formatted address must be present.
func (a *Address) Validate() error {
	if a.StreetName == "" && a.Locality == "" && a.FormattedAddress == "" {
		return ErrIncomplete
	}
	return nil
}

// FullStreetAddress combines number, name and type into one line.
func (a *Address) FullStreetAddress() string {
	parts := make([]string, 0, 3)
	if a.StreetNumber != "" {
		parts = append(parts, a.StreetNumber)
	}
	if a.StreetName != "" {
		parts = append(parts, a.StreetName)
	}
	if a.StreetType != "" {
		parts = append(parts, a.StreetType)
	}
	return strings.Join(parts, " ")
}

// AdministrativeHierarchy lists administrative areas from most to least
// specific.
func (a *Address) AdministrativeHierarchy() []string {
	areas := make([]string, 0, 3)
	for _, area := range []string{a.AdministrativeArea3, a.AdministrativeArea2, a.AdministrativeArea1} {
		if area != "" {
			areas = append(areas, area)
		}
	}
	return areas
}

// DisplayName returns a human-readable single line for the address.
func (a *Address) DisplayName() string {
	if a.FormattedAddress != "" {
		return a.FormattedAddress
	}

	parts := make([]string, 0, 5)
	if street := a.FullStreetAddress(); street != "" {
		parts = append(parts, street)
	}
	switch {
	case a.Unit != "":
		parts = append(parts, "Unit "+a.Unit)
	case a.Building != "":
		parts = append(parts, a.Building)
	}
	if a.Locality != "" {
		parts = append(parts, a.Locality)
	}
	if a.AdministrativeArea1 != "" {
		parts = append(parts, a.AdministrativeArea1)
	}
	if a.Country != nil && a.Country.Name != "" {
		parts = append(parts, a.Country.Name)
	}

	if len(parts) == 0 {
		return "Unknown Address"
	}
	return strings.Join(parts, ", ")
}

// IsComplete reports whether the address carries enough information to be
// deliverable: a formatted address, or street plus locality.
func (a *Address) IsComplete() bool {
	if a.FormattedAddress != "" {
		return true
	}
	return a.StreetName != "" && a.Locality != ""
}

// Component returns the component of the given type, or nil.
func (a *Address) Component(componentType string) *Component {
	for i := range a.Components {
		if a.Components[i].Type == componentType {
			return &a.Components[i]
		}
	}
	return nil
}

// AddComponent inserts a component, replacing any existing one of the same
// type.
func (a *Address) AddComponent(componentType, value string) {
	kept := a.Components[:0]
	for _, c := range a.Components {
		if c.Type != componentType {
			kept = append(kept, c)
		}
	}
	a.Components = append(kept, Component{Type: componentType, Value: value})
}

// MarkVerified records that source confirmed this address.
func (a *Address) MarkVerified(source string) {
	now := time.Now().UTC()
	a.IsVerified = true
	a.VerifiedAt = &now
	a.VerificationSource = source
	a.Status = StatusVerified
}
