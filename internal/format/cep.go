// Package format cleans and formats Brazilian document numbers: CEP postal
// codes (8 digits, displayed NNNNN-NNN) and CNPJ company registration numbers
// (14 digits, displayed NN.NNN.NNN/NNNN-NN, with mod-11 check digits).
package format

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCEP is wrapped by all CEP validation failures.
	ErrInvalidCEP = errors.New("invalid CEP")
	// ErrInvalidCNPJ is wrapped by all CNPJ validation failures.
	ErrInvalidCNPJ = errors.New("invalid CNPJ")
)

// digits strips everything but ASCII digits from s.
func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// CleanCEP strips formatting from a CEP and returns its 8 bare digits.
// Accepts "88304-053", "88304053" and anything in between.
func CleanCEP(raw string) (string, error) {
	d := digits(raw)
	if len(d) != 8 {
		return "", fmt.Errorf("%w: %q has %d digits, want 8", ErrInvalidCEP, raw, len(d))
	}
	return d, nil
}

// FormatCEP returns the canonical NNNNN-NNN display form.
func FormatCEP(raw string) (string, error) {
	d, err := CleanCEP(raw)
	if err != nil {
		return "", err
	}
	return d[:5] + "-" + d[5:], nil
}

// ValidCEP reports whether raw contains a well-formed CEP.
func ValidCEP(raw string) bool {
	_, err := CleanCEP(raw)
	return err == nil
}
