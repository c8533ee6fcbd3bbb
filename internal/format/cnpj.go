package format

import (
	"fmt"
	"strings"
)

// Mod-11 weight tables for the two CNPJ check digits.
var (
	cnpjWeightsFirst  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CleanCNPJ strips formatting from a CNPJ and returns its 14 bare digits.
// Accepts "11.222.333/0001-81", "11222333000181" and anything in between.
// Check digits are not verified here; use ValidateCNPJ for that.
func CleanCNPJ(raw string) (string, error) {
	d := digits(raw)
	if len(d) != 14 {
		return "", fmt.Errorf("%w: %q has %d digits, want 14", ErrInvalidCNPJ, raw, len(d))
	}
	return d, nil
}

// FormatCNPJ returns the canonical NN.NNN.NNN/NNNN-NN display form.
func FormatCNPJ(raw string) (string, error) {
	d, err := CleanCNPJ(raw)
	if err != nil {
		return "", err
	}
	return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:], nil
}

// ValidateCNPJ verifies the two mod-11 check digits. Numbers made of a single
// repeated digit (00000000000000, 11111111111111, ...) pass the checksum but
// are never issued, so they are rejected explicitly.
func ValidateCNPJ(raw string) error {
	d, err := CleanCNPJ(raw)
	if err != nil {
		return err
	}
	if strings.Count(d, d[:1]) == len(d) {
		return fmt.Errorf("%w: %q is a repeated-digit number", ErrInvalidCNPJ, raw)
	}
	if got, want := cnpjCheckDigit(d, cnpjWeightsFirst), int(d[12]-'0'); got != want {
		return fmt.Errorf("%w: %q first check digit is %d, want %d", ErrInvalidCNPJ, raw, want, got)
	}
	if got, want := cnpjCheckDigit(d, cnpjWeightsSecond), int(d[13]-'0'); got != want {
		return fmt.Errorf("%w: %q second check digit is %d, want %d", ErrInvalidCNPJ, raw, want, got)
	}
	return nil
}

// ValidCNPJ reports whether raw is a well-formed CNPJ with valid check digits.
func ValidCNPJ(raw string) bool {
	return ValidateCNPJ(raw) == nil
}

func cnpjCheckDigit(d string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(d[i]-'0') * w
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}
