// Package errors defines the typed errors shared by the provider drivers.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// NotFoundError reports that the upstream registry has no record for a key.
// Drivers return it for provider-level "not found" signals (HTTP 404, ViaCEP's
// erro field, WideNet's ok=false) so the race coordinator and callers can tell
// "key does not exist" from transport failures.
type NotFoundError struct {
	Driver string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no record for %q", e.Driver, e.Key)
}

// NewNotFoundError creates a NotFoundError for the given driver and key.
func NewNotFoundError(driver, key string) *NotFoundError {
	return &NotFoundError{Driver: driver, Key: key}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var notFound *NotFoundError
	return stdErrors.As(err, &notFound)
}
