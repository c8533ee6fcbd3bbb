package errors

import (
	stdErrors "errors"
	"fmt"
)

// BlockedError reports that a provider refused the request outright
// (HTTP 403). CNPJA does this when it temporarily blocks a client; retrying
// is pointless, so drivers fail fast with this error instead.
type BlockedError struct {
	Provider   string
	StatusCode int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: access blocked (HTTP %d)", e.Provider, e.StatusCode)
}

// NewBlockedError creates a BlockedError for the given provider and status.
func NewBlockedError(provider string, statusCode int) *BlockedError {
	return &BlockedError{Provider: provider, StatusCode: statusCode}
}

// IsBlockedError reports whether err is a BlockedError (even when wrapped).
func IsBlockedError(err error) bool {
	var blocked *BlockedError
	return stdErrors.As(err, &blocked)
}
