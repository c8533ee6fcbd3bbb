package errors

import (
	stdErrors "errors"
	"fmt"
)

// RateLimitError reports that a provider kept answering HTTP 429 after all
// backoff retries were spent.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: request limit reached", e.Provider)
}

// NewRateLimitError creates a RateLimitError for the given provider.
func NewRateLimitError(provider, message string) *RateLimitError {
	return &RateLimitError{Provider: provider, Message: message}
}

// IsRateLimitError reports whether err is a RateLimitError (even when wrapped).
func IsRateLimitError(err error) bool {
	var rateLimited *RateLimitError
	return stdErrors.As(err, &rateLimited)
}
