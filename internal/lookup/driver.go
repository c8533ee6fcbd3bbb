// Package lookup implements the first-to-respond driver racing shared by
// the postal code and company managers.
//
// A Manager owns a registry of named driver factories and a bounded pool
// of lookup slots. FirstResponse races a set of drivers for one key and
// returns the first successful answer, tolerating individual failures and
// granting slower drivers a short grace window when the fastest
// completions turn out to be errors.
package lookup

import "context"

// Driver is a provider-specific client resolving one lookup key into a
// domain object. Implementations validate their own input and return
// typed errors for malformed keys, not-found and upstream failures.
type Driver[T any] interface {
	// Name identifies the driver in logs, errors and cache keys.
	Name() string
	// Lookup resolves key, honouring ctx for cancellation.
	Lookup(ctx context.Context, key string) (T, error)
}

// Factory constructs a fresh driver instance. A factory runs once per
// driver per race, so it should be cheap; shared state such as HTTP
// clients belongs in the enclosing closure.
type Factory[T any] func() (Driver[T], error)

// Outcome is the uniform result every race task resolves to, success or
// failure, so the coordinator never needs to branch on error types to
// decide how to continue.
type Outcome[T any] struct {
	Value  T
	Driver string
	Err    error
}
