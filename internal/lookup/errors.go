package lookup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNoResponse marks drivers that never answered before their race
// concluded. It appears as the per-driver error inside AllFailedError.
var ErrNoResponse = errors.New("no response before race concluded")

// DriverNotFoundError indicates a requested driver name is absent from
// the registry.
type DriverNotFoundError struct {
	Name string
}

func (e *DriverNotFoundError) Error() string {
	return fmt.Sprintf("driver not found: %s", e.Name)
}

// NewDriverNotFoundError creates a new DriverNotFoundError.
func NewDriverNotFoundError(name string) *DriverNotFoundError {
	return &DriverNotFoundError{Name: name}
}

// IsDriverNotFound checks if an error is a DriverNotFoundError.
func IsDriverNotFound(err error) bool {
	var notFound *DriverNotFoundError
	return errors.As(err, &notFound)
}

// DriverLoadError indicates a driver factory failed. During a race the
// affected driver is skipped with a warning; on the single-driver path it
// is returned to the caller.
type DriverLoadError struct {
	Name string
	Err  error
}

func (e *DriverLoadError) Error() string {
	return fmt.Sprintf("failed to load driver %s: %v", e.Name, e.Err)
}

func (e *DriverLoadError) Unwrap() error {
	return e.Err
}

// NewDriverLoadError creates a new DriverLoadError.
func NewDriverLoadError(name string, err error) *DriverLoadError {
	return &DriverLoadError{Name: name, Err: err}
}

// IsDriverLoad checks if an error is a DriverLoadError.
func IsDriverLoad(err error) bool {
	var load *DriverLoadError
	return errors.As(err, &load)
}

// NoDriversError indicates a race had zero usable drivers, either because
// nothing is registered or because every requested driver failed to load.
// No lookup is attempted in that case.
type NoDriversError struct {
	Requested []string
}

func (e *NoDriversError) Error() string {
	if len(e.Requested) == 0 {
		return "no drivers available"
	}
	return fmt.Sprintf("no drivers available (requested: %s)", strings.Join(e.Requested, ", "))
}

// NewNoDriversError creates a new NoDriversError.
func NewNoDriversError(requested []string) *NoDriversError {
	return &NoDriversError{Requested: requested}
}

// IsNoDrivers checks if an error is a NoDriversError.
func IsNoDrivers(err error) bool {
	var none *NoDriversError
	return errors.As(err, &none)
}

// AllFailedError indicates every raced driver completed without a success,
// even after the late-arrival grace window. Failures holds one error per
// driver; drivers that never answered carry ErrNoResponse.
type AllFailedError struct {
	Key      string
	Failures map[string]error
}

func (e *AllFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for name, err := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", name, err))
	}
	sort.Strings(parts)
	return fmt.Sprintf("all drivers failed for %q: %s", e.Key, strings.Join(parts, "; "))
}

// NewAllFailedError creates a new AllFailedError.
func NewAllFailedError(key string, failures map[string]error) *AllFailedError {
	return &AllFailedError{Key: key, Failures: failures}
}

// IsAllFailed checks if an error is an AllFailedError.
func IsAllFailed(err error) bool {
	var all *AllFailedError
	return errors.As(err, &all)
}

// TimeoutError indicates the overall race timeout elapsed before any
// driver completed at all. It is distinct from AllFailedError, which means
// drivers did answer but none succeeded.
type TimeoutError struct {
	Key     string
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lookup for %q timed out after %s (timeout %s)",
		e.Key, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(key string, timeout, elapsed time.Duration) *TimeoutError {
	return &TimeoutError{Key: key, Timeout: timeout, Elapsed: elapsed}
}

// IsTimeout checks if an error is a TimeoutError.
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}
