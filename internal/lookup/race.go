package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultTimeout bounds a whole race unless overridden per call.
	DefaultTimeout = 10 * time.Second

	// maxGraceWindow caps the extra wait granted to in-flight drivers
	// when the fastest completions all failed.
	maxGraceWindow = 2 * time.Second
)

// graceWindow sizes the late-arrival window for a race: a fifth of the
// overall timeout, never more than maxGraceWindow.
func graceWindow(timeout time.Duration) time.Duration {
	w := timeout / 5
	if w > maxGraceWindow {
		w = maxGraceWindow
	}
	return w
}

// runRace implements first-to-respond selection across the given drivers.
//
// Every driver runs as its own task and resolves to exactly one Outcome.
// The race blocks until the first completion (success or failure), then
// scans the batch of ready outcomes in arrival order. A success wins
// immediately and the remaining tasks are cancelled. When the whole batch
// failed, in-flight drivers get one bounded grace window to still deliver
// a success before the race concludes. Races with zero completions inside
// the timeout fail with TimeoutError; races where every driver answered
// but none succeeded fail with AllFailedError.
func runRace[T any](ctx context.Context, pool *Pool, key string, drivers []Driver[T], timeout time.Duration) (T, error) {
	var zero T
	start := time.Now()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to task count so abandoned tasks never block on delivery.
	outcomes := make(chan Outcome[T], len(drivers))
	for _, driver := range drivers {
		go runTask(raceCtx, pool, driver, key, outcomes)
	}

	overall := time.NewTimer(timeout)
	defer overall.Stop()

	// First-completion wait: an outcome carrying an error counts too.
	var first Outcome[T]
	select {
	case first = <-outcomes:
	case <-overall.C:
		elapsed := time.Since(start)
		slog.Warn("Lookup timed out with no responses", "key", sanitizeKey(key), "timeout", timeout)
		return zero, NewTimeoutError(key, timeout, elapsed)
	case <-ctx.Done():
		return zero, fmt.Errorf("lookup cancelled: %w", ctx.Err())
	}

	// Collect everything that is already resolved alongside the first
	// completion, preserving arrival order.
	batch := []Outcome[T]{first}
drain:
	for {
		select {
		case outcome := <-outcomes:
			batch = append(batch, outcome)
		default:
			break drain
		}
	}

	failures := make(map[string]error, len(drivers))
	for _, outcome := range batch {
		if outcome.Err == nil {
			cancel()
			slog.Info("First response won lookup",
				"driver", outcome.Driver, "key", sanitizeKey(key), "elapsed", time.Since(start))
			return outcome.Value, nil
		}
		slog.Debug("Driver failed during lookup",
			"driver", outcome.Driver, "key", sanitizeKey(key), "error", outcome.Err)
		failures[outcome.Driver] = outcome.Err
	}

	// Everything completed so far failed. Give the drivers still in
	// flight a short window to deliver a success before giving up.
	completed := len(batch)
	if completed < len(drivers) {
		grace := graceWindow(timeout)
		if remaining := timeout - time.Since(start); grace > remaining {
			grace = remaining
		}

		if grace > 0 {
			slog.Debug("First responses all failed, waiting for stragglers",
				"key", sanitizeKey(key), "grace", grace, "pending", len(drivers)-completed)

			graceTimer := time.NewTimer(grace)
			defer graceTimer.Stop()

		graceLoop:
			for completed < len(drivers) {
				select {
				case outcome := <-outcomes:
					completed++
					if outcome.Err == nil {
						cancel()
						slog.Info("Late response won lookup",
							"driver", outcome.Driver, "key", sanitizeKey(key), "elapsed", time.Since(start))
						return outcome.Value, nil
					}
					slog.Debug("Driver failed during lookup",
						"driver", outcome.Driver, "key", sanitizeKey(key), "error", outcome.Err)
					failures[outcome.Driver] = outcome.Err
				case <-graceTimer.C:
					break graceLoop
				case <-ctx.Done():
					return zero, fmt.Errorf("lookup cancelled: %w", ctx.Err())
				}
			}
		}
	}

	cancel()
	// Caller cancellation outranks an all-failed verdict.
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("lookup cancelled: %w", err)
	}

	for _, driver := range drivers {
		if _, ok := failures[driver.Name()]; !ok {
			failures[driver.Name()] = ErrNoResponse
		}
	}

	slog.Error("All drivers failed", "key", sanitizeKey(key), "drivers", len(drivers))
	return zero, NewAllFailedError(key, failures)
}

// runTask executes one driver lookup and always delivers exactly one
// Outcome, converting panics into errors so a misbehaving driver cannot
// take down its siblings.
func runTask[T any](ctx context.Context, pool *Pool, driver Driver[T], key string, outcomes chan<- Outcome[T]) {
	outcome := Outcome[T]{Driver: driver.Name()}
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("driver %s panicked: %v", outcome.Driver, r)
		}
		outcomes <- outcome
	}()

	release, err := pool.Acquire(ctx)
	if err != nil {
		outcome.Err = fmt.Errorf("waiting for lookup slot: %w", err)
		return
	}
	defer release()

	start := time.Now()
	value, err := driver.Lookup(ctx, key)
	if err != nil {
		outcome.Err = err
		return
	}

	slog.Debug("Driver completed lookup",
		"driver", outcome.Driver, "key", sanitizeKey(key), "elapsed", time.Since(start))
	outcome.Value = value
}
