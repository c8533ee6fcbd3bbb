// Package ratelimit paces outbound requests so the toolkit honors each
// provider's published request limits.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// noticeableWait is the pacing delay above which Wait logs, so slow bulk
// runs are explainable from the debug log.
const noticeableWait = 500 * time.Millisecond

// Limiter paces requests to a single provider. Driver instances of the
// same provider share one Limiter so the pacing holds process-wide.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter admitting requestsPerSecond, with bursts up to the
// same amount.
func New(name string, requestsPerSecond int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		name:    name,
	}
}

// NewEvery creates a limiter admitting one request per interval with no
// burst beyond the first token. Providers slower than one request per
// second (CNPJA allows one every two seconds, CNPJ.ws three per minute)
// need this instead of New, whose integer rate cannot express sub-1/s
// limits.
func NewEvery(name string, interval time.Duration) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		name:    name,
	}
}

// Wait blocks until the provider's pacing admits another request or ctx
// ends.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	if waited := time.Since(start); waited > noticeableWait {
		slog.Debug("Provider pacing delayed request", "provider", l.name, "waited", waited)
	}
	return nil
}

// Allow reports whether a request may proceed right now without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the provider this limiter paces.
func (l *Limiter) Name() string {
	return l.name
}
