package lookup

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize caps how many driver lookups a manager runs at once.
const DefaultPoolSize = 5

// Pool bounds concurrent driver lookups. One pool is shared per Manager,
// so overlapping races compete for the same slots instead of multiplying
// load on the providers.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool with the given number of slots. Sizes below one
// fall back to DefaultPoolSize.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultPoolSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// function is safe to call more than once.
func (p *Pool) Acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { p.sem.Release(1) })
	}, nil
}

// Size reports the pool capacity.
func (p *Pool) Size() int {
	return p.size
}
