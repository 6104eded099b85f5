// Package sequence issues collision-free monotonic order numbers keyed by
// name. The store has no multi-document transactions, so the local generator
// serializes read-modify-write cycles behind a weight-1 semaphore; the Redis
// generator leans on the server's native atomic increment instead and is the
// production-hardening path for multi-process deployments.
package sequence

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/venuehub/venue-booking/internal/domain"
)

// Generator issues and retracts monotonic integers keyed by name.
type Generator interface {
	// Next increments the counter for key and returns the new value.
	Next(ctx context.Context, key string) (int64, error)
	// Previous is the compensating decrement for a reservation that consumed
	// a number before failing. It returns the new value.
	Previous(ctx context.Context, key string) (int64, error)
}

// CounterStore persists the singleton-per-key counter records for the local
// generator. Implementations need no internal locking; the generator holds
// the semaphore across Get+Put.
type CounterStore interface {
	// Get returns the current value for key, 0 if the record is absent.
	Get(ctx context.Context, key string) (int64, error)
	// Put upserts the value for key.
	Put(ctx context.Context, key string, value int64) error
}

// LocalGenerator serializes counter mutations behind a process-local
// weight-1 semaphore. Not safe across multiple process instances.
type LocalGenerator struct {
	store CounterStore
	sem   *semaphore.Weighted
}

// NewLocalGenerator creates a generator backed by the given store.
func NewLocalGenerator(store CounterStore) *LocalGenerator {
	return &LocalGenerator{
		store: store,
		sem:   semaphore.NewWeighted(1),
	}
}

// Next increments the counter for key under mutual exclusion.
func (g *LocalGenerator) Next(ctx context.Context, key string) (int64, error) {
	return g.adjust(ctx, key, 1)
}

// Previous decrements the counter for key under mutual exclusion.
func (g *LocalGenerator) Previous(ctx context.Context, key string) (int64, error) {
	return g.adjust(ctx, key, -1)
}

func (g *LocalGenerator) adjust(ctx context.Context, key string, delta int64) (int64, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer g.sem.Release(1)

	current, err := g.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	next := current + delta
	if next < 0 {
		return 0, domain.ErrSequenceUnderflow
	}

	if err := g.store.Put(ctx, key, next); err != nil {
		return 0, err
	}
	return next, nil
}
