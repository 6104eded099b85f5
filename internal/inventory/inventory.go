// Package inventory reserves and releases units of a package's finite
// ticket pool. Every mutation is a single atomic conditional update; sold
// out is a normal outcome, not an error.
package inventory

import (
	"context"

	"github.com/venuehub/venue-booking/internal/domain"
)

// ReserveResult is the outcome of a reservation attempt.
type ReserveResult struct {
	// Success is false when the package had fewer than the requested units.
	Success   bool
	Remaining int
}

// ReleaseResult is the outcome of returning units to the pool.
type ReleaseResult struct {
	Remaining int
	// Clamped reports that the release would have pushed remaining past
	// total and was capped. This indicates a double-release bug upstream.
	Clamped bool
}

// Inventory mutates a package's remaining ticket count.
type Inventory interface {
	// Reserve decrements remaining by qty only if remaining >= qty. A
	// failed condition returns Success=false with no mutation.
	Reserve(ctx context.Context, packageID string, qty int) (*ReserveResult, error)
	// Release increments remaining by qty, capped at total.
	Release(ctx context.Context, packageID string, qty int) (*ReleaseResult, error)
}

// PackageRepository owns package records themselves.
type PackageRepository interface {
	Create(ctx context.Context, pkg *domain.Package) error
	GetByID(ctx context.Context, id string) (*domain.Package, error)
	// UpdateTotal changes a package's total ticket count, shifting remaining
	// by the same delta. It fails with a capacity error if the edit would
	// drive remaining negative. It must be validated against the live
	// counters, so callers go through the selected inventory backend.
	UpdateTotal(ctx context.Context, id string, newTotal int) (*domain.Package, error)
}

// PackageStore is the authoritative package backend the Redis inventory
// delegates to: GetByID seeds the counter hashes and SetCounters writes the
// post-edit counters back after a total edit validated in Redis.
type PackageStore interface {
	PackageRepository
	SetCounters(ctx context.Context, id string, total, remaining int) (*domain.Package, error)
}
