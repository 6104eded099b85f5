package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/logger"
)

// PostgresInventory implements Inventory and PackageRepository over the
// packages table. All mutations are single conditional statements so a
// racing caller can never observe a partial decrement.
type PostgresInventory struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresInventory creates a new PostgresInventory
func NewPostgresInventory(pool *pgxpool.Pool) *PostgresInventory {
	return &PostgresInventory{pool: pool, log: logger.Get().Named("inventory")}
}

// Reserve decrements remaining by qty only if remaining >= qty.
func (r *PostgresInventory) Reserve(ctx context.Context, packageID string, qty int) (*ReserveResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var remaining int
	err := r.pool.QueryRow(ctx, `
		UPDATE packages
		SET remaining = remaining - $2, updated_at = now()
		WHERE id = $1 AND remaining >= $2
		RETURNING remaining
	`, packageID, qty).Scan(&remaining)

	if err == nil {
		return &ReserveResult{Success: true, Remaining: remaining}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve %d units of package %s: %w", qty, packageID, err)
	}

	// Condition failed: distinguish sold out from an unknown package.
	var current int
	err = r.pool.QueryRow(ctx, `SELECT remaining FROM packages WHERE id = $1`, packageID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to reserve %d units of package %s: %w", qty, packageID, err)
	}
	return &ReserveResult{Success: false, Remaining: current}, nil
}

// Release increments remaining by qty, capped so it never exceeds total.
func (r *PostgresInventory) Release(ctx context.Context, packageID string, qty int) (*ReleaseResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var oldRemaining, remaining, total int
	err := r.pool.QueryRow(ctx, `
		WITH before AS (
			SELECT remaining, total FROM packages WHERE id = $1 FOR UPDATE
		)
		UPDATE packages p
		SET remaining = LEAST(p.remaining + $2, p.total), updated_at = now()
		FROM before
		WHERE p.id = $1
		RETURNING before.remaining, p.remaining, p.total
	`, packageID, qty).Scan(&oldRemaining, &remaining, &total)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to release %d units of package %s: %w", qty, packageID, err)
	}

	clamped := oldRemaining+qty > total
	if clamped {
		r.log.Error("release clamped at total, likely double release",
			zap.String("package_id", packageID),
			zap.Int("quantity", qty),
			zap.Int("old_remaining", oldRemaining),
			zap.Int("total", total),
		)
	}

	return &ReleaseResult{Remaining: remaining, Clamped: clamped}, nil
}

// Create inserts a new package record.
func (r *PostgresInventory) Create(ctx context.Context, pkg *domain.Package) error {
	if err := pkg.Validate(); err != nil {
		return err
	}

	now := time.Now()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO packages (id, event_id, title, unit_price, total, remaining, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pkg.ID, pkg.EventID, pkg.Title, pkg.UnitPrice, pkg.Total, pkg.Remaining, pkg.CreatedAt, pkg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

// GetByID retrieves a package by its ID.
func (r *PostgresInventory) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	pkg := &domain.Package{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, event_id, title, unit_price, total, remaining, created_at, updated_at
		FROM packages
		WHERE id = $1
	`, id).Scan(&pkg.ID, &pkg.EventID, &pkg.Title, &pkg.UnitPrice, &pkg.Total, &pkg.Remaining, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// UpdateTotal changes the total ticket count, shifting remaining by the same
// delta in the same statement so a concurrent reservation cannot slip
// between the validation and the write.
func (r *PostgresInventory) UpdateTotal(ctx context.Context, id string, newTotal int) (*domain.Package, error) {
	if newTotal < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	pkg := &domain.Package{}
	err := r.pool.QueryRow(ctx, `
		UPDATE packages
		SET remaining = remaining + ($2 - total), total = $2, updated_at = now()
		WHERE id = $1 AND remaining + ($2 - total) >= 0
		RETURNING id, event_id, title, unit_price, total, remaining, created_at, updated_at
	`, id, newTotal).Scan(&pkg.ID, &pkg.EventID, &pkg.Title, &pkg.UnitPrice, &pkg.Total, &pkg.Remaining, &pkg.CreatedAt, &pkg.UpdatedAt)

	if err == nil {
		return pkg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update package total: %w", err)
	}

	// Condition failed: classify against the current record.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Remaining == 0 && newTotal < current.Total {
		return nil, domain.ErrTotalLockedAtZero
	}
	return nil, domain.ErrTotalBelowReserved
}

// SetCounters overwrites total and remaining with counters already validated
// elsewhere. The Redis inventory uses it to write a total edit through after
// the Lua script accepted it against the live hash.
func (r *PostgresInventory) SetCounters(ctx context.Context, id string, total, remaining int) (*domain.Package, error) {
	pkg := &domain.Package{}
	err := r.pool.QueryRow(ctx, `
		UPDATE packages
		SET total = $2, remaining = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, event_id, title, unit_price, total, remaining, created_at, updated_at
	`, id, total, remaining).Scan(&pkg.ID, &pkg.EventID, &pkg.Title, &pkg.UnitPrice, &pkg.Total, &pkg.Remaining, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to set package counters: %w", err)
	}
	return pkg, nil
}
