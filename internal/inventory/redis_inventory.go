package inventory

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/logger"
	pkgredis "github.com/venuehub/venue-booking/internal/redis"
)

//go:embed scripts/reserve.lua
var reserveScript string

//go:embed scripts/release.lua
var releaseScript string

//go:embed scripts/update_total.lua
var updateTotalScript string

// Script names for caching
const (
	scriptReserve     = "inventory_reserve"
	scriptRelease     = "inventory_release"
	scriptUpdateTotal = "inventory_update_total"
)

// RedisInventory keeps the hot package counters in Redis hashes mutated by
// Lua scripts, seeding a missing hash from the package store on first touch.
// Package records themselves stay in Postgres; counter-bearing writes go
// through the hash first and are written back.
type RedisInventory struct {
	client   *pkgredis.Client
	packages PackageStore
	group    singleflight.Group
	log      *logger.Logger
}

// NewRedisInventory creates a new RedisInventory
func NewRedisInventory(client *pkgredis.Client, packages PackageStore) *RedisInventory {
	return &RedisInventory{
		client:   client,
		packages: packages,
		log:      logger.Get().Named("inventory.redis"),
	}
}

// LoadScripts loads all Lua scripts into Redis
func (r *RedisInventory) LoadScripts(ctx context.Context) error {
	scripts := map[string]string{
		scriptReserve:     reserveScript,
		scriptRelease:     releaseScript,
		scriptUpdateTotal: updateTotalScript,
	}
	for name, script := range scripts {
		if _, err := r.client.LoadScript(ctx, name, script); err != nil {
			return fmt.Errorf("failed to load script %s: %w", name, err)
		}
	}
	return nil
}

func inventoryKey(packageID string) string {
	return fmt.Sprintf("package:inventory:%s", packageID)
}

// Reserve atomically reserves units via Lua script, seeding the counter hash
// from the package repository if it is missing.
func (r *RedisInventory) Reserve(ctx context.Context, packageID string, qty int) (*ReserveResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := r.eval(ctx, scriptReserve, reserveScript, packageID, qty)
	if err != nil {
		return nil, err
	}

	if !result.ok && result.code == "PACKAGE_NOT_FOUND" {
		if err := r.seed(ctx, packageID); err != nil {
			return nil, err
		}
		result, err = r.eval(ctx, scriptReserve, reserveScript, packageID, qty)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case result.ok:
		return &ReserveResult{Success: true, Remaining: result.remaining}, nil
	case result.code == "SOLD_OUT":
		return &ReserveResult{Success: false, Remaining: result.remaining}, nil
	case result.code == "PACKAGE_NOT_FOUND":
		return nil, domain.ErrPackageNotFound
	default:
		return nil, fmt.Errorf("unexpected reserve script result: %s", result.code)
	}
}

// Release returns units to the pool, capped at total.
func (r *RedisInventory) Release(ctx context.Context, packageID string, qty int) (*ReleaseResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := r.eval(ctx, scriptRelease, releaseScript, packageID, qty)
	if err != nil {
		return nil, err
	}
	if !result.ok {
		if result.code == "PACKAGE_NOT_FOUND" {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("unexpected release script result: %s", result.code)
	}

	if result.clamped {
		r.log.Error("release clamped at total, likely double release",
			zap.String("package_id", packageID),
			zap.Int("quantity", qty),
			zap.Int("remaining", result.remaining),
		)
	}

	return &ReleaseResult{Remaining: result.remaining, Clamped: result.clamped}, nil
}

// Create inserts the authoritative package record. The counter hash is lazily
// seeded on first reservation.
func (r *RedisInventory) Create(ctx context.Context, pkg *domain.Package) error {
	return r.packages.Create(ctx, pkg)
}

// GetByID retrieves the authoritative package record.
func (r *RedisInventory) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	return r.packages.GetByID(ctx, id)
}

// UpdateTotal changes the total ticket count. The edit is validated against
// the live Redis counters, then written back to the package store so a later
// reseed starts from the edited numbers.
func (r *RedisInventory) UpdateTotal(ctx context.Context, id string, newTotal int) (*domain.Package, error) {
	if newTotal < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := r.eval(ctx, scriptUpdateTotal, updateTotalScript, id, newTotal)
	if err != nil {
		return nil, err
	}

	if !result.ok && result.code == "PACKAGE_NOT_FOUND" {
		if err := r.seed(ctx, id); err != nil {
			return nil, err
		}
		result, err = r.eval(ctx, scriptUpdateTotal, updateTotalScript, id, newTotal)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case result.ok:
	case result.code == "TOTAL_BELOW_RESERVED":
		return nil, domain.ErrTotalBelowReserved
	case result.code == "TOTAL_LOCKED_AT_ZERO":
		return nil, domain.ErrTotalLockedAtZero
	case result.code == "PACKAGE_NOT_FOUND":
		return nil, domain.ErrPackageNotFound
	default:
		return nil, fmt.Errorf("unexpected update total script result: %s", result.code)
	}

	pkg, err := r.packages.SetCounters(ctx, id, newTotal, result.remaining)
	if err != nil {
		// The hash already carries the new counters; report the failed
		// write-back so the admin retries rather than trusting a stale record.
		r.log.Error("failed to write package total edit through",
			zap.String("package_id", id),
			zap.Int("total", newTotal),
			zap.Int("remaining", result.remaining),
			zap.Error(err),
		)
		return nil, err
	}
	return pkg, nil
}

type scriptResult struct {
	ok        bool
	remaining int
	clamped   bool
	code      string
}

func (r *RedisInventory) eval(ctx context.Context, name, script, packageID string, qty int) (*scriptResult, error) {
	cmd := r.client.EvalWithFallback(ctx, name, script, []string{inventoryKey(packageID)}, qty)
	if cmd.Err() != nil {
		return nil, fmt.Errorf("failed to execute %s script: %w", name, cmd.Err())
	}

	values, err := cmd.Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s script result: %w", name, err)
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("unexpected %s script result length: %d", name, len(values))
	}

	success, _ := toInt64(values[0])
	if success == 1 {
		remaining, _ := toInt64(values[1])
		clamped := false
		if len(values) > 2 {
			c, _ := toInt64(values[2])
			clamped = c == 1
		}
		return &scriptResult{ok: true, remaining: int(remaining), clamped: clamped}, nil
	}

	code, _ := values[1].(string)
	res := &scriptResult{ok: false, code: code}
	if len(values) > 2 {
		remaining, _ := toInt64(values[2])
		res.remaining = int(remaining)
	}
	return res, nil
}

// seed populates the counter hash from the authoritative package record.
// Single-flight so a burst of first touches issues one repository read.
func (r *RedisInventory) seed(ctx context.Context, packageID string) error {
	_, err, _ := r.group.Do(packageID, func() (interface{}, error) {
		pkg, err := r.packages.GetByID(ctx, packageID)
		if err != nil {
			return nil, err
		}
		// HSETNX on remaining so a script that raced the seed wins.
		pipe := r.client.Redis().TxPipeline()
		pipe.HSetNX(ctx, inventoryKey(packageID), "remaining", pkg.Remaining)
		pipe.HSetNX(ctx, inventoryKey(packageID), "total", pkg.Total)
		_, err = pipe.Exec(ctx)
		return nil, err
	})
	return err
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		var out int64
		_, err := fmt.Sscanf(n, "%d", &out)
		return out, err == nil
	}
	return 0, false
}
