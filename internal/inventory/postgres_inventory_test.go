package inventory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuehub/venue-booking/internal/domain"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}
}

// getPostgresPool creates a PostgreSQL connection pool for testing
func getPostgresPool(t *testing.T) *pgxpool.Pool {
	skipIfNoIntegration(t)

	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("TEST_POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("TEST_POSTGRES_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("TEST_POSTGRES_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("TEST_POSTGRES_DB")
	if dbname == "" {
		dbname = "venue_booking_test"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping PostgreSQL: %v", err)
	}

	cleanupTestPackages(t, pool)

	return pool
}

func cleanupTestPackages(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM packages WHERE id LIKE 'test-%'")
	if err != nil {
		t.Logf("Warning: failed to clean up packages: %v", err)
	}
}

func createTestPackage(t *testing.T, inv *PostgresInventory, total int) *domain.Package {
	pkg := &domain.Package{
		ID:        "test-" + uuid.New().String(),
		EventID:   "test-event",
		Title:     "Test Package",
		UnitPrice: 100.00,
		Total:     total,
		Remaining: total,
	}
	if err := inv.Create(context.Background(), pkg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return pkg
}

func TestPostgresInventory_ConcurrentReserve(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)
	ctx := context.Background()

	pkg := createTestPackage(t, inv, 10)

	// 20 callers race for 10 units. Exactly 10 must win and the losers must
	// see a clean sold-out result, never an oversold or negative counter.
	const callers = 20
	var wg sync.WaitGroup
	results := make([]*ReserveResult, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = inv.Reserve(ctx, pkg.ID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("Reserve() error = %v", errs[i])
		}
		if results[i].Remaining < 0 {
			t.Errorf("Reserve() Remaining = %d, must never be negative", results[i].Remaining)
		}
		if results[i].Success {
			succeeded++
		}
	}

	if succeeded != 10 {
		t.Errorf("Reserve() succeeded %d times, want 10", succeeded)
	}

	current, err := inv.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if current.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", current.Remaining)
	}
}

func TestPostgresInventory_Reserve_SoldOut(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)
	ctx := context.Background()

	pkg := createTestPackage(t, inv, 1)

	res, err := inv.Reserve(ctx, pkg.ID, 2)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if res.Success {
		t.Error("Reserve() Success = true, want false for insufficient stock")
	}
	if res.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1 untouched", res.Remaining)
	}
}

func TestPostgresInventory_Reserve_NotFound(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)

	_, err := inv.Reserve(context.Background(), "test-"+uuid.New().String(), 1)
	if err != domain.ErrPackageNotFound {
		t.Errorf("Reserve() error = %v, want %v", err, domain.ErrPackageNotFound)
	}
}

func TestPostgresInventory_Release_ClampedAtTotal(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)
	ctx := context.Background()

	pkg := createTestPackage(t, inv, 10)

	if _, err := inv.Reserve(ctx, pkg.ID, 3); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	// A double release must not push remaining past total.
	res, err := inv.Release(ctx, pkg.ID, 5)
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if !res.Clamped {
		t.Error("Release() Clamped = false, want true")
	}
	if res.Remaining != 10 {
		t.Errorf("Remaining = %d, want 10", res.Remaining)
	}
}

func TestPostgresInventory_UpdateTotal_ShiftsRemaining(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)
	ctx := context.Background()

	pkg := createTestPackage(t, inv, 10)

	if _, err := inv.Reserve(ctx, pkg.ID, 4); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	updated, err := inv.UpdateTotal(ctx, pkg.ID, 12)
	if err != nil {
		t.Fatalf("UpdateTotal() error = %v", err)
	}
	if updated.Total != 12 {
		t.Errorf("Total = %d, want 12", updated.Total)
	}
	if updated.Remaining != 8 {
		t.Errorf("Remaining = %d, want 8", updated.Remaining)
	}
}

func TestPostgresInventory_UpdateTotal_BelowReserved(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)
	ctx := context.Background()

	pkg := createTestPackage(t, inv, 10)

	if _, err := inv.Reserve(ctx, pkg.ID, 4); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	_, err := inv.UpdateTotal(ctx, pkg.ID, 3)
	if err != domain.ErrTotalBelowReserved {
		t.Errorf("UpdateTotal() error = %v, want %v", err, domain.ErrTotalBelowReserved)
	}

	current, err := inv.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if current.Total != 10 || current.Remaining != 6 {
		t.Errorf("counters = %d/%d, want untouched 6/10", current.Remaining, current.Total)
	}
}

func TestPostgresInventory_UpdateTotal_LockedAtZero(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)
	ctx := context.Background()

	pkg := createTestPackage(t, inv, 2)

	if _, err := inv.Reserve(ctx, pkg.ID, 2); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	_, err := inv.UpdateTotal(ctx, pkg.ID, 1)
	if err != domain.ErrTotalLockedAtZero {
		t.Errorf("UpdateTotal() error = %v, want %v", err, domain.ErrTotalLockedAtZero)
	}
}

func TestPostgresInventory_GetByID_NotFound(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	inv := NewPostgresInventory(pool)

	_, err := inv.GetByID(context.Background(), "test-"+uuid.New().String())
	if err != domain.ErrPackageNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, domain.ErrPackageNotFound)
	}
}
