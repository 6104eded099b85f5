package inventory

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/venuehub/venue-booking/internal/config"
	"github.com/venuehub/venue-booking/internal/domain"
	pkgredis "github.com/venuehub/venue-booking/internal/redis"
)

// getRedisClient creates a Redis client for testing
func getRedisClient(t *testing.T) *pkgredis.Client {
	skipIfNoIntegration(t)

	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	password := os.Getenv("TEST_REDIS_PASSWORD")

	cfg := &config.RedisConfig{
		Host:         host,
		Port:         6379,
		Password:     password,
		DB:           15, // Use DB 15 for testing
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	ctx := context.Background()
	client, err := pkgredis.NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create Redis client: %v", err)
	}

	// Flush test database
	if err := client.Redis().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test database: %v", err)
	}

	return client
}

// memoryPackageStore is an in-memory PackageStore so the Redis tests exercise
// the Lua scripts and the write-back path without a Postgres instance.
type memoryPackageStore struct {
	mu       sync.Mutex
	packages map[string]*domain.Package

	SetCountersCalls []struct {
		ID               string
		Total, Remaining int
	}
}

func newMemoryPackageStore() *memoryPackageStore {
	return &memoryPackageStore{packages: make(map[string]*domain.Package)}
}

func (m *memoryPackageStore) Create(ctx context.Context, pkg *domain.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pkg
	m.packages[pkg.ID] = &cp
	return nil
}

func (m *memoryPackageStore) GetByID(ctx context.Context, id string) (*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[id]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	cp := *pkg
	return &cp, nil
}

func (m *memoryPackageStore) UpdateTotal(ctx context.Context, id string, newTotal int) (*domain.Package, error) {
	return nil, errors.New("total edits must go through the inventory backend")
}

func (m *memoryPackageStore) SetCounters(ctx context.Context, id string, total, remaining int) (*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[id]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	pkg.Total = total
	pkg.Remaining = remaining
	m.SetCountersCalls = append(m.SetCountersCalls, struct {
		ID               string
		Total, Remaining int
	}{id, total, remaining})
	cp := *pkg
	return &cp, nil
}

func newRedisInventoryForTest(t *testing.T, total int) (*RedisInventory, *memoryPackageStore, string) {
	client := getRedisClient(t)
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryPackageStore()
	inv := NewRedisInventory(client, store)

	ctx := context.Background()
	if err := inv.LoadScripts(ctx); err != nil {
		t.Fatalf("LoadScripts() error = %v", err)
	}

	pkg := &domain.Package{
		ID:        "test-" + uuid.New().String(),
		EventID:   "test-event",
		Title:     "Test Package",
		UnitPrice: 100.00,
		Total:     total,
		Remaining: total,
	}
	if err := inv.Create(ctx, pkg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return inv, store, pkg.ID
}

func TestRedisInventory_ConcurrentReserve(t *testing.T) {
	inv, _, pkgID := newRedisInventoryForTest(t, 10)
	ctx := context.Background()

	// 20 callers race for 10 units through the Lua script. Exactly 10 win.
	const callers = 20
	var wg sync.WaitGroup
	results := make([]*ReserveResult, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = inv.Reserve(ctx, pkgID, 1)
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
}

func TestRedisInventory_Release_ClampedAtTotal(t *testing.T) {
	inv, _, pkgID := newRedisInventoryForTest(t, 10)
	ctx := context.Background()

	if _, err := inv.Reserve(ctx, pkgID, 3); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	res, err := inv.Release(ctx, pkgID, 5)
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

func TestRedisInventory_UpdateTotal_ValidatesAgainstLiveCounters(t *testing.T) {
	inv, store, pkgID := newRedisInventoryForTest(t, 10)
	ctx := context.Background()

	if _, err := inv.Reserve(ctx, pkgID, 4); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	// 4 units are reserved in the hash only. An edit below the reserved
	// count must be rejected against those live counters, not the store.
	if _, err := inv.UpdateTotal(ctx, pkgID, 3); err != domain.ErrTotalBelowReserved {
		t.Errorf("UpdateTotal() error = %v, want %v", err, domain.ErrTotalBelowReserved)
	}

	// An accepted edit shifts remaining by the delta and writes both
	// counters back to the store.
	pkg, err := inv.UpdateTotal(ctx, pkgID, 12)
	if err != nil {
		t.Fatalf("UpdateTotal() error = %v", err)
	}
	if pkg.Total != 12 || pkg.Remaining != 8 {
		t.Errorf("counters = %d/%d, want 8/12", pkg.Remaining, pkg.Total)
	}

	if len(store.SetCountersCalls) != 1 {
		t.Fatalf("SetCounters called %d times, want 1", len(store.SetCountersCalls))
	}
	call := store.SetCountersCalls[0]
	if call.Total != 12 || call.Remaining != 8 {
		t.Errorf("SetCounters(%d, %d), want (12, 8)", call.Total, call.Remaining)
	}
}

func TestRedisInventory_UpdateTotal_LockedAtZero(t *testing.T) {
	inv, _, pkgID := newRedisInventoryForTest(t, 2)
	ctx := context.Background()

	if _, err := inv.Reserve(ctx, pkgID, 2); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	if _, err := inv.UpdateTotal(ctx, pkgID, 1); err != domain.ErrTotalLockedAtZero {
		t.Errorf("UpdateTotal() error = %v, want %v", err, domain.ErrTotalLockedAtZero)
	}
}

func TestRedisInventory_UpdateTotal_SeedsMissingHash(t *testing.T) {
	inv, store, pkgID := newRedisInventoryForTest(t, 10)
	ctx := context.Background()

	// No reservation has touched the hash yet; the first edit seeds it from
	// the store before validating.
	pkg, err := inv.UpdateTotal(ctx, pkgID, 15)
	if err != nil {
		t.Fatalf("UpdateTotal() error = %v", err)
	}
	if pkg.Total != 15 || pkg.Remaining != 15 {
		t.Errorf("counters = %d/%d, want 15/15", pkg.Remaining, pkg.Total)
	}

	stored, err := store.GetByID(ctx, pkgID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Total != 15 || stored.Remaining != 15 {
		t.Errorf("stored counters = %d/%d, want 15/15", stored.Remaining, stored.Total)
	}
}
