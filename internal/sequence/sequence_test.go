package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/venuehub/venue-booking/internal/domain"
)

// memoryCounterStore is an unlocked in-memory CounterStore. The generator
// owns mutual exclusion, so the store itself stays bare.
type memoryCounterStore struct {
	values map[string]int64
}

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{values: make(map[string]int64)}
}

func (s *memoryCounterStore) Get(ctx context.Context, key string) (int64, error) {
	return s.values[key], nil
}

func (s *memoryCounterStore) Put(ctx context.Context, key string, value int64) error {
	s.values[key] = value
	return nil
}

// failingCounterStore fails Put to exercise the generator's error path.
type failingCounterStore struct {
	putErr error
}

func (s *failingCounterStore) Get(ctx context.Context, key string) (int64, error) { return 5, nil }
func (s *failingCounterStore) Put(ctx context.Context, key string, value int64) error {
	return s.putErr
}

func TestLocalGenerator_NextIsMonotonic(t *testing.T) {
	gen := NewLocalGenerator(newMemoryCounterStore())
	ctx := context.Background()

	for want := int64(1); want <= 10; want++ {
		got, err := gen.Next(ctx, "orders")
		if err != nil {
			t.Fatalf("Next() unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
}

func TestLocalGenerator_KeysAreIndependent(t *testing.T) {
	gen := NewLocalGenerator(newMemoryCounterStore())
	ctx := context.Background()

	if _, err := gen.Next(ctx, "orders"); err != nil {
		t.Fatalf("Next() unexpected error: %v", err)
	}
	got, err := gen.Next(ctx, "invoices")
	if err != nil {
		t.Fatalf("Next() unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("Next() on fresh key = %d, want 1", got)
	}
}

func TestLocalGenerator_PreviousRetractsNext(t *testing.T) {
	gen := NewLocalGenerator(newMemoryCounterStore())
	ctx := context.Background()

	if _, err := gen.Next(ctx, "orders"); err != nil {
		t.Fatalf("Next() unexpected error: %v", err)
	}
	if _, err := gen.Next(ctx, "orders"); err != nil {
		t.Fatalf("Next() unexpected error: %v", err)
	}

	got, err := gen.Previous(ctx, "orders")
	if err != nil {
		t.Fatalf("Previous() unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("Previous() = %d, want 1", got)
	}

	// The retracted number is reissued.
	got, err = gen.Next(ctx, "orders")
	if err != nil {
		t.Fatalf("Next() unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("Next() after retraction = %d, want 2", got)
	}
}

func TestLocalGenerator_PreviousUnderflow(t *testing.T) {
	store := newMemoryCounterStore()
	gen := NewLocalGenerator(store)
	ctx := context.Background()

	if _, err := gen.Previous(ctx, "orders"); !errors.Is(err, domain.ErrSequenceUnderflow) {
		t.Fatalf("Previous() on zero counter = %v, want ErrSequenceUnderflow", err)
	}
	// A failed decrement must not mutate the counter.
	if store.values["orders"] != 0 {
		t.Errorf("counter = %d after underflow, want 0", store.values["orders"])
	}
}

func TestLocalGenerator_PutFailureDoesNotAdvance(t *testing.T) {
	putErr := errors.New("store down")
	gen := NewLocalGenerator(&failingCounterStore{putErr: putErr})

	if _, err := gen.Next(context.Background(), "orders"); !errors.Is(err, putErr) {
		t.Fatalf("Next() = %v, want %v", err, putErr)
	}
}

func TestLocalGenerator_ConcurrentNextHasNoDuplicates(t *testing.T) {
	gen := NewLocalGenerator(newMemoryCounterStore())
	ctx := context.Background()

	const workers = 50
	const perWorker = 20

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := gen.Next(ctx, "orders")
				if err != nil {
					t.Errorf("Next() unexpected error: %v", err)
					return
				}
				mu.Lock()
				if seen[n] {
					t.Errorf("Next() issued duplicate %d", n)
				}
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("issued %d distinct numbers, want %d", len(seen), workers*perWorker)
	}
}

func TestLocalGenerator_AcquireHonorsContext(t *testing.T) {
	gen := NewLocalGenerator(newMemoryCounterStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gen.Next(ctx, "orders"); err == nil {
		t.Error("Next() with cancelled context should fail")
	}
}
