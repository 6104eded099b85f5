package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCounterStore persists counters in the sequence_counters table.
type PostgresCounterStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCounterStore creates a new PostgresCounterStore
func NewPostgresCounterStore(pool *pgxpool.Pool) *PostgresCounterStore {
	return &PostgresCounterStore{pool: pool}
}

// Get returns the current counter value for key, 0 if absent.
func (s *PostgresCounterStore) Get(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.pool.QueryRow(ctx,
		`SELECT current_value FROM sequence_counters WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get counter %q: %w", key, err)
	}
	return value, nil
}

// Put upserts the counter value for key.
func (s *PostgresCounterStore) Put(ctx context.Context, key string, value int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sequence_counters (key, current_value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_value = EXCLUDED.current_value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put counter %q: %w", key, err)
	}
	return nil
}
