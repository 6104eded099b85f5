// Package store is the uniform persistence surface for aggregate documents
// (venues, events) and reference entities. Aggregates live as jsonb
// documents, one table per collection, and pick up denormalized reference
// copies through the syncer rather than joins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuehub/venue-booking/internal/domain"
)

// Aggregate is any document the generic store can persist.
type Aggregate interface {
	DocID() string
}

// DocumentStore persists one aggregate collection as jsonb documents.
type DocumentStore[T Aggregate] struct {
	pool  *pgxpool.Pool
	table string
}

// NewDocumentStore creates a store bound to one collection table. table is a
// startup constant, never user input.
func NewDocumentStore[T Aggregate](pool *pgxpool.Pool, table string) *DocumentStore[T] {
	return &DocumentStore[T]{pool: pool, table: table}
}

// Get retrieves a document by ID.
func (s *DocumentStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var raw []byte
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, s.table)
	if err := s.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, domain.ErrDocumentNotFound
		}
		return zero, fmt.Errorf("failed to get document from %s: %w", s.table, err)
	}
	return s.decode(raw)
}

// Create inserts a new document.
func (s *DocumentStore[T]) Create(ctx context.Context, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	now := time.Now()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, s.table)
	if _, err := s.pool.Exec(ctx, query, doc.DocID(), raw, now, now); err != nil {
		return fmt.Errorf("failed to create document in %s: %w", s.table, err)
	}
	return nil
}

// Replace overwrites an existing document wholesale.
func (s *DocumentStore[T]) Replace(ctx context.Context, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	query := fmt.Sprintf(`
		UPDATE %s SET doc = $2, updated_at = now() WHERE id = $1
	`, s.table)
	tag, err := s.pool.Exec(ctx, query, doc.DocID(), raw)
	if err != nil {
		return fmt.Errorf("failed to replace document in %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document by ID.
func (s *DocumentStore[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document from %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// List paginates the collection by insertion time. hasMore reports whether
// another page exists (one extra row is fetched to tell).
func (s *DocumentStore[T]) List(ctx context.Context, limit, offset int) ([]T, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT doc FROM %s ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, s.table)
	rows, err := s.pool.Query(ctx, query, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list documents from %s: %w", s.table, err)
	}
	defer rows.Close()

	var docs []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, false, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := s.decode(raw)
		if err != nil {
			return nil, false, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate documents: %w", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}
	return docs, hasMore, nil
}

func (s *DocumentStore[T]) decode(raw []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}
