package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/syncer"
)

// ReferenceStore persists the authoritative reference entities. Every
// successful Update fans out to the sync registry after the write commits,
// which is what keeps the denormalized copies on aggregate documents
// eventually consistent.
type ReferenceStore struct {
	pool     *pgxpool.Pool
	registry *syncer.Registry
}

// NewReferenceStore creates a new ReferenceStore
func NewReferenceStore(pool *pgxpool.Pool, registry *syncer.Registry) *ReferenceStore {
	return &ReferenceStore{pool: pool, registry: registry}
}

// Create inserts a new reference entity.
func (s *ReferenceStore) Create(ctx context.Context, entity *domain.ReferenceEntity) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	now := time.Now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO reference_entities (id, kind, name, icon, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entity.ID, string(entity.Kind), entity.Name, entity.Icon, entity.Active, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reference entity: %w", err)
	}
	return nil
}

// Get retrieves a reference entity by kind and ID.
func (s *ReferenceStore) Get(ctx context.Context, kind domain.ReferenceKind, id string) (*domain.ReferenceEntity, error) {
	entity := &domain.ReferenceEntity{}
	var k string
	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, name, icon, active, created_at, updated_at
		FROM reference_entities
		WHERE kind = $1 AND id = $2
	`, string(kind), id).Scan(&entity.ID, &k, &entity.Name, &entity.Icon, &entity.Active, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, fmt.Errorf("failed to get reference entity: %w", err)
	}
	entity.Kind = domain.ReferenceKind(k)
	return entity, nil
}

// Update replaces the mutable fields of a reference entity and triggers the
// propagator with the before/after pair. The entity's ID and kind are
// immutable. The sync fan-out runs after the update has committed; a
// handler failure leaves the entity updated and the copies briefly stale.
func (s *ReferenceStore) Update(ctx context.Context, entity *domain.ReferenceEntity) (*domain.ReferenceEntity, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	old, err := s.Get(ctx, entity.Kind, entity.ID)
	if err != nil {
		return nil, err
	}

	updated := &domain.ReferenceEntity{}
	var k string
	err = s.pool.QueryRow(ctx, `
		UPDATE reference_entities
		SET name = $3, icon = $4, active = $5, updated_at = now()
		WHERE kind = $1 AND id = $2
		RETURNING id, kind, name, icon, active, created_at, updated_at
	`, string(entity.Kind), entity.ID, entity.Name, entity.Icon, entity.Active,
	).Scan(&updated.ID, &k, &updated.Name, &updated.Icon, &updated.Active, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, fmt.Errorf("failed to update reference entity: %w", err)
	}
	updated.Kind = domain.ReferenceKind(k)

	if s.registry != nil {
		s.registry.Sync(ctx, old, updated)
	}
	return updated, nil
}

// Delete removes a reference entity. Embedded copies are left in place;
// aggregates drop them through their own edits.
func (s *ReferenceStore) Delete(ctx context.Context, kind domain.ReferenceKind, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM reference_entities WHERE kind = $1 AND id = $2
	`, string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete reference entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReferenceNotFound
	}
	return nil
}

// ListByKind paginates one reference collection. It also serves the syncer's
// repair pass as its ReferenceSource.
func (s *ReferenceStore) ListByKind(ctx context.Context, kind domain.ReferenceKind, limit, offset int) ([]*domain.ReferenceEntity, bool, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, name, icon, active, created_at, updated_at
		FROM reference_entities
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(kind), limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list reference entities: %w", err)
	}
	defer rows.Close()

	var entities []*domain.ReferenceEntity
	for rows.Next() {
		entity := &domain.ReferenceEntity{}
		var k string
		if err := rows.Scan(&entity.ID, &k, &entity.Name, &entity.Icon, &entity.Active, &entity.CreatedAt, &entity.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("failed to scan reference entity: %w", err)
		}
		entity.Kind = domain.ReferenceKind(k)
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate reference entities: %w", err)
	}

	hasMore := len(entities) > limit
	if hasMore {
		entities = entities[:limit]
	}
	return entities, hasMore, nil
}
