package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuehub/venue-booking/internal/domain"
)

// ArrayFieldHandler updates the matching element of an embedded-copy array
// (e.g. venues.doc->'categories') with one filter-scoped statement: only
// documents whose array contains the reference id are touched, and only the
// changed fields of the matching element are set.
type ArrayFieldHandler struct {
	pool  *pgxpool.Pool
	kind  domain.ReferenceKind
	table string
	field string
}

// NewArrayFieldHandler creates a handler for one (kind, table, array field)
// binding. table and field are startup constants, never user input.
func NewArrayFieldHandler(pool *pgxpool.Pool, kind domain.ReferenceKind, table, field string) *ArrayFieldHandler {
	return &ArrayFieldHandler{pool: pool, kind: kind, table: table, field: field}
}

// Kind is the reference-entity kind this handler reacts to
func (h *ArrayFieldHandler) Kind() domain.ReferenceKind { return h.kind }

// Describe names the target collection
func (h *ArrayFieldHandler) Describe() string {
	return fmt.Sprintf("%s.%s", h.table, h.field)
}

// Sync merges the changed fields into every matching array element.
func (h *ArrayFieldHandler) Sync(ctx context.Context, old, updated *domain.ReferenceEntity) error {
	patch, err := changedFields(old, updated)
	if err != nil {
		return err
	}
	if patch == nil {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET doc = jsonb_set(doc, '{%[2]s}', (
			SELECT jsonb_agg(
				CASE WHEN elem->>'id' = $1 THEN elem || $2::jsonb ELSE elem END
			)
			FROM jsonb_array_elements(doc->'%[2]s') elem
		)),
		updated_at = now()
		WHERE doc->'%[2]s' @> jsonb_build_array(jsonb_build_object('id', $1::text))
	`, h.table, h.field)

	if _, err := h.pool.Exec(ctx, query, updated.ID, patch); err != nil {
		return fmt.Errorf("failed to sync %s into %s: %w", updated.Kind, h.Describe(), err)
	}
	return nil
}

// ObjectFieldHandler updates a single embedded-copy object field
// (e.g. venues.doc->'city').
type ObjectFieldHandler struct {
	pool  *pgxpool.Pool
	kind  domain.ReferenceKind
	table string
	field string
}

// NewObjectFieldHandler creates a handler for one (kind, table, object
// field) binding.
func NewObjectFieldHandler(pool *pgxpool.Pool, kind domain.ReferenceKind, table, field string) *ObjectFieldHandler {
	return &ObjectFieldHandler{pool: pool, kind: kind, table: table, field: field}
}

// Kind is the reference-entity kind this handler reacts to
func (h *ObjectFieldHandler) Kind() domain.ReferenceKind { return h.kind }

// Describe names the target collection
func (h *ObjectFieldHandler) Describe() string {
	return fmt.Sprintf("%s.%s", h.table, h.field)
}

// Sync merges the changed fields into the embedded object on every matching
// document.
func (h *ObjectFieldHandler) Sync(ctx context.Context, old, updated *domain.ReferenceEntity) error {
	patch, err := changedFields(old, updated)
	if err != nil {
		return err
	}
	if patch == nil {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET doc = jsonb_set(doc, '{%[2]s}', (doc->'%[2]s') || $2::jsonb),
		    updated_at = now()
		WHERE doc->'%[2]s'->>'id' = $1
	`, h.table, h.field)

	if _, err := h.pool.Exec(ctx, query, updated.ID, patch); err != nil {
		return fmt.Errorf("failed to sync %s into %s: %w", updated.Kind, h.Describe(), err)
	}
	return nil
}

// changedFields builds the jsonb patch holding only the denormalized fields
// that differ between old and updated. old == nil (repair pass) patches all
// of them. nil, nil means nothing changed.
func changedFields(old, updated *domain.ReferenceEntity) ([]byte, error) {
	patch := make(map[string]interface{}, 3)
	if old == nil || old.Name != updated.Name {
		patch["name"] = updated.Name
	}
	if old == nil || old.Icon != updated.Icon {
		patch["icon"] = updated.Icon
	}
	if old == nil || old.Active != updated.Active {
		patch["active"] = updated.Active
	}
	if len(patch) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync patch: %w", err)
	}
	return raw, nil
}
