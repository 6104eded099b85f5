// Package syncer propagates committed reference-entity changes into the
// denormalized copies embedded inside aggregate documents. Handlers are
// wired into an explicit registry at startup; there is no runtime type
// discovery.
package syncer

import (
	"context"

	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/logger"
)

// Handler pushes one reference kind's changes into one target collection.
// Handlers for the same kind touch disjoint collections, so their order
// must not matter.
type Handler interface {
	// Kind is the reference-entity kind this handler reacts to.
	Kind() domain.ReferenceKind
	// Sync pushes the changed fields of the entity into every aggregate
	// document embedding it. It must be a no-op when the denormalized
	// fields are unchanged, and idempotent when they are not.
	Sync(ctx context.Context, old, updated *domain.ReferenceEntity) error
	// Describe names the target collection, for logs.
	Describe() string
}

// Registry maps reference kinds to their sync handlers.
type Registry struct {
	handlers map[domain.ReferenceKind][]Handler
	log      *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[domain.ReferenceKind][]Handler),
		log:      logger.Get().Named("syncer"),
	}
}

// Register adds a handler for its kind. Call during startup wiring only.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Kind()] = append(r.handlers[h.Kind()], h)
}

// Sync runs every handler registered for the entity's kind. The source
// update is already committed, so a handler failure is logged and the
// affected documents stay stale until the next edit or repair pass; it
// never propagates to the caller as a rollback.
func (r *Registry) Sync(ctx context.Context, old, updated *domain.ReferenceEntity) {
	if updated == nil {
		return
	}
	if old != nil && updated.DenormalizedFieldsEqual(old) {
		return
	}

	for _, h := range r.handlers[updated.Kind] {
		if err := h.Sync(ctx, old, updated); err != nil {
			r.log.Error("sync handler failed, embedded copies stale until repair",
				zap.String("kind", string(updated.Kind)),
				zap.String("reference_id", updated.ID),
				zap.String("target", h.Describe()),
				zap.Error(err),
			)
		}
	}
}

// Kinds returns the reference kinds that have at least one handler.
func (r *Registry) Kinds() []domain.ReferenceKind {
	kinds := make([]domain.ReferenceKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
