package syncer

import (
	"context"

	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/logger"
)

// ReferenceSource lists reference entities for the repair pass.
type ReferenceSource interface {
	ListByKind(ctx context.Context, kind domain.ReferenceKind, limit, offset int) ([]*domain.ReferenceEntity, bool, error)
}

// Repairer is the out-of-band correction for a sync handler that failed
// after the source entity committed: it re-pushes every entity's current
// fields unconditionally. Handlers are idempotent, so re-pushing an
// already-consistent copy is harmless.
type Repairer struct {
	registry *Registry
	source   ReferenceSource
	pageSize int
	log      *logger.Logger
}

// NewRepairer creates a new Repairer
func NewRepairer(registry *Registry, source ReferenceSource, pageSize int) *Repairer {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Repairer{
		registry: registry,
		source:   source,
		pageSize: pageSize,
		log:      logger.Get().Named("syncer.repair"),
	}
}

// Repair walks every registered kind and re-syncs each entity. Passing a
// nil old entity makes every handler treat all denormalized fields as
// changed.
func (r *Repairer) Repair(ctx context.Context) error {
	for _, kind := range r.registry.Kinds() {
		if err := r.repairKind(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repairer) repairKind(ctx context.Context, kind domain.ReferenceKind) error {
	offset := 0
	repaired := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entities, hasMore, err := r.source.ListByKind(ctx, kind, r.pageSize, offset)
		if err != nil {
			return err
		}
		for _, entity := range entities {
			r.registry.Sync(ctx, nil, entity)
			repaired++
		}
		if !hasMore {
			break
		}
		offset += r.pageSize
	}

	r.log.Debug("repair pass completed for kind",
		zap.String("kind", string(kind)),
		zap.Int("entities", repaired),
	)
	return nil
}
