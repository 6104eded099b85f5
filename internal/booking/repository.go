package booking

import (
	"context"
	"time"

	"github.com/venuehub/venue-booking/internal/domain"
)

// Repository persists bookings. Status writes are filter-guarded: only a
// booking still in a non-terminal status can be finalized, which is what
// serializes a webhook racing the sweeper.
type Repository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	// GetStalePending returns Pending bookings created before cutoff.
	GetStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error)
	// FinalizeStatus writes the new status only if the booking is still in a
	// non-terminal status. won=false means another writer got there first;
	// the returned booking is then the current (already finalized) record.
	FinalizeStatus(ctx context.Context, id string, status domain.BookingStatus, reason string, terminated bool) (b *domain.Booking, won bool, err error)
	// AppendDeliveryLog appends notification attempts to the booking's log.
	AppendDeliveryLog(ctx context.Context, id string, entries []domain.DeliveryLogEntry) error
	// SetGatewayOrderID records the gateway's order reference once known.
	SetGatewayOrderID(ctx context.Context, id, orderReference string) error
}
