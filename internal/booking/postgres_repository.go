package booking

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

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const bookingColumns = `
	id, order_number, user_id, package_id, quantity, unit_price,
	total_amount, currency, gateway_order_id, status, status_reason,
	terminated, idempotency_key, summary, delivery_log, created_at, updated_at
`

// Create creates a new booking record in the database
func (r *PostgresRepository) Create(ctx context.Context, b *domain.Booking) error {
	summary, err := json.Marshal(b.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal booking summary: %w", err)
	}
	// An absent log must be stored as an empty array: a marshaled nil slice
	// is the jsonb scalar null, which later appends would concatenate into
	// [null, ...].
	deliveryLog := []byte("[]")
	if len(b.DeliveryLog) > 0 {
		deliveryLog, err = json.Marshal(b.DeliveryLog)
		if err != nil {
			return fmt.Errorf("failed to marshal delivery log: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO bookings (
			id, order_number, user_id, package_id, quantity, unit_price,
			total_amount, currency, gateway_order_id, status, status_reason,
			terminated, idempotency_key, summary, delivery_log, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17
		)
	`,
		b.ID, b.OrderNumber, b.UserID, b.PackageID, b.Quantity, b.UnitPrice,
		b.TotalAmount, b.Currency, nullIfEmpty(b.GatewayOrderID), b.Status.String(), nullIfEmpty(b.StatusReason),
		b.Terminated, nullIfEmpty(b.IdempotencyKey), summary, deliveryLog, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetByIdempotencyKey retrieves a booking by its idempotency key
func (r *PostgresRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = $1`, key)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking by idempotency key: %w", err)
	}
	return b, nil
}

// GetStalePending retrieves Pending bookings created before cutoff, oldest
// first. Order across bookings carries no guarantee for callers.
func (r *PostgresRepository) GetStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`, domain.BookingStatusPending.String(), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale pending bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// FinalizeStatus performs the optimistic status write. The WHERE clause only
// matches non-terminal statuses, so of two racing writers exactly one
// succeeds; the loser reads back the already-finalized record.
func (r *PostgresRepository) FinalizeStatus(ctx context.Context, id string, status domain.BookingStatus, reason string, terminated bool) (*domain.Booking, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2, status_reason = $3, terminated = $4, updated_at = now()
		WHERE id = $1 AND status IN ($5, $6)
		RETURNING `+bookingColumns,
		id, status.String(), nullIfEmpty(reason), terminated,
		domain.BookingStatusPending.String(), domain.BookingStatusOnHold.String(),
	)

	b, err := scanBooking(row)
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to finalize booking status: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// AppendDeliveryLog appends notification attempts to the booking's log
func (r *PostgresRepository) AppendDeliveryLog(ctx context.Context, id string, entries []domain.DeliveryLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery log entries: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET delivery_log = COALESCE(NULLIF(delivery_log, 'null'::jsonb), '[]'::jsonb) || $2::jsonb, updated_at = now()
		WHERE id = $1
	`, id, payload)
	if err != nil {
		return fmt.Errorf("failed to append delivery log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// SetGatewayOrderID records the gateway's order reference
func (r *PostgresRepository) SetGatewayOrderID(ctx context.Context, id, orderReference string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET gateway_order_id = $2, updated_at = now() WHERE id = $1
	`, id, orderReference)
	if err != nil {
		return fmt.Errorf("failed to set gateway order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	b := &domain.Booking{}
	var (
		status         string
		gatewayOrderID *string
		statusReason   *string
		idempotencyKey *string
		summary        []byte
		deliveryLog    []byte
	)

	err := row.Scan(
		&b.ID, &b.OrderNumber, &b.UserID, &b.PackageID, &b.Quantity, &b.UnitPrice,
		&b.TotalAmount, &b.Currency, &gatewayOrderID, &status, &statusReason,
		&b.Terminated, &idempotencyKey, &summary, &deliveryLog, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)
	if gatewayOrderID != nil {
		b.GatewayOrderID = *gatewayOrderID
	}
	if statusReason != nil {
		b.StatusReason = *statusReason
	}
	if idempotencyKey != nil {
		b.IdempotencyKey = *idempotencyKey
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &b.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booking summary: %w", err)
		}
	}
	if len(deliveryLog) > 0 {
		if err := json.Unmarshal(deliveryLog, &b.DeliveryLog); err != nil {
			return nil, fmt.Errorf("failed to unmarshal delivery log: %w", err)
		}
	}
	return b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
