package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/gateway"
	"github.com/venuehub/venue-booking/internal/inventory"
	"github.com/venuehub/venue-booking/internal/logger"
	"github.com/venuehub/venue-booking/internal/notify"
	"github.com/venuehub/venue-booking/internal/sequence"
)

// OrderSequenceKey names the counter that issues booking order numbers.
const OrderSequenceKey = "booking_orders"

// PurchaseRequest carries one ReserveAndCreateBooking call.
type PurchaseRequest struct {
	UserID         string
	PackageID      string
	Quantity       int
	Amount         float64
	Currency       string
	IdempotencyKey string
}

// Service drives the booking lifecycle: the synchronous purchase flow and
// the payment-status state machine shared by webhooks and the sweeper.
type Service interface {
	// ReserveAndCreateBooking reserves inventory and creates a Pending
	// booking with a fresh order number. Sold out and amount mismatch come
	// back as domain errors the purchase flow branches on.
	ReserveAndCreateBooking(ctx context.Context, req *PurchaseRequest) (*domain.Booking, error)

	// Transition drives a booking to newStatus per the transition table.
	// Calls against an already-terminal booking are idempotent no-ops.
	Transition(ctx context.Context, bookingID string, newStatus domain.BookingStatus, snapshot *gateway.Snapshot) (*domain.Booking, error)

	// GetStalePendingBookings returns Pending bookings older than the given
	// age, for the reconciliation sweeper.
	GetStalePendingBookings(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Booking, error)

	// GetBooking retrieves a booking by ID.
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
}

type service struct {
	repo       Repository
	inv        inventory.Inventory
	packages   inventory.PackageRepository
	sequences  sequence.Generator
	gw         gateway.Gateway
	dispatcher notify.Dispatcher
	directory  notify.UserDirectory
	currency   string
	log        *logger.Logger
}

// Config contains configuration for the booking service
type Config struct {
	DefaultCurrency string
}

// NewService creates a new booking service
func NewService(
	repo Repository,
	inv inventory.Inventory,
	packages inventory.PackageRepository,
	sequences sequence.Generator,
	gw gateway.Gateway,
	dispatcher notify.Dispatcher,
	directory notify.UserDirectory,
	cfg *Config,
) Service {
	currency := "AED"
	if cfg != nil && cfg.DefaultCurrency != "" {
		currency = cfg.DefaultCurrency
	}
	if dispatcher == nil {
		dispatcher = notify.NewLogDispatcher()
	}
	if directory == nil {
		directory = notify.NoDirectory{}
	}
	return &service{
		repo:       repo,
		inv:        inv,
		packages:   packages,
		sequences:  sequences,
		gw:         gw,
		dispatcher: dispatcher,
		directory:  directory,
		currency:   currency,
		log:        logger.Get().Named("booking"),
	}
}

// ReserveAndCreateBooking reserves inventory and creates a Pending booking.
func (s *service) ReserveAndCreateBooking(ctx context.Context, req *PurchaseRequest) (*domain.Booking, error) {
	if req == nil || req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if req.UserID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if req.PackageID == "" {
		return nil, domain.ErrInvalidPackageID
	}

	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil && existing != nil {
			return existing, nil
		}
		if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
			return nil, err
		}
	}

	pkg, err := s.packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	expected := pkg.UnitPrice * float64(req.Quantity)
	if math.Abs(expected-req.Amount) > 0.001 {
		return nil, domain.ErrAmountMismatch
	}

	reserveResult, err := s.inv.Reserve(ctx, req.PackageID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !reserveResult.Success {
		return nil, domain.ErrSoldOut
	}

	orderNumber, err := s.sequences.Next(ctx, OrderSequenceKey)
	if err != nil {
		s.compensateReservation(ctx, req.PackageID, req.Quantity, false)
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	// Register the order with the payment provider before the insert so the
	// booking is born with its gateway reference. Without it the sweeper can
	// only abort a stale booking, never reconcile it.
	bookingID := uuid.New().String()
	order, err := s.gw.CreateOrder(ctx, &gateway.OrderRequest{
		MerchantReference: bookingID,
		Amount:            expected,
		Currency:          currency,
		Description:       fmt.Sprintf("booking order #%d", orderNumber),
	})
	if err != nil {
		s.compensateReservation(ctx, req.PackageID, req.Quantity, true)
		return nil, fmt.Errorf("failed to register order with payment gateway: %w", err)
	}

	now := time.Now()
	b := &domain.Booking{
		ID:             bookingID,
		GatewayOrderID: order.OrderReference,
		OrderNumber:    orderNumber,
		UserID:         req.UserID,
		PackageID:      req.PackageID,
		Quantity:       req.Quantity,
		UnitPrice:      pkg.UnitPrice,
		TotalAmount:    expected,
		Currency:       currency,
		Status:         domain.BookingStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		Summary: domain.PackageSummary{
			PackageID:    pkg.ID,
			PackageTitle: pkg.Title,
			EventID:      pkg.EventID,
			UnitPrice:    pkg.UnitPrice,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		// The order number was consumed before the insert failed; hand both
		// the inventory and the number back.
		s.compensateReservation(ctx, req.PackageID, req.Quantity, true)
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("gateway_order_id", b.GatewayOrderID),
		zap.Int64("order_number", b.OrderNumber),
		zap.String("package_id", b.PackageID),
		zap.Int("quantity", b.Quantity),
		zap.Int("remaining", reserveResult.Remaining),
	)
	return b, nil
}

// compensateReservation undoes a reservation whose booking never persisted.
func (s *service) compensateReservation(ctx context.Context, packageID string, qty int, retractNumber bool) {
	if _, err := s.inv.Release(ctx, packageID, qty); err != nil {
		s.log.Error("failed to release reservation during compensation",
			zap.String("package_id", packageID),
			zap.Int("quantity", qty),
			zap.Error(err),
		)
	}
	if retractNumber {
		if _, err := s.sequences.Previous(ctx, OrderSequenceKey); err != nil {
			s.log.Error("failed to retract order number during compensation", zap.Error(err))
		}
	}
}

// Transition drives a booking to newStatus per the transition table.
func (s *service) Transition(ctx context.Context, bookingID string, newStatus domain.BookingStatus, snapshot *gateway.Snapshot) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	if !newStatus.IsValid() {
		return nil, domain.ErrInvalidBookingStatus
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// A webhook and the sweeper may race to finalize the same booking; the
	// loser sees the terminal record and must treat that as success.
	if b.Status.IsTerminal() {
		return b, nil
	}
	if b.Status == newStatus {
		return b, nil
	}

	t, err := domain.LookupTransition(b.Status, newStatus)
	if err != nil {
		return nil, err
	}

	// A webhook can carry the gateway reference for a booking that predates
	// the purchase-time handoff; record it so later sweeps can reconcile.
	if snapshot != nil && snapshot.OrderReference != "" && b.GatewayOrderID == "" {
		if err := s.repo.SetGatewayOrderID(ctx, bookingID, snapshot.OrderReference); err != nil {
			s.log.Warn("failed to record gateway order reference",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
		}
	}

	reason := ""
	if snapshot != nil {
		reason = snapshot.TransactionStatus
	}

	updated, won, err := s.repo.FinalizeStatus(ctx, bookingID, t.Next, reason, t.Terminated)
	if err != nil {
		return nil, err
	}
	if !won {
		// First writer already finalized it; the reservation was settled by
		// that writer, so no inventory action here.
		return updated, nil
	}

	if t.Inventory == domain.InventoryRelease {
		if _, err := s.inv.Release(ctx, b.PackageID, b.Quantity); err != nil {
			// The status write committed; a failed release is an inventory
			// leak to flag, not a reason to unwind the transition.
			s.log.Error("failed to release inventory after terminal transition",
				zap.String("booking_id", bookingID),
				zap.String("status", t.Next.String()),
				zap.Error(err),
			)
		}
	}

	s.notifyStatusChange(ctx, updated)

	s.log.Info("booking transitioned",
		zap.String("booking_id", bookingID),
		zap.String("from", b.Status.String()),
		zap.String("to", t.Next.String()),
	)
	return updated, nil
}

// notifyStatusChange dispatches a customer notification and records the
// per-token outcomes on the booking's delivery log. Failures only log.
func (s *service) notifyStatusChange(ctx context.Context, b *domain.Booking) {
	tokens, err := s.directory.DeviceTokens(ctx, b.UserID)
	if err != nil {
		s.log.Warn("failed to look up device tokens",
			zap.String("user_id", b.UserID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	msg := &notify.Message{
		Tokens: tokens,
		Title:  "Booking update",
		Body:   fmt.Sprintf("Your order #%d is now %s", b.OrderNumber, b.Status),
		Payload: map[string]string{
			"booking_id": b.ID,
			"status":     b.Status.String(),
		},
	}
	results := s.dispatcher.Dispatch(ctx, msg)

	now := time.Now()
	entries := make([]domain.DeliveryLogEntry, len(results))
	for i, res := range results {
		entries[i] = domain.DeliveryLogEntry{
			Channel:     "push",
			Token:       res.Token,
			Title:       msg.Title,
			Body:        msg.Body,
			Success:     res.Success,
			Error:       res.Error,
			AttemptedAt: now,
		}
	}
	if err := s.repo.AppendDeliveryLog(ctx, b.ID, entries); err != nil {
		s.log.Warn("failed to append delivery log",
			zap.String("booking_id", b.ID), zap.Error(err))
	}
}

// GetStalePendingBookings returns Pending bookings older than the given age.
func (s *service) GetStalePendingBookings(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-olderThan)
	return s.repo.GetStalePending(ctx, cutoff, limit)
}

// GetBooking retrieves a booking by ID
func (s *service) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	return s.repo.GetByID(ctx, bookingID)
}
