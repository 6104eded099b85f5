package domain

import (
	"strings"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusAborted   BookingStatus = "aborted"
	BookingStatusExpired   BookingStatus = "expired"
	BookingStatusOnHold    BookingStatus = "on_hold"
	BookingStatusRejected  BookingStatus = "rejected"
)

// AllBookingStatuses lists every valid status, useful for exhaustive checks.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusPaid,
	BookingStatusCancelled,
	BookingStatusDeclined,
	BookingStatusFailed,
	BookingStatusAborted,
	BookingStatusExpired,
	BookingStatusOnHold,
	BookingStatusRejected,
}

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusCancelled,
		BookingStatusDeclined, BookingStatusFailed, BookingStatusAborted,
		BookingStatusExpired, BookingStatusOnHold, BookingStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
// Pending and OnHold are the only non-terminal statuses.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusPending, BookingStatusOnHold:
		return false
	}
	return s.IsValid()
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// InventoryAction is what a transition does to the quantity reserved
// against the package.
type InventoryAction int

const (
	// InventoryKeep leaves the reservation in place (Paid converts it to a
	// confirmed sale, OnHold keeps it pending).
	InventoryKeep InventoryAction = iota
	// InventoryRelease returns the reserved quantity to the package pool.
	InventoryRelease
)

// Transition describes one legal booking state change.
type Transition struct {
	Next      BookingStatus
	Inventory InventoryAction
	// Terminated is the value of Booking.Terminated after the transition.
	Terminated bool
}

// transitions is the explicit state machine table: current status -> target
// status -> effect. Absent entries are illegal. Terminal statuses have no
// entries at all; Transition calls against them are idempotent no-ops at the
// service layer rather than errors.
var transitions = map[BookingStatus]map[BookingStatus]Transition{
	BookingStatusPending: {
		BookingStatusPaid:      {Next: BookingStatusPaid, Inventory: InventoryKeep, Terminated: false},
		BookingStatusOnHold:    {Next: BookingStatusOnHold, Inventory: InventoryKeep, Terminated: false},
		BookingStatusCancelled: {Next: BookingStatusCancelled, Inventory: InventoryRelease, Terminated: true},
		BookingStatusDeclined:  {Next: BookingStatusDeclined, Inventory: InventoryRelease, Terminated: true},
		BookingStatusFailed:    {Next: BookingStatusFailed, Inventory: InventoryRelease, Terminated: true},
		BookingStatusAborted:   {Next: BookingStatusAborted, Inventory: InventoryRelease, Terminated: true},
		BookingStatusExpired:   {Next: BookingStatusExpired, Inventory: InventoryRelease, Terminated: true},
		BookingStatusRejected:  {Next: BookingStatusRejected, Inventory: InventoryRelease, Terminated: true},
	},
	BookingStatusOnHold: {
		BookingStatusPaid:      {Next: BookingStatusPaid, Inventory: InventoryKeep, Terminated: false},
		BookingStatusCancelled: {Next: BookingStatusCancelled, Inventory: InventoryRelease, Terminated: true},
		BookingStatusDeclined:  {Next: BookingStatusDeclined, Inventory: InventoryRelease, Terminated: true},
		BookingStatusFailed:    {Next: BookingStatusFailed, Inventory: InventoryRelease, Terminated: true},
		BookingStatusAborted:   {Next: BookingStatusAborted, Inventory: InventoryRelease, Terminated: true},
		BookingStatusExpired:   {Next: BookingStatusExpired, Inventory: InventoryRelease, Terminated: true},
		BookingStatusRejected:  {Next: BookingStatusRejected, Inventory: InventoryRelease, Terminated: true},
	},
}

// LookupTransition returns the effect of moving from current to target, or
// ErrIllegalTransition if the table has no entry for the pair.
func LookupTransition(current, target BookingStatus) (Transition, error) {
	row, ok := transitions[current]
	if !ok {
		return Transition{}, ErrIllegalTransition
	}
	t, ok := row[target]
	if !ok {
		return Transition{}, ErrIllegalTransition
	}
	return t, nil
}

// DeliveryLogEntry records one notification attempt for a booking.
type DeliveryLogEntry struct {
	Channel     string    `json:"channel"`
	Token       string    `json:"token,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// PackageSummary is the frozen package/venue snapshot captured at booking
// time. It is never updated by the propagator; the live denormalized copies
// live on the Venue/Event documents instead.
type PackageSummary struct {
	PackageID    string  `json:"package_id"`
	PackageTitle string  `json:"package_title"`
	EventID      string  `json:"event_id"`
	EventName    string  `json:"event_name"`
	VenueID      string  `json:"venue_id"`
	VenueName    string  `json:"venue_name"`
	UnitPrice    float64 `json:"unit_price"`
}

// Booking represents one purchase attempt against one package.
type Booking struct {
	ID             string             `json:"id"`
	OrderNumber    int64              `json:"order_number"`
	UserID         string             `json:"user_id"`
	PackageID      string             `json:"package_id"`
	Quantity       int                `json:"quantity"`
	UnitPrice      float64            `json:"unit_price"`
	TotalAmount    float64            `json:"total_amount"`
	Currency       string             `json:"currency"`
	GatewayOrderID string             `json:"gateway_order_id,omitempty"`
	Status         BookingStatus      `json:"status"`
	StatusReason   string             `json:"status_reason,omitempty"`
	Terminated     bool               `json:"terminated"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	Summary        PackageSummary     `json:"summary"`
	DeliveryLog    []DeliveryLogEntry `json:"delivery_log,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Validate validates all booking fields
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrInvalidBookingID
	}
	if strings.TrimSpace(b.UserID) == "" {
		return ErrInvalidUserID
	}
	if strings.TrimSpace(b.PackageID) == "" {
		return ErrInvalidPackageID
	}
	if b.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if b.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	if !b.Status.IsValid() {
		return ErrInvalidBookingStatus
	}
	return nil
}

// IsPending checks if the booking is awaiting a payment outcome
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// IsPaid checks if the booking converted to a confirmed sale
func (b *Booking) IsPaid() bool {
	return b.Status == BookingStatusPaid
}

// HoldsInventory reports whether the booking's quantity is still reserved
// against the package pool.
func (b *Booking) HoldsInventory() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusOnHold || b.Status == BookingStatusPaid
}
