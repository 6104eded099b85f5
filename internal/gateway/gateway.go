// Package gateway talks to the external payment provider. The provider is
// eventually consistent; callers treat its answers as snapshots, never as
// transitions in themselves.
package gateway

import (
	"context"

	"github.com/venuehub/venue-booking/internal/domain"
)

// OrderStatus is the gateway's status vocabulary for an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusPaid       OrderStatus = "Paid"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusDeclined   OrderStatus = "Declined"
	OrderStatusExpired    OrderStatus = "Expired"
	OrderStatusAuthorised OrderStatus = "Authorised"
	OrderStatusFailed     OrderStatus = "Failed"
	OrderStatusAborted    OrderStatus = "Aborted"
	OrderStatusRejected   OrderStatus = "Rejected"
	OrderStatusUnknown    OrderStatus = "Unknown"
)

// Snapshot is the gateway's current view of one order.
type Snapshot struct {
	OrderReference    string      `json:"order_reference"`
	OrderStatus       OrderStatus `json:"order_status"`
	TransactionStatus string      `json:"transaction_status"`
	Amount            float64     `json:"amount"`
	Currency          string      `json:"currency"`
}

// OrderRequest registers a purchase with the provider ahead of payment.
type OrderRequest struct {
	// MerchantReference is our booking ID, echoed back in provider callbacks.
	MerchantReference string
	Amount            float64
	Currency          string
	Description       string
}

// Gateway talks to the external payment provider.
type Gateway interface {
	// CreateOrder registers an order with the provider and returns its
	// initial snapshot. The snapshot's OrderReference is the provider-issued
	// handle every later status check uses; the caller must persist it with
	// the booking.
	CreateOrder(ctx context.Context, req *OrderRequest) (*Snapshot, error)
	// CheckTransaction retrieves the gateway's current status for an order.
	CheckTransaction(ctx context.Context, orderReference string) (*Snapshot, error)
	// Name returns the gateway name
	Name() string
}

// statusMap maps the gateway vocabulary to the internal booking statuses.
// Authorised means the funds are held but not captured, which keeps the
// booking reserved rather than finalizing it.
var statusMap = map[OrderStatus]domain.BookingStatus{
	OrderStatusPaid:       domain.BookingStatusPaid,
	OrderStatusCancelled:  domain.BookingStatusCancelled,
	OrderStatusDeclined:   domain.BookingStatusDeclined,
	OrderStatusExpired:    domain.BookingStatusExpired,
	OrderStatusFailed:     domain.BookingStatusFailed,
	OrderStatusAborted:    domain.BookingStatusAborted,
	OrderStatusRejected:   domain.BookingStatusRejected,
	OrderStatusAuthorised: domain.BookingStatusOnHold,
}

// MapStatus translates a gateway order status to the internal status.
// Pending and unrecognized values return ok=false: the caller leaves the
// booking alone for the next sweep.
func MapStatus(s OrderStatus) (domain.BookingStatus, bool) {
	mapped, ok := statusMap[s]
	return mapped, ok
}

// Normalize folds an arbitrary gateway string into the known vocabulary,
// defaulting to Unknown.
func Normalize(raw string) OrderStatus {
	switch OrderStatus(raw) {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled,
		OrderStatusDeclined, OrderStatusExpired, OrderStatusAuthorised,
		OrderStatusFailed, OrderStatusAborted, OrderStatusRejected:
		return OrderStatus(raw)
	}
	return OrderStatusUnknown
}
