package dto

import (
	"time"

	"github.com/venuehub/venue-booking/internal/domain"
)

// PurchaseRequest is the POST /bookings payload.
type PurchaseRequest struct {
	PackageID      string  `json:"package_id" binding:"required"`
	Quantity       int     `json:"quantity" binding:"required,gt=0"`
	Amount         float64 `json:"amount" binding:"required,gte=0"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// WebhookRequest is the payment gateway callback payload.
type WebhookRequest struct {
	BookingID         string  `json:"booking_id" binding:"required"`
	OrderReference    string  `json:"order_reference"`
	OrderStatus       string  `json:"order_status" binding:"required"`
	TransactionStatus string  `json:"transaction_status"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
}

// BookingResponse is the outward view of a booking.
type BookingResponse struct {
	ID          string                `json:"id"`
	OrderNumber int64                 `json:"order_number"`
	PackageID   string                `json:"package_id"`
	Quantity    int                   `json:"quantity"`
	TotalAmount float64               `json:"total_amount"`
	Currency    string                `json:"currency"`
	Status      string                `json:"status"`
	Terminated  bool                  `json:"terminated"`
	Summary     domain.PackageSummary `json:"summary"`
	CreatedAt   time.Time             `json:"created_at"`
}

// FromDomain converts a domain booking to its response form.
func FromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:          b.ID,
		OrderNumber: b.OrderNumber,
		PackageID:   b.PackageID,
		Quantity:    b.Quantity,
		TotalAmount: b.TotalAmount,
		Currency:    b.Currency,
		Status:      b.Status.String(),
		Terminated:  b.Terminated,
		Summary:     b.Summary,
		CreatedAt:   b.CreatedAt,
	}
}

// PackageRequest creates or edits a package.
type PackageRequest struct {
	ID        string  `json:"id" binding:"required"`
	EventID   string  `json:"event_id" binding:"required"`
	Title     string  `json:"title" binding:"required"`
	UnitPrice float64 `json:"unit_price" binding:"gte=0"`
	Total     int     `json:"total" binding:"gte=0"`
}

// PackageTotalRequest edits a package's total ticket count.
type PackageTotalRequest struct {
	Total int `json:"total" binding:"gte=0"`
}

// ReferenceRequest creates or edits a reference entity.
type ReferenceRequest struct {
	ID     string `json:"id" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Icon   string `json:"icon"`
	Active *bool  `json:"active"`
}

// PageMeta reports pagination state.
type PageMeta struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}
