package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuehub/venue-booking/internal/booking"
	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/dto"
	"github.com/venuehub/venue-booking/internal/gateway"
	"github.com/venuehub/venue-booking/internal/response"
)

// BookingHandler handles the purchase flow and the gateway webhook.
type BookingHandler struct {
	bookings booking.Service
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings booking.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Purchase handles POST /api/v1/bookings. Sold out is a normal outcome with
// its own code, never a generic error.
func (h *BookingHandler) Purchase(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		userID = c.GetHeader("X-User-ID")
	}
	if userID == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "user identity required", "")
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, err := h.bookings.ReserveAndCreateBooking(c.Request.Context(), &booking.PurchaseRequest{
		UserID:         userID,
		PackageID:      req.PackageID,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, dto.FromDomain(b))
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(b))
}

// Webhook handles POST /api/v1/payments/webhook. The gateway may deliver the
// same callback more than once and may race the sweeper; Transition absorbs
// both, so this handler never reports a conflict.
func (h *BookingHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	snapshot := &gateway.Snapshot{
		OrderReference:    req.OrderReference,
		OrderStatus:       gateway.Normalize(req.OrderStatus),
		TransactionStatus: req.TransactionStatus,
		Amount:            req.Amount,
		Currency:          req.Currency,
	}

	target, ok := gateway.MapStatus(snapshot.OrderStatus)
	if !ok {
		// Still pending at the gateway or an unknown vocabulary; the sweeper
		// owns it from here.
		b, err := h.bookings.GetBooking(c.Request.Context(), req.BookingID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		response.Success(c, dto.FromDomain(b))
		return
	}

	b, err := h.bookings.Transition(c.Request.Context(), req.BookingID, target, snapshot)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(b))
}

func (h *BookingHandler) handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case err == domain.ErrSoldOut:
		response.Conflict(c, "SOLD_OUT", "The selected package is no longer available")
	case err == domain.ErrAmountMismatch:
		response.Error(c, http.StatusUnprocessableEntity, "AMOUNT_MISMATCH", err.Error(), "")
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, "CONFLICT", err.Error())
	case domain.IsGatewayError(err):
		response.Error(c, http.StatusBadGateway, "GATEWAY_UNAVAILABLE", err.Error(), "")
	default:
		response.InternalError(c, err)
	}
}
