package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/dto"
	"github.com/venuehub/venue-booking/internal/response"
	"github.com/venuehub/venue-booking/internal/store"
)

// CatalogHandler handles CRUD on the venue and event aggregate documents.
type CatalogHandler struct {
	venues *store.DocumentStore[*domain.Venue]
	events *store.DocumentStore[*domain.Event]
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(venues *store.DocumentStore[*domain.Venue], events *store.DocumentStore[*domain.Event]) *CatalogHandler {
	return &CatalogHandler{venues: venues, events: events}
}

// CreateVenue handles POST /api/v1/venues
func (h *CatalogHandler) CreateVenue(c *gin.Context) {
	var venue domain.Venue
	if err := c.ShouldBindJSON(&venue); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if venue.ID == "" {
		venue.ID = uuid.New().String()
	}
	now := time.Now()
	venue.CreatedAt = now
	venue.UpdatedAt = now

	if err := h.venues.Create(c.Request.Context(), &venue); err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, &venue)
}

// GetVenue handles GET /api/v1/venues/:id
func (h *CatalogHandler) GetVenue(c *gin.Context) {
	venue, err := h.venues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, venue)
}

// UpdateVenue handles PUT /api/v1/venues/:id
func (h *CatalogHandler) UpdateVenue(c *gin.Context) {
	var venue domain.Venue
	if err := c.ShouldBindJSON(&venue); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	venue.ID = c.Param("id")
	venue.UpdatedAt = time.Now()

	if err := h.venues.Replace(c.Request.Context(), &venue); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, &venue)
}

// DeleteVenue handles DELETE /api/v1/venues/:id
func (h *CatalogHandler) DeleteVenue(c *gin.Context) {
	if err := h.venues.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListVenues handles GET /api/v1/venues
func (h *CatalogHandler) ListVenues(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	venues, hasMore, err := h.venues.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, venues, dto.PageMeta{Limit: limit, Offset: offset, HasMore: hasMore})
}

// CreateEvent handles POST /api/v1/events
func (h *CatalogHandler) CreateEvent(c *gin.Context) {
	var event domain.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := h.events.Create(c.Request.Context(), &event); err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, &event)
}

// GetEvent handles GET /api/v1/events/:id
func (h *CatalogHandler) GetEvent(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, event)
}

// UpdateEvent handles PUT /api/v1/events/:id
func (h *CatalogHandler) UpdateEvent(c *gin.Context) {
	var event domain.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	event.ID = c.Param("id")
	event.UpdatedAt = time.Now()

	if err := h.events.Replace(c.Request.Context(), &event); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, &event)
}

// DeleteEvent handles DELETE /api/v1/events/:id
func (h *CatalogHandler) DeleteEvent(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListEvents handles GET /api/v1/events
func (h *CatalogHandler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, hasMore, err := h.events.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, events, dto.PageMeta{Limit: limit, Offset: offset, HasMore: hasMore})
}

func (h *CatalogHandler) handleError(c *gin.Context, err error) {
	if domain.IsNotFoundError(err) {
		response.NotFound(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
