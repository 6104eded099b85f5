package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/dto"
	"github.com/venuehub/venue-booking/internal/inventory"
	"github.com/venuehub/venue-booking/internal/response"
	"github.com/venuehub/venue-booking/internal/store"
)

// AdminHandler handles administrative CRUD on reference entities and
// packages. Reference updates silently fan out to the denormalization
// propagator through the store.
type AdminHandler struct {
	references *store.ReferenceStore
	packages   inventory.PackageRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(references *store.ReferenceStore, packages inventory.PackageRepository) *AdminHandler {
	return &AdminHandler{references: references, packages: packages}
}

func referenceKind(c *gin.Context) (domain.ReferenceKind, bool) {
	kind := domain.ReferenceKind(c.Param("kind"))
	if !kind.IsValid() {
		response.BadRequest(c, "unknown reference kind: "+c.Param("kind"))
		return "", false
	}
	return kind, true
}

// CreateReference handles POST /api/v1/admin/references/:kind
func (h *AdminHandler) CreateReference(c *gin.Context) {
	kind, ok := referenceKind(c)
	if !ok {
		return
	}

	var req dto.ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entity := &domain.ReferenceEntity{
		ID:     req.ID,
		Kind:   kind,
		Name:   req.Name,
		Icon:   req.Icon,
		Active: req.Active == nil || *req.Active,
	}
	if err := h.references.Create(c.Request.Context(), entity); err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, entity)
}

// GetReference handles GET /api/v1/admin/references/:kind/:id
func (h *AdminHandler) GetReference(c *gin.Context) {
	kind, ok := referenceKind(c)
	if !ok {
		return
	}
	entity, err := h.references.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, entity)
}

// UpdateReference handles PUT /api/v1/admin/references/:kind/:id
func (h *AdminHandler) UpdateReference(c *gin.Context) {
	kind, ok := referenceKind(c)
	if !ok {
		return
	}

	var req dto.ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entity := &domain.ReferenceEntity{
		ID:     c.Param("id"),
		Kind:   kind,
		Name:   req.Name,
		Icon:   req.Icon,
		Active: req.Active == nil || *req.Active,
	}
	updated, err := h.references.Update(c.Request.Context(), entity)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, updated)
}

// DeleteReference handles DELETE /api/v1/admin/references/:kind/:id
func (h *AdminHandler) DeleteReference(c *gin.Context) {
	kind, ok := referenceKind(c)
	if !ok {
		return
	}
	if err := h.references.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListReferences handles GET /api/v1/admin/references/:kind
func (h *AdminHandler) ListReferences(c *gin.Context) {
	kind, ok := referenceKind(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entities, hasMore, err := h.references.ListByKind(c.Request.Context(), kind, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, entities, dto.PageMeta{Limit: limit, Offset: offset, HasMore: hasMore})
}

// CreatePackage handles POST /api/v1/admin/packages
func (h *AdminHandler) CreatePackage(c *gin.Context) {
	var req dto.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pkg := &domain.Package{
		ID:        req.ID,
		EventID:   req.EventID,
		Title:     req.Title,
		UnitPrice: req.UnitPrice,
		Total:     req.Total,
		Remaining: req.Total,
	}
	if err := h.packages.Create(c.Request.Context(), pkg); err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, pkg)
}

// GetPackage handles GET /api/v1/admin/packages/:id
func (h *AdminHandler) GetPackage(c *gin.Context) {
	pkg, err := h.packages.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, pkg)
}

// UpdatePackageTotal handles PUT /api/v1/admin/packages/:id/total
func (h *AdminHandler) UpdatePackageTotal(c *gin.Context) {
	var req dto.PackageTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pkg, err := h.packages.UpdateTotal(c.Request.Context(), c.Param("id"), req.Total)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, pkg)
}

func (h *AdminHandler) handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsCapacityError(err):
		response.Error(c, http.StatusUnprocessableEntity, "CAPACITY", err.Error(), "")
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
