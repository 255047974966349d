package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmbooks/internal/middleware"
	"farmbooks/internal/service"
)

// EntityHandler handles business entity management endpoints.
type EntityHandler struct {
	entityService service.EntityService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService service.EntityService) *EntityHandler {
	return &EntityHandler{entityService: entityService}
}

// Create handles POST /api/v1/entities
func (h *EntityHandler) Create(c *gin.Context) {
	var input service.CreateEntityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	entity, err := h.entityService.Create(c.Request.Context(), input, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, entity)
}

// List handles GET /api/v1/entities
func (h *EntityHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	entities, total, err := h.entityService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, entities, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/entities/:id
func (h *EntityHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid entity ID")
		return
	}

	entity, err := h.entityService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entity)
}

// Update handles PUT /api/v1/entities/:id
func (h *EntityHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid entity ID")
		return
	}

	var input service.UpdateEntityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	entity, err := h.entityService.Update(c.Request.Context(), id, input, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entity)
}

// Delete handles DELETE /api/v1/entities/:id
func (h *EntityHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid entity ID")
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	if err := h.entityService.Delete(c.Request.Context(), id, userID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
