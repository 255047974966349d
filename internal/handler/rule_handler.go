package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/middleware"
	"farmbooks/internal/service"
)

// RuleHandler handles assignment rule management endpoints.
type RuleHandler struct {
	ruleService service.RuleService
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService service.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// Create handles POST /api/v1/rules
func (h *RuleHandler) Create(c *gin.Context) {
	var input service.CreateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	rule, err := h.ruleService.Create(c.Request.Context(), input, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, rule)
}

// ListByDimension handles GET /api/v1/rules/:dimension
func (h *RuleHandler) ListByDimension(c *gin.Context) {
	dim := domain.RuleDimension(c.Param("dimension"))

	rules, err := h.ruleService.ListByDimension(c.Request.Context(), dim)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rules)
}

// GetByID handles GET /api/v1/rules/:dimension/:id
func (h *RuleHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid rule ID")
		return
	}

	rule, err := h.ruleService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rule)
}

// Update handles PUT /api/v1/rules/:dimension/:id
func (h *RuleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid rule ID")
		return
	}

	var input service.UpdateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	rule, err := h.ruleService.Update(c.Request.Context(), id, input, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rule)
}

// Delete handles DELETE /api/v1/rules/:dimension/:id
func (h *RuleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid rule ID")
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	if err := h.ruleService.Delete(c.Request.Context(), id, userID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
