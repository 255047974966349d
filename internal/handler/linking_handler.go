package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmbooks/internal/service"
)

// ConfirmLinkRequest is the payload for confirming a pending link.
type ConfirmLinkRequest struct {
	TargetInvoiceID uuid.UUID `json:"target_invoice_id" binding:"required"`
}

// LinkingHandler handles correction linking endpoints.
type LinkingHandler struct {
	linkingService service.LinkingService
}

// NewLinkingHandler creates a new LinkingHandler.
func NewLinkingHandler(linkingService service.LinkingService) *LinkingHandler {
	return &LinkingHandler{linkingService: linkingService}
}

// ListPending handles GET /api/v1/linking/pending
func (h *LinkingHandler) ListPending(c *gin.Context) {
	offset, limit := pagination(c)

	invoices, total, err := h.linkingService.ListPending(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Confirm handles POST /api/v1/invoices/:id/link
func (h *LinkingHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	var req ConfirmLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.linkingService.Confirm(c.Request.Context(), id, req.TargetInvoiceID, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Dismiss handles POST /api/v1/invoices/:id/link/dismiss
func (h *LinkingHandler) Dismiss(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.linkingService.Dismiss(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}
