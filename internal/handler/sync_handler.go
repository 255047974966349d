package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmbooks/internal/service"
)

// SyncHandler handles synchronization run endpoints.
type SyncHandler struct {
	syncService service.SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Start handles POST /api/v1/sync/runs
func (h *SyncHandler) Start(c *gin.Context) {
	run, err := h.syncService.StartRun(c.Request.Context(), true, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, run)
}

// List handles GET /api/v1/sync/runs
func (h *SyncHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	runs, total, err := h.syncService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/sync/runs/:id
func (h *SyncHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	run, err := h.syncService.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// Cancel handles POST /api/v1/sync/runs/:id/cancel
func (h *SyncHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	run, err := h.syncService.CancelRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, run)
}

// Running handles GET /api/v1/sync/runs/running
func (h *SyncHandler) Running(c *gin.Context) {
	run, err := h.syncService.Running(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}
