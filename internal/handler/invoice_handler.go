package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farmbooks/internal/domain"
	"farmbooks/internal/middleware"
	"farmbooks/internal/port"
	"farmbooks/internal/service"
)

// InvoiceHandler handles invoice query and curation endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	ingestService  service.IngestService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService, ingestService service.IngestService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, ingestService: ingestService}
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Assign handles POST /api/v1/invoices/:id/assign
func (h *InvoiceHandler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	var input service.ManualAssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.invoiceService.ManualAssign(c.Request.Context(), id, input, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Reclassify handles POST /api/v1/invoices/:id/reclassify
func (h *InvoiceHandler) Reclassify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.ingestService.Reclassify(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Archive handles POST /api/v1/invoices/:id/archive
func (h *InvoiceHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.Archive(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// AuditTrail handles GET /api/v1/invoices/:id/audit
func (h *InvoiceHandler) AuditTrail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}
	offset, limit := pagination(c)

	entries, total, err := h.invoiceService.AuditTrail(c.Request.Context(), id, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Relations handles GET /api/v1/invoices/:id/relations
func (h *InvoiceHandler) Relations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	relations, err := h.invoiceService.Relations(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, relations)
}

// ExportRegister handles GET /api/v1/invoices/export
func (h *InvoiceHandler) ExportRegister(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	buf, err := h.invoiceService.ExportRegister(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("invoice-register-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// Delete handles DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id, userID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// parseFilter builds an invoice filter from query parameters. On a malformed
// parameter it writes the error response and returns ok=false.
func parseFilter(c *gin.Context) (port.InvoiceFilter, bool) {
	var filter port.InvoiceFilter

	if v := c.Query("status"); v != "" {
		s := domain.InvoiceStatus(v)
		filter.Status = &s
	}
	if v := c.Query("direction"); v != "" {
		d := domain.InvoiceDirection(v)
		filter.Direction = &d
	}
	if v := c.Query("module"); v != "" {
		m := domain.ProcessingModule(v)
		filter.Module = &m
	}
	for name, dst := range map[string]**uuid.UUID{
		"business_entity_id": &filter.BusinessEntityID,
		"assigned_user_id":   &filter.AssignedUserID,
		"farm_id":            &filter.FarmID,
	} {
		if v := c.Query(name); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "invalid "+name)
				return filter, false
			}
			*dst = &id
		}
	}
	for name, dst := range map[string]**bool{
		"needs_triage":     &filter.NeedsTriage,
		"requires_linking": &filter.RequiresLinking,
	} {
		if v := c.Query(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "invalid "+name)
				return filter, false
			}
			*dst = &b
		}
	}
	for name, dst := range map[string]**time.Time{
		"issued_from": &filter.IssuedFrom,
		"issued_to":   &filter.IssuedTo,
	} {
		if v := c.Query(name); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "invalid "+name+", expected YYYY-MM-DD")
				return filter, false
			}
			*dst = &t
		}
	}

	return filter, true
}
