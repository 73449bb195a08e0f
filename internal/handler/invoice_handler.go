package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invox/internal/domain"
	"invox/internal/service"
)

// InvoiceHandler handles invoice upload and pipeline endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Upload handles POST /api/v1/invoices
// @Summary Upload an invoice
// @Description Upload an invoice file and trigger quality gating, extraction, and triage
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice file (pdf, jpg, png)"
// @Success 202 {object} APIResponse{data=domain.InvoiceRecord} "Record created, pipeline started"
// @Failure 400 {object} APIResponse "Unsupported file type or missing file"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 413 {object} APIResponse "File too large"
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Upload(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return
	}

	rec, err := h.invoiceService.Upload(c.Request.Context(), &service.UploadInvoiceInput{
		OwnerIdentity:    identity,
		OriginalFilename: header.Filename,
		Size:             header.Size,
		Data:             data,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, rec)
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get invoice record by ID
// @Description Get record details including canonical data, confidence, and status
// @Tags invoices
// @Produce json
// @Param id path string true "Record ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.InvoiceRecord} "Record details"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	rec, err := h.invoiceService.GetByID(c.Request.Context(), identity, recordID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rec)
}

// List handles GET /api/v1/invoices
// @Summary List invoice records
// @Description List the caller's records, newest first, with an optional status filter
// @Tags invoices
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Maximum records to return (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.InvoiceRecord} "List of records"
// @Failure 400 {object} APIResponse "Invalid status filter"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	var status *domain.RecordStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := domain.RecordStatus(statusStr)
		switch s {
		case domain.StatusProcessing, domain.StatusAutoApproved, domain.StatusNeedsReview,
			domain.StatusApproved, domain.StatusRejected, domain.StatusFailed:
			status = &s
		default:
			RespondError(c, http.StatusBadRequest, "INVALID_STATUS", "unknown status filter")
			return
		}
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	recs, err := h.invoiceService.List(c.Request.Context(), identity, status, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, recs)
}

// GetImageURL handles GET /api/v1/invoices/:id/image
// @Summary Get a presigned URL for the original upload
// @Description Returns a time-limited URL for the stored invoice file
// @Tags invoices
// @Produce json
// @Param id path string true "Record ID (UUID)"
// @Success 200 {object} APIResponse "Presigned URL"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /invoices/{id}/image [get]
func (h *InvoiceHandler) GetImageURL(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	url, err := h.invoiceService.GetImageURL(c.Request.Context(), identity, recordID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"url": url})
}

// Retry handles POST /api/v1/invoices/:id/retry
// @Summary Retry extraction
// @Description Re-trigger extraction for a rate-limited record without waiting for the scheduler
// @Tags invoices
// @Produce json
// @Param id path string true "Record ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.InvoiceRecord} "Extraction re-triggered"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Record not found"
// @Failure 409 {object} APIResponse "Record not eligible for retry"
// @Security BearerAuth
// @Router /invoices/{id}/retry [post]
func (h *InvoiceHandler) Retry(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	rec, err := h.invoiceService.Retry(c.Request.Context(), identity, recordID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rec)
}

// ListAudit handles GET /api/v1/invoices/:id/audit
// @Summary List record audit trail
// @Description Lists pipeline and reviewer actions recorded against the record
// @Tags invoices
// @Produce json
// @Param id path string true "Record ID (UUID)"
// @Success 200 {object} APIResponse{data=[]domain.AuditEntry} "Audit entries"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Record not found"
// @Security BearerAuth
// @Router /invoices/{id}/audit [get]
func (h *InvoiceHandler) ListAudit(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	entries, err := h.invoiceService.ListAudit(c.Request.Context(), identity, recordID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, entries)
}
