package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invox/internal/domain"
	"invox/internal/service"
)

// ReviewHandler handles review queue endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ListQueue handles GET /api/v1/review-queue
// @Summary List the review queue
// @Description Lists needs_review records oldest first, optionally filtered by vendor or invoice number
// @Tags review
// @Produce json
// @Param filter query string false "Vendor or invoice-number substring"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.InvoiceRecord,meta=PagMeta} "Queue contents"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /review-queue [get]
func (h *ReviewHandler) ListQueue(c *gin.Context) {
	if _, ok := callerIdentity(c); !ok {
		return
	}

	offset, limit := parsePagination(c)
	filter := c.Query("filter")

	recs, total, err := h.reviewService.ListQueue(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Decide handles POST /api/v1/review-queue/:id/decision
// @Summary Decide a queued record
// @Description Apply an approve or reject decision to a needs_review record
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Record ID (UUID)"
// @Param request body DecisionRequest true "Review decision"
// @Success 200 {object} APIResponse{data=domain.InvoiceRecord} "Record decided"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Record not found"
// @Failure 409 {object} APIResponse "Record already decided"
// @Security BearerAuth
// @Router /review-queue/{id}/decision [post]
func (h *ReviewHandler) Decide(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "decision is required (approved or rejected)")
		return
	}

	rec, err := h.reviewService.Decide(c.Request.Context(), &service.DecideInput{
		RecordID:         recordID,
		ReviewerIdentity: identity,
		Decision:         domain.ReviewDecision(req.Decision),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rec)
}

// DecisionRequest is the request body for a review decision.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}
