package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
	"invox/internal/handler"
	"invox/internal/service"
	"invox/mocks"
)

func newReviewHandler() (*handler.ReviewHandler, *mocks.MockReviewService) {
	mockSvc := new(mocks.MockReviewService)
	h := handler.NewReviewHandler(mockSvc)
	return h, mockSvc
}

func TestReviewHandler_ListQueue(t *testing.T) {
	h, mockSvc := newReviewHandler()

	recs := []domain.InvoiceRecord{{ID: uuid.New(), Status: domain.StatusNeedsReview}}
	mockSvc.On("ListQueue", mock.Anything, "acme", 0, 20).Return(recs, 1, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/review-queue?filter=acme", nil)
	setCaller(c, "reviewer-1")

	h.ListQueue(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Meta.Total)
	mockSvc.AssertExpectations(t)
}

func TestReviewHandler_Decide_Success(t *testing.T) {
	h, mockSvc := newReviewHandler()

	recordID := uuid.New()
	decided := &domain.InvoiceRecord{ID: recordID, Status: domain.StatusApproved}
	mockSvc.On("Decide", mock.Anything, mock.MatchedBy(func(input *service.DecideInput) bool {
		return input.RecordID == recordID &&
			input.ReviewerIdentity == "reviewer-1" &&
			input.Decision == domain.DecisionApproved
	})).Return(decided, nil)

	body, _ := json.Marshal(map[string]string{"decision": "approved"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost,
		"/api/v1/review-queue/"+recordID.String()+"/decision", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: recordID.String()}}
	setCaller(c, "reviewer-1")

	h.Decide(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestReviewHandler_Decide_MissingDecision(t *testing.T) {
	h, mockSvc := newReviewHandler()

	recordID := uuid.New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost,
		"/api/v1/review-queue/"+recordID.String()+"/decision", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: recordID.String()}}
	setCaller(c, "reviewer-1")

	h.Decide(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
}

func TestReviewHandler_Decide_InvalidDecisionValue(t *testing.T) {
	h, mockSvc := newReviewHandler()

	recordID := uuid.New()
	mockSvc.On("Decide", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidDecision)

	body, _ := json.Marshal(map[string]string{"decision": "maybe"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost,
		"/api/v1/review-queue/"+recordID.String()+"/decision", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: recordID.String()}}
	setCaller(c, "reviewer-1")

	h.Decide(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_Decide_AlreadyDecided(t *testing.T) {
	h, mockSvc := newReviewHandler()

	recordID := uuid.New()
	mockSvc.On("Decide", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidStateTransition)

	body, _ := json.Marshal(map[string]string{"decision": "rejected"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost,
		"/api/v1/review-queue/"+recordID.String()+"/decision", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: recordID.String()}}
	setCaller(c, "reviewer-1")

	h.Decide(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
