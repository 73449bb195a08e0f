package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
	"invox/internal/service"
	"invox/mocks"
)

func setupReviewService() (service.ReviewService, *mocks.MockRecordRepo, *mocks.MockAuditRepo) {
	recordRepo := new(mocks.MockRecordRepo)
	auditRepo := new(mocks.MockAuditRepo)
	svc := service.NewReviewService(recordRepo, auditRepo)
	return svc, recordRepo, auditRepo
}

func TestReviewService_Decide_Approve(t *testing.T) {
	svc, recordRepo, auditRepo := setupReviewService()

	recordID := uuid.New()
	decided := &domain.InvoiceRecord{ID: recordID, Status: domain.StatusApproved}

	recordRepo.On("TransitionReview", mock.Anything, recordID, domain.StatusApproved,
		"reviewer-1", mock.AnythingOfType("time.Time")).Return(decided, nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditEntry")).Return(nil)

	rec, err := svc.Decide(context.Background(), &service.DecideInput{
		RecordID:         recordID,
		ReviewerIdentity: "reviewer-1",
		Decision:         domain.DecisionApproved,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, rec.Status)
	auditRepo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_Decide_Reject(t *testing.T) {
	svc, recordRepo, auditRepo := setupReviewService()

	recordID := uuid.New()
	decided := &domain.InvoiceRecord{ID: recordID, Status: domain.StatusRejected}

	recordRepo.On("TransitionReview", mock.Anything, recordID, domain.StatusRejected,
		"reviewer-1", mock.AnythingOfType("time.Time")).Return(decided, nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec, err := svc.Decide(context.Background(), &service.DecideInput{
		RecordID:         recordID,
		ReviewerIdentity: "reviewer-1",
		Decision:         domain.DecisionRejected,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rec.Status)
}

func TestReviewService_Decide_InvalidDecision(t *testing.T) {
	svc, recordRepo, _ := setupReviewService()

	_, err := svc.Decide(context.Background(), &service.DecideInput{
		RecordID:         uuid.New(),
		ReviewerIdentity: "reviewer-1",
		Decision:         domain.ReviewDecision("maybe"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidDecision)
	recordRepo.AssertNotCalled(t, "TransitionReview",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_Decide_AlreadyDecided(t *testing.T) {
	svc, recordRepo, auditRepo := setupReviewService()

	recordID := uuid.New()
	recordRepo.On("TransitionReview", mock.Anything, recordID, domain.StatusApproved,
		"reviewer-2", mock.AnythingOfType("time.Time")).
		Return(nil, domain.ErrInvalidStateTransition)

	_, err := svc.Decide(context.Background(), &service.DecideInput{
		RecordID:         recordID,
		ReviewerIdentity: "reviewer-2",
		Decision:         domain.DecisionApproved,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_ListQueue(t *testing.T) {
	svc, recordRepo, _ := setupReviewService()

	recs := []domain.InvoiceRecord{
		{ID: uuid.New(), Status: domain.StatusNeedsReview},
		{ID: uuid.New(), Status: domain.StatusNeedsReview},
	}
	recordRepo.On("ListReviewQueue", mock.Anything, "acme", 0, 20).Return(recs, 2, nil)

	result, total, err := svc.ListQueue(context.Background(), "acme", 0, 20)

	assert.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, result, 2)
}
