package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"invox/internal/domain"
	"invox/internal/port"
)

// DecideInput is the DTO for applying a human review decision.
type DecideInput struct {
	RecordID         uuid.UUID
	ReviewerIdentity string
	Decision         domain.ReviewDecision
}

// ReviewService defines the review queue contract.
type ReviewService interface {
	ListQueue(ctx context.Context, filter string, offset, limit int) ([]domain.InvoiceRecord, int, error)
	Decide(ctx context.Context, input *DecideInput) (*domain.InvoiceRecord, error)
}

type reviewService struct {
	recordRepo port.RecordRepository
	auditRepo  port.RecordAuditRepository
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(recordRepo port.RecordRepository, auditRepo port.RecordAuditRepository) ReviewService {
	return &reviewService{recordRepo: recordRepo, auditRepo: auditRepo}
}

func (s *reviewService) ListQueue(ctx context.Context, filter string, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	return s.recordRepo.ListReviewQueue(ctx, filter, offset, limit)
}

func (s *reviewService) Decide(ctx context.Context, input *DecideInput) (*domain.InvoiceRecord, error) {
	if !domain.ValidDecisions[input.Decision] {
		return nil, domain.ErrInvalidDecision
	}

	// The guarded update loses the race for a second decision: whichever
	// reviewer commits first wins, the other gets an invalid-transition error.
	rec, err := s.recordRepo.TransitionReview(ctx, input.RecordID,
		input.Decision.Status(), input.ReviewerIdentity, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	detail, _ := json.Marshal(map[string]any{"decision": string(input.Decision)})
	if s.auditRepo != nil {
		entry := &domain.AuditEntry{
			ID:       uuid.New(),
			RecordID: rec.ID,
			Actor:    &input.ReviewerIdentity,
			Action:   string(domain.AuditRecordDecided),
			Detail:   detail,
		}
		if auditErr := s.auditRepo.Create(ctx, entry); auditErr != nil {
			log.Printf("reviewService.Decide: failed to write audit entry for %s: %v", rec.ID, auditErr)
		}
	}

	log.Printf("reviewService.Decide: record %s decided %s by %s", rec.ID, input.Decision, input.ReviewerIdentity)

	return rec, nil
}
