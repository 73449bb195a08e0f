package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"invox/internal/domain"
)

// RecordRepository defines the contract for invoice record persistence.
// Status-changing updates are compare-and-set: they are guarded on the
// caller's expected current status and return
// domain.ErrInvalidStateTransition when the guard fails, so concurrent
// completions and racing reviewers cannot overwrite a terminal state.
type RecordRepository interface {
	Create(ctx context.Context, rec *domain.InvoiceRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error)
	ListByOwner(ctx context.Context, ownerIdentity string, status *domain.RecordStatus, limit int) ([]domain.InvoiceRecord, error)
	// ListReviewQueue returns needs_review records oldest-first, optionally
	// filtered by a vendor or invoice-number substring.
	ListReviewQueue(ctx context.Context, filter string, offset, limit int) ([]domain.InvoiceRecord, int, error)
	// TransitionExtraction writes extraction results and moves the record
	// from expected (processing) to rec.Status in one guarded update.
	TransitionExtraction(ctx context.Context, rec *domain.InvoiceRecord, expected domain.RecordStatus) error
	// TransitionReview applies a human decision, guarded on needs_review.
	TransitionReview(ctx context.Context, id uuid.UUID, to domain.RecordStatus, reviewerIdentity string, decidedAt time.Time) (*domain.InvoiceRecord, error)
	// SetRetryAfter schedules a rate-limited record for the retry worker
	// while it remains in processing.
	SetRetryAfter(ctx context.Context, id uuid.UUID, retryAt time.Time, failureMessage string) error
	// ClaimDue atomically claims up to limit processing records whose
	// retry_after has elapsed, clearing the schedule and bumping attempts.
	ClaimDue(ctx context.Context, limit int) ([]domain.InvoiceRecord, error)
	// ClearRetrySchedule removes a pending retry without changing status,
	// used by the manual retry endpoint before re-dispatching.
	ClearRetrySchedule(ctx context.Context, id uuid.UUID) error
}

// RecordAuditRepository defines the contract for the record audit trail.
type RecordAuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.AuditEntry, error)
}

// StatsRepository aggregates record counts for dashboards.
type StatsRepository interface {
	CountByStatus(ctx context.Context) ([]domain.StatusCounts, error)
	AverageOverallConfidence(ctx context.Context) (float64, error)
}
