package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invox/internal/domain"
	"invox/internal/port"
)

type recordRepo struct {
	db *sqlx.DB
}

// NewRecordRepo creates a new PostgreSQL-backed RecordRepository.
func NewRecordRepo(db *sqlx.DB) port.RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) Create(ctx context.Context, rec *domain.InvoiceRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO invoice_records (
		id, owner_identity, original_filename, content_type,
		storage_bucket, storage_key, canonical_data, confidence,
		status, failure_code, failure_message, model_used,
		extract_attempts, retry_after, approved_by, decided_at,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, $16,
		$17, $18
	)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerIdentity, rec.OriginalFilename, rec.ContentType,
		rec.StorageBucket, rec.StorageKey, rec.CanonicalData, rec.Confidence,
		rec.Status, rec.FailureCode, rec.FailureMessage, rec.ModelUsed,
		rec.ExtractAttempts, rec.RetryAfter, rec.ApprovedBy, rec.DecidedAt,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("recordRepo.Create: %w", err)
	}
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM invoice_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("recordRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *recordRepo) ListByOwner(ctx context.Context, ownerIdentity string, status *domain.RecordStatus, limit int) ([]domain.InvoiceRecord, error) {
	var recs []domain.InvoiceRecord
	var err error
	if status != nil {
		err = r.db.SelectContext(ctx, &recs,
			`SELECT * FROM invoice_records WHERE owner_identity = $1 AND status = $2
			 ORDER BY created_at DESC LIMIT $3`,
			ownerIdentity, *status, limit)
	} else {
		err = r.db.SelectContext(ctx, &recs,
			`SELECT * FROM invoice_records WHERE owner_identity = $1
			 ORDER BY created_at DESC LIMIT $2`,
			ownerIdentity, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("recordRepo.ListByOwner: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) ListReviewQueue(ctx context.Context, filter string, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	where := "status = $1"
	args := []any{domain.StatusNeedsReview}
	if filter != "" {
		where += ` AND (canonical_data->'vendor_name'->>'value' ILIKE $2
			OR canonical_data->'invoice_number'->>'value' ILIKE $2)`
		args = append(args, "%"+filter+"%")
	}

	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM invoice_records WHERE "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("recordRepo.ListReviewQueue count: %w", err)
	}

	// Oldest first so the queue drains in upload order.
	query := fmt.Sprintf(
		`SELECT * FROM invoice_records WHERE %s
		 ORDER BY created_at ASC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var recs []domain.InvoiceRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("recordRepo.ListReviewQueue: %w", err)
	}
	return recs, total, nil
}

func (r *recordRepo) TransitionExtraction(ctx context.Context, rec *domain.InvoiceRecord, expected domain.RecordStatus) error {
	rec.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoice_records SET
			canonical_data = $1, confidence = $2, status = $3,
			failure_code = $4, failure_message = $5, model_used = $6,
			extract_attempts = $7, retry_after = NULL, updated_at = $8
		 WHERE id = $9 AND status = $10`,
		rec.CanonicalData, rec.Confidence, rec.Status,
		rec.FailureCode, rec.FailureMessage, rec.ModelUsed,
		rec.ExtractAttempts, rec.UpdatedAt,
		rec.ID, expected)
	if err != nil {
		return fmt.Errorf("recordRepo.TransitionExtraction: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func (r *recordRepo) TransitionReview(ctx context.Context, id uuid.UUID, to domain.RecordStatus, reviewerIdentity string, decidedAt time.Time) (*domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := r.db.GetContext(ctx, &rec,
		`UPDATE invoice_records SET
			status = $1, approved_by = $2, decided_at = $3, updated_at = $4
		 WHERE id = $5 AND status = $6
		 RETURNING *`,
		to, reviewerIdentity, decidedAt, time.Now().UTC(),
		id, domain.StatusNeedsReview)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing record from one already decided.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrInvalidStateTransition
		}
		return nil, fmt.Errorf("recordRepo.TransitionReview: %w", err)
	}
	return &rec, nil
}

func (r *recordRepo) SetRetryAfter(ctx context.Context, id uuid.UUID, retryAt time.Time, failureMessage string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoice_records SET
			retry_after = $1, failure_message = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		retryAt, failureMessage, time.Now().UTC(),
		id, domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("recordRepo.SetRetryAfter: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvalidStateTransition
	}
	return nil
}

func (r *recordRepo) ClaimDue(ctx context.Context, limit int) ([]domain.InvoiceRecord, error) {
	// SKIP LOCKED lets multiple worker instances claim disjoint batches.
	var recs []domain.InvoiceRecord
	err := r.db.SelectContext(ctx, &recs,
		`UPDATE invoice_records SET
			retry_after = NULL, extract_attempts = extract_attempts + 1, updated_at = $1
		 WHERE id IN (
			SELECT id FROM invoice_records
			WHERE status = $2 AND retry_after IS NOT NULL AND retry_after <= $1
			ORDER BY retry_after ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		time.Now().UTC(), domain.StatusProcessing, limit)
	if err != nil {
		return nil, fmt.Errorf("recordRepo.ClaimDue: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) ClearRetrySchedule(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoice_records SET
			retry_after = NULL, extract_attempts = extract_attempts + 1, updated_at = $1
		 WHERE id = $2 AND status = $3`,
		time.Now().UTC(), id, domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("recordRepo.ClearRetrySchedule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRecordNotRetryable
	}
	return nil
}
