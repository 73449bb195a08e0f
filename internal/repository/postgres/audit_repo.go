package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invox/internal/domain"
	"invox/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed RecordAuditRepository.
func NewAuditRepo(db *sqlx.DB) port.RecordAuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO record_audit (id, record_id, actor, action, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.RecordID, entry.Actor, entry.Action, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("auditRepo.Create: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM record_audit WHERE record_id = $1 ORDER BY created_at ASC",
		recordID)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByRecord: %w", err)
	}
	return entries, nil
}
