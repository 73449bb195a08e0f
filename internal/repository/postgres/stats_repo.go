package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"invox/internal/domain"
	"invox/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) CountByStatus(ctx context.Context) ([]domain.StatusCounts, error) {
	var counts []domain.StatusCounts
	err := r.db.SelectContext(ctx, &counts,
		"SELECT status, COUNT(*) AS count FROM invoice_records GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("statsRepo.CountByStatus: %w", err)
	}
	return counts, nil
}

func (r *statsRepo) AverageOverallConfidence(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.GetContext(ctx, &avg,
		`SELECT COALESCE(AVG((confidence->>'overall')::float), 0)
		 FROM invoice_records WHERE confidence IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("statsRepo.AverageOverallConfidence: %w", err)
	}
	return avg, nil
}
