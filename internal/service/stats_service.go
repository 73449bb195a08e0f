package service

import (
	"context"

	"invox/internal/domain"
	"invox/internal/port"
)

// Analytics summarizes pipeline throughput for dashboards.
type Analytics struct {
	CountsByStatus    []domain.StatusCounts `json:"counts_by_status"`
	AverageConfidence float64               `json:"average_confidence"`
}

// StatsService defines the analytics contract.
type StatsService interface {
	GetAnalytics(ctx context.Context) (*Analytics, error)
}

type statsService struct {
	statsRepo port.StatsRepository
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

func (s *statsService) GetAnalytics(ctx context.Context) (*Analytics, error) {
	counts, err := s.statsRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.statsRepo.AverageOverallConfidence(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{CountsByStatus: counts, AverageConfidence: avg}, nil
}
