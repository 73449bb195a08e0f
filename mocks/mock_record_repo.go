package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
)

// MockRecordRepo is a mock implementation of port.RecordRepository.
type MockRecordRepo struct {
	mock.Mock
}

func (m *MockRecordRepo) Create(ctx context.Context, rec *domain.InvoiceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockRecordRepo) ListByOwner(ctx context.Context, ownerIdentity string, status *domain.RecordStatus, limit int) ([]domain.InvoiceRecord, error) {
	args := m.Called(ctx, ownerIdentity, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Error(1)
}

func (m *MockRecordRepo) ListReviewQueue(ctx context.Context, filter string, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Int(1), args.Error(2)
}

func (m *MockRecordRepo) TransitionExtraction(ctx context.Context, rec *domain.InvoiceRecord, expected domain.RecordStatus) error {
	args := m.Called(ctx, rec, expected)
	return args.Error(0)
}

func (m *MockRecordRepo) TransitionReview(ctx context.Context, id uuid.UUID, to domain.RecordStatus, reviewerIdentity string, decidedAt time.Time) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, id, to, reviewerIdentity, decidedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockRecordRepo) SetRetryAfter(ctx context.Context, id uuid.UUID, retryAt time.Time, failureMessage string) error {
	args := m.Called(ctx, id, retryAt, failureMessage)
	return args.Error(0)
}

func (m *MockRecordRepo) ClaimDue(ctx context.Context, limit int) ([]domain.InvoiceRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Error(1)
}

func (m *MockRecordRepo) ClearRetrySchedule(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
