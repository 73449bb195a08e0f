package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
	"invox/internal/service"
)

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListQueue(ctx context.Context, filter string, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Int(1), args.Error(2)
}

func (m *MockReviewService) Decide(ctx context.Context, input *service.DecideInput) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}
