package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
)

// MockReviewNotifier is a mock implementation of port.ReviewNotifier.
type MockReviewNotifier struct {
	mock.Mock
}

func (m *MockReviewNotifier) NotifyReviewNeeded(ctx context.Context, rec *domain.InvoiceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
