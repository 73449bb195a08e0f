package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
	"invox/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Upload(ctx context.Context, input *service.UploadInvoiceInput) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, ownerIdentity string, id uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, ownerIdentity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, ownerIdentity string, status *domain.RecordStatus, limit int) ([]domain.InvoiceRecord, error) {
	args := m.Called(ctx, ownerIdentity, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceService) GetImageURL(ctx context.Context, ownerIdentity string, id uuid.UUID) (string, error) {
	args := m.Called(ctx, ownerIdentity, id)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceService) Retry(ctx context.Context, ownerIdentity string, id uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, ownerIdentity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceService) ListAudit(ctx context.Context, ownerIdentity string, id uuid.UUID) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, ownerIdentity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *MockInvoiceService) ProcessRecord(ctx context.Context, rec *domain.InvoiceRecord) {
	m.Called(ctx, rec)
}
