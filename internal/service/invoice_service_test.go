package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
	"invox/internal/extractor"
	"invox/internal/port"
	"invox/internal/quality"
	"invox/internal/service"
	"invox/internal/triage"
	"invox/mocks"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func setupInvoiceService() (
	service.InvoiceService,
	*mocks.MockRecordRepo,
	*mocks.MockAuditRepo,
	*mocks.MockExtractor,
	*mocks.MockObjectStorage,
	*mocks.MockReviewNotifier,
) {
	recordRepo := new(mocks.MockRecordRepo)
	auditRepo := new(mocks.MockAuditRepo)
	ext := new(mocks.MockExtractor)
	storage := new(mocks.MockObjectStorage)
	notifier := new(mocks.MockReviewNotifier)
	svc := service.NewInvoiceService(recordRepo, auditRepo, ext, storage, notifier,
		service.InvoiceServiceConfig{
			Bucket:        "test-bucket",
			MaxFileSize:   10 * 1024 * 1024,
			PresignExpiry: 3600,
			Quality:       quality.Config{SharpnessThreshold: 100, ContrastThreshold: 40},
			Policy:        triage.NewPolicy(85),
			MaxAttempts:   5,
		})
	return svc, recordRepo, auditRepo, ext, storage, notifier
}

// --- Upload ---

func TestInvoiceService_Upload_Success(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, _ := setupInvoiceService()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.InvoiceRecord")).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditEntry")).Return(nil).Maybe()
	// Background pipeline may start before the test ends
	recordRepo.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordNotFound).Maybe()
	_ = ext

	rec, err := svc.Upload(context.Background(), &service.UploadInvoiceInput{
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.png",
		Size:             int64(len(pngHeader)),
		Data:             pngHeader,
	})

	assert.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, domain.StatusProcessing, rec.Status)
	assert.Equal(t, "user-1", rec.OwnerIdentity)
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, "test-bucket", rec.StorageBucket)
	assert.NotEmpty(t, rec.StorageKey)
}

func TestInvoiceService_Upload_UnsupportedExtension(t *testing.T) {
	svc, _, _, _, _, _ := setupInvoiceService()

	_, err := svc.Upload(context.Background(), &service.UploadInvoiceInput{
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.gif",
		Size:             10,
		Data:             []byte("GIF89a...."),
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestInvoiceService_Upload_MagicBytesMismatch(t *testing.T) {
	svc, _, _, _, _, _ := setupInvoiceService()

	// .png name, plain-text body
	_, err := svc.Upload(context.Background(), &service.UploadInvoiceInput{
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.png",
		Size:             9,
		Data:             []byte("plaintext"),
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestInvoiceService_Upload_FileTooLarge(t *testing.T) {
	svc, _, _, _, _, _ := setupInvoiceService()

	_, err := svc.Upload(context.Background(), &service.UploadInvoiceInput{
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.png",
		Size:             11 * 1024 * 1024,
		Data:             pngHeader,
	})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestInvoiceService_Upload_StorageFailure(t *testing.T) {
	svc, _, _, _, storage, _ := setupInvoiceService()

	storage.On("Upload", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := svc.Upload(context.Background(), &service.UploadInvoiceInput{
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.png",
		Size:             int64(len(pngHeader)),
		Data:             pngHeader,
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestInvoiceService_Upload_CreateFailureCleansUpObject(t *testing.T) {
	svc, recordRepo, _, _, storage, _ := setupInvoiceService()

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	recordRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	storage.On("Delete", mock.Anything, "test-bucket", mock.AnythingOfType("string")).Return(nil)

	_, err := svc.Upload(context.Background(), &service.UploadInvoiceInput{
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.png",
		Size:             int64(len(pngHeader)),
		Data:             pngHeader,
	})

	assert.Error(t, err)
	storage.AssertCalled(t, "Delete", mock.Anything, "test-bucket", mock.AnythingOfType("string"))
}

// --- ProcessRecord ---

func processingRecord(contentType string) *domain.InvoiceRecord {
	return &domain.InvoiceRecord{
		ID:               uuid.New(),
		OwnerIdentity:    "user-1",
		OriginalFilename: "scan.png",
		ContentType:      contentType,
		StorageBucket:    "test-bucket",
		StorageKey:       "invoices/user-1/abc",
		Status:           domain.StatusProcessing,
		ExtractAttempts:  1,
	}
}

func TestInvoiceService_ProcessRecord_GuardrailRejectsWithoutExtraction(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, _ := setupInvoiceService()

	rec := processingRecord("image/png")
	storage.On("Download", mock.Anything, rec.StorageBucket, rec.StorageKey).
		Return([]byte("not an image at all"), nil)
	recordRepo.On("TransitionExtraction", mock.Anything, rec, domain.StatusProcessing).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc.ProcessRecord(context.Background(), rec)

	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, string(domain.FailureGuardrail), rec.FailureCode)
	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestInvoiceService_ProcessRecord_AutoApproves(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, notifier := setupInvoiceService()

	rec := processingRecord("application/pdf")
	storage.On("Download", mock.Anything, rec.StorageBucket, rec.StorageKey).
		Return([]byte("%PDF-1.7 fake"), nil)
	ext.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Fields: map[string]any{
			"vendor_name":    "Acme Corp",
			"invoice_number": "INV-42",
			"date":           "2024-03-01",
			"total_amount":   "$1,234.56",
			"line_items": []any{
				map[string]any{"description": "Widget", "quantity": 2.0, "unit_price": 617.28, "line_total": 1234.56},
			},
		},
		FieldConfidence: map[string]float64{
			"vendor_name": 0.95, "invoice_number": 0.95, "date": 0.95,
			"total_amount": 0.95, "line_items": 0.95,
		},
		ModelUsed: "test-model",
	}, nil)
	recordRepo.On("TransitionExtraction", mock.Anything, rec, domain.StatusProcessing).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc.ProcessRecord(context.Background(), rec)

	assert.Equal(t, domain.StatusAutoApproved, rec.Status)
	assert.Equal(t, "test-model", rec.ModelUsed)
	assert.NotEmpty(t, rec.CanonicalData)
	assert.NotEmpty(t, rec.Confidence)
	notifier.AssertNotCalled(t, "NotifyReviewNeeded", mock.Anything, mock.Anything)
}

func TestInvoiceService_ProcessRecord_RoutesToReviewAndNotifies(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, notifier := setupInvoiceService()

	rec := processingRecord("application/pdf")
	storage.On("Download", mock.Anything, rec.StorageBucket, rec.StorageKey).
		Return([]byte("%PDF-1.7 fake"), nil)
	ext.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Fields: map[string]any{
			"vendor_name":  "Acme Corp",
			"total_amount": "99.00",
		},
		FieldConfidence: map[string]float64{"vendor_name": 0.5, "total_amount": 0.5},
		ModelUsed:       "test-model",
	}, nil)
	recordRepo.On("TransitionExtraction", mock.Anything, rec, domain.StatusProcessing).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyReviewNeeded", mock.Anything, rec).Return(nil)

	svc.ProcessRecord(context.Background(), rec)

	assert.Equal(t, domain.StatusNeedsReview, rec.Status)
	notifier.AssertCalled(t, "NotifyReviewNeeded", mock.Anything, rec)
}

func TestInvoiceService_ProcessRecord_RateLimitSchedulesRetry(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, _ := setupInvoiceService()

	rec := processingRecord("application/pdf")
	storage.On("Download", mock.Anything, rec.StorageBucket, rec.StorageKey).
		Return([]byte("%PDF-1.7 fake"), nil)
	ext.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewRateLimitError("groq", errors.New("429"), 30))
	recordRepo.On("SetRetryAfter", mock.Anything, rec.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("string")).
		Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc.ProcessRecord(context.Background(), rec)

	// Still processing: the retry worker owns the next attempt.
	assert.Equal(t, domain.StatusProcessing, rec.Status)
	recordRepo.AssertCalled(t, "SetRetryAfter", mock.Anything, rec.ID, mock.Anything, mock.Anything)
	recordRepo.AssertNotCalled(t, "TransitionExtraction", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_ProcessRecord_RateLimitAtMaxAttemptsFails(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, _ := setupInvoiceService()

	rec := processingRecord("application/pdf")
	rec.ExtractAttempts = 5
	storage.On("Download", mock.Anything, rec.StorageBucket, rec.StorageKey).
		Return([]byte("%PDF-1.7 fake"), nil)
	ext.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewRateLimitError("groq", errors.New("429"), 30))
	recordRepo.On("TransitionExtraction", mock.Anything, rec, domain.StatusProcessing).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc.ProcessRecord(context.Background(), rec)

	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, string(domain.FailureExtraction), rec.FailureCode)
	recordRepo.AssertNotCalled(t, "SetRetryAfter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_ProcessRecord_ExtractionErrorFails(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, _ := setupInvoiceService()

	rec := processingRecord("application/pdf")
	storage.On("Download", mock.Anything, rec.StorageBucket, rec.StorageKey).
		Return([]byte("%PDF-1.7 fake"), nil)
	ext.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewError(extractor.KindMalformedResponse, "bad json", nil))
	recordRepo.On("TransitionExtraction", mock.Anything, rec, domain.StatusProcessing).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc.ProcessRecord(context.Background(), rec)

	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, string(domain.FailureExtraction), rec.FailureCode)
}

// --- GetByID / ownership ---

func TestInvoiceService_GetByID_CrossOwnerHidden(t *testing.T) {
	svc, recordRepo, _, _, _, _ := setupInvoiceService()

	rec := processingRecord("image/png")
	recordRepo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	_, err := svc.GetByID(context.Background(), "someone-else", rec.ID)

	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

// --- Retry ---

func TestInvoiceService_Retry_Success(t *testing.T) {
	svc, recordRepo, auditRepo, ext, storage, _ := setupInvoiceService()

	rec := processingRecord("application/pdf")
	retryAt := time.Now().Add(time.Minute)
	rec.RetryAfter = &retryAt

	recordRepo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)
	recordRepo.On("ClearRetrySchedule", mock.Anything, rec.ID).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	// Background dispatch may run before the test ends
	storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("gone")).Maybe()
	recordRepo.On("TransitionExtraction", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	_ = ext

	result, err := svc.Retry(context.Background(), "user-1", rec.ID)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.ExtractAttempts)
	assert.Nil(t, result.RetryAfter)
}

func TestInvoiceService_Retry_NotScheduled(t *testing.T) {
	svc, recordRepo, _, _, _, _ := setupInvoiceService()

	rec := processingRecord("application/pdf") // no retry_after set
	recordRepo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	_, err := svc.Retry(context.Background(), "user-1", rec.ID)

	assert.ErrorIs(t, err, domain.ErrRecordNotRetryable)
}

func TestInvoiceService_Retry_TerminalStatus(t *testing.T) {
	svc, recordRepo, _, _, _, _ := setupInvoiceService()

	rec := processingRecord("application/pdf")
	rec.Status = domain.StatusFailed
	recordRepo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	_, err := svc.Retry(context.Background(), "user-1", rec.ID)

	assert.ErrorIs(t, err, domain.ErrRecordNotRetryable)
}
