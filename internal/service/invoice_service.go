package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"invox/internal/canonical"
	"invox/internal/domain"
	"invox/internal/extractor"
	"invox/internal/port"
	"invox/internal/quality"
	"invox/internal/scoring"
	"invox/internal/triage"
)

const defaultMaxExtractAttempts = 5

// UploadInvoiceInput is the DTO for uploading an invoice and triggering the pipeline.
type UploadInvoiceInput struct {
	OwnerIdentity    string
	OriginalFilename string
	Size             int64
	Data             []byte
}

// InvoiceServiceConfig bundles the tunable pipeline settings.
type InvoiceServiceConfig struct {
	Bucket        string
	MaxFileSize   int64
	PresignExpiry int64
	Quality       quality.Config
	Policy        triage.Policy
	MaxAttempts   int
}

// InvoiceService defines the invoice pipeline contract.
type InvoiceService interface {
	Upload(ctx context.Context, input *UploadInvoiceInput) (*domain.InvoiceRecord, error)
	GetByID(ctx context.Context, ownerIdentity string, id uuid.UUID) (*domain.InvoiceRecord, error)
	List(ctx context.Context, ownerIdentity string, status *domain.RecordStatus, limit int) ([]domain.InvoiceRecord, error)
	GetImageURL(ctx context.Context, ownerIdentity string, id uuid.UUID) (string, error)
	Retry(ctx context.Context, ownerIdentity string, id uuid.UUID) (*domain.InvoiceRecord, error)
	ListAudit(ctx context.Context, ownerIdentity string, id uuid.UUID) ([]domain.AuditEntry, error)
	// ProcessRecord runs the extraction pipeline for a record already in
	// processing status. It is called by the upload path and the retry worker.
	ProcessRecord(ctx context.Context, rec *domain.InvoiceRecord)
}

type invoiceService struct {
	recordRepo port.RecordRepository
	auditRepo  port.RecordAuditRepository
	extractor  port.Extractor
	storage    port.ObjectStorage
	notifier   port.ReviewNotifier
	cfg        InvoiceServiceConfig
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	recordRepo port.RecordRepository,
	auditRepo port.RecordAuditRepository,
	ext port.Extractor,
	storage port.ObjectStorage,
	notifier port.ReviewNotifier,
	cfg InvoiceServiceConfig,
) InvoiceService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxExtractAttempts
	}
	return &invoiceService{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		extractor:  ext,
		storage:    storage,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// audit records a pipeline or reviewer action. Failures are logged but never
// block business logic.
func (s *invoiceService) audit(ctx context.Context, recordID uuid.UUID, actor *string, action domain.AuditAction, detail json.RawMessage) {
	if s.auditRepo == nil {
		return
	}
	if detail == nil {
		detail = json.RawMessage("{}")
	}
	entry := &domain.AuditEntry{
		ID:       uuid.New(),
		RecordID: recordID,
		Actor:    actor,
		Action:   string(action),
		Detail:   detail,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("invoiceService.audit: failed to write audit entry for %s/%s: %v", action, recordID, err)
	}
}

func (s *invoiceService) Upload(ctx context.Context, input *UploadInvoiceInput) (*domain.InvoiceRecord, error) {
	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.OriginalFilename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Validate file size
	if input.Size > s.cfg.MaxFileSize {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte content type detection beats trusting the client header
	head := input.Data
	if len(head) > 512 {
		head = head[:512]
	}
	detectedType := http.DetectContentType(head)
	fileType, ok := domain.AllowedContentTypes[detectedType]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	contentType := domain.AllowedFileTypes[fileType]

	rec := &domain.InvoiceRecord{
		ID:               uuid.New(),
		OwnerIdentity:    input.OwnerIdentity,
		OriginalFilename: input.OriginalFilename,
		ContentType:      contentType,
		StorageBucket:    s.cfg.Bucket,
		Status:           domain.StatusProcessing,
		ExtractAttempts:  0,
	}
	rec.StorageKey = fmt.Sprintf("invoices/%s/%s", input.OwnerIdentity, rec.ID)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      rec.StorageBucket,
		Key:         rec.StorageKey,
		Body:        bytes.NewReader(input.Data),
		ContentType: contentType,
		Size:        input.Size,
	}); err != nil {
		log.Printf("invoiceService.Upload: storage upload failed for %s: %v", rec.ID, err)
		return nil, domain.ErrUploadFailed
	}

	if err := s.recordRepo.Create(ctx, rec); err != nil {
		// Clean up the orphaned object so retries don't accumulate blobs.
		if delErr := s.storage.Delete(ctx, rec.StorageBucket, rec.StorageKey); delErr != nil {
			log.Printf("invoiceService.Upload: orphan cleanup failed for %s: %v", rec.StorageKey, delErr)
		}
		return nil, fmt.Errorf("creating record: %w", err)
	}

	detail, _ := json.Marshal(map[string]any{
		"filename": input.OriginalFilename, "content_type": contentType, "size": input.Size,
	})
	s.audit(ctx, rec.ID, &input.OwnerIdentity, domain.AuditRecordCreated, detail)

	log.Printf("invoiceService.Upload: record %s created for %s (%s)",
		rec.ID, input.OwnerIdentity, input.OriginalFilename)

	// Copy before launching the goroutine so the caller's value is
	// independent of background work.
	result := *rec

	go s.processInBackground(rec.ID)

	return &result, nil
}

func (s *invoiceService) processInBackground(recordID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rec, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		log.Printf("invoiceService.processInBackground: failed to get record %s: %v", recordID, err)
		return
	}
	rec.ExtractAttempts++

	s.ProcessRecord(ctx, rec)
}

// ProcessRecord runs guardrail, extraction, normalization, scoring and routing
// for a processing record. ExtractAttempts must already be incremented by the
// caller (the background launcher or the retry worker's claim).
func (s *invoiceService) ProcessRecord(ctx context.Context, rec *domain.InvoiceRecord) {
	fileBytes, err := s.storage.Download(ctx, rec.StorageBucket, rec.StorageKey)
	if err != nil {
		s.failRecord(ctx, rec, domain.FailureExtraction, fmt.Sprintf("downloading file: %v", err))
		return
	}

	report := quality.Evaluate(fileBytes, rec.ContentType, s.cfg.Quality)
	reportJSON, _ := json.Marshal(report)
	if !report.Passed {
		s.audit(ctx, rec.ID, nil, domain.AuditGuardrailRejected, reportJSON)
		s.failRecord(ctx, rec, domain.FailureGuardrail,
			fmt.Sprintf("image quality check failed: %v", report.Reasons))
		return
	}
	s.audit(ctx, rec.ID, nil, domain.AuditGuardrailPassed, reportJSON)

	output, err := s.extractor.Extract(ctx, port.ExtractInput{
		FileBytes:   fileBytes,
		ContentType: rec.ContentType,
	})
	if err != nil {
		s.handleExtractError(ctx, rec, err)
		return
	}

	inv := canonical.Normalize(output.Fields, output.FieldConfidence)
	scores := scoring.Score(inv)
	status := s.cfg.Policy.Route(scores)

	canonicalJSON, err := json.Marshal(inv)
	if err != nil {
		s.failRecord(ctx, rec, domain.FailureExtraction, fmt.Sprintf("marshaling canonical data: %v", err))
		return
	}
	confidenceJSON, _ := json.Marshal(scores)

	rec.CanonicalData = canonicalJSON
	rec.Confidence = confidenceJSON
	rec.Status = status
	rec.FailureCode = ""
	rec.FailureMessage = ""
	rec.ModelUsed = output.ModelUsed
	rec.RetryAfter = nil

	if err := s.recordRepo.TransitionExtraction(ctx, rec, domain.StatusProcessing); err != nil {
		log.Printf("invoiceService.ProcessRecord: failed to save results for %s: %v", rec.ID, err)
		return
	}

	extractDetail, _ := json.Marshal(map[string]any{
		"model": output.ModelUsed, "attempt": rec.ExtractAttempts,
	})
	s.audit(ctx, rec.ID, nil, domain.AuditExtractionCompleted, extractDetail)

	routeDetail, _ := json.Marshal(map[string]any{
		"status": string(status), "overall_confidence": scores.Overall,
	})
	s.audit(ctx, rec.ID, nil, domain.AuditRecordRouted, routeDetail)

	log.Printf("invoiceService.ProcessRecord: record %s routed to %s (overall %.2f)",
		rec.ID, status, scores.Overall)

	if status == domain.StatusNeedsReview && s.notifier != nil {
		if err := s.notifier.NotifyReviewNeeded(ctx, rec); err != nil {
			log.Printf("invoiceService.ProcessRecord: review notification failed for %s: %v", rec.ID, err)
		}
	}
}

// handleExtractError checks whether the failure is a rate limit and schedules
// a retry if attempts remain. Anything else fails the record permanently.
func (s *invoiceService) handleExtractError(ctx context.Context, rec *domain.InvoiceRecord, extractErr error) {
	var rlErr *extractor.RateLimitError
	if errors.As(extractErr, &rlErr) && rec.ExtractAttempts < s.cfg.MaxAttempts {
		retryAt := time.Now().UTC().Add(rlErr.RetryAfter)
		msg := fmt.Sprintf("rate limited by %s, scheduled for retry", rlErr.Provider)
		if err := s.recordRepo.SetRetryAfter(ctx, rec.ID, retryAt, msg); err != nil {
			log.Printf("invoiceService.handleExtractError: failed to schedule retry for %s: %v", rec.ID, err)
			return
		}
		detail, _ := json.Marshal(map[string]any{
			"retry_after": retryAt.Format(time.RFC3339), "attempt": rec.ExtractAttempts,
		})
		s.audit(ctx, rec.ID, nil, domain.AuditExtractionQueued, detail)
		log.Printf("invoiceService.handleExtractError: record %s scheduled for retry after %s",
			rec.ID, retryAt.Format(time.RFC3339))
		return
	}
	s.failRecord(ctx, rec, domain.FailureExtraction, fmt.Sprintf("extracting invoice: %v", extractErr))
}

func (s *invoiceService) failRecord(ctx context.Context, rec *domain.InvoiceRecord, code domain.FailureCode, errMsg string) {
	log.Printf("invoiceService.failRecord: record %s failed: %s", rec.ID, errMsg)
	rec.Status = domain.StatusFailed
	rec.FailureCode = string(code)
	rec.FailureMessage = errMsg
	rec.RetryAfter = nil
	if err := s.recordRepo.TransitionExtraction(ctx, rec, domain.StatusProcessing); err != nil {
		log.Printf("invoiceService.failRecord: failed to update status for %s: %v", rec.ID, err)
		return
	}
	detail, _ := json.Marshal(map[string]any{
		"failure_code": string(code), "error": errMsg, "attempt": rec.ExtractAttempts,
	})
	s.audit(ctx, rec.ID, nil, domain.AuditExtractionFailed, detail)
}

func (s *invoiceService) GetByID(ctx context.Context, ownerIdentity string, id uuid.UUID) (*domain.InvoiceRecord, error) {
	rec, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Cross-owner lookups report not-found so record IDs leak nothing.
	if rec.OwnerIdentity != ownerIdentity {
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (s *invoiceService) List(ctx context.Context, ownerIdentity string, status *domain.RecordStatus, limit int) ([]domain.InvoiceRecord, error) {
	return s.recordRepo.ListByOwner(ctx, ownerIdentity, status, limit)
}

func (s *invoiceService) GetImageURL(ctx context.Context, ownerIdentity string, id uuid.UUID) (string, error) {
	rec, err := s.GetByID(ctx, ownerIdentity, id)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, rec.StorageBucket, rec.StorageKey, s.cfg.PresignExpiry)
}

func (s *invoiceService) Retry(ctx context.Context, ownerIdentity string, id uuid.UUID) (*domain.InvoiceRecord, error) {
	rec, err := s.GetByID(ctx, ownerIdentity, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusProcessing || rec.RetryAfter == nil {
		return nil, domain.ErrRecordNotRetryable
	}
	if rec.ExtractAttempts >= s.cfg.MaxAttempts {
		return nil, domain.ErrRecordNotRetryable
	}

	// Clearing the schedule also bumps the attempt counter, which keeps the
	// polling worker from dispatching the same record.
	if err := s.recordRepo.ClearRetrySchedule(ctx, id); err != nil {
		return nil, err
	}
	rec.ExtractAttempts++
	rec.RetryAfter = nil

	s.audit(ctx, rec.ID, &ownerIdentity, domain.AuditExtractionRetried, nil)

	log.Printf("invoiceService.Retry: retrying extraction for record %s (attempt %d)", rec.ID, rec.ExtractAttempts)

	result := *rec

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.ProcessRecord(bgCtx, rec)
	}()

	return &result, nil
}

func (s *invoiceService) ListAudit(ctx context.Context, ownerIdentity string, id uuid.UUID) ([]domain.AuditEntry, error) {
	if _, err := s.GetByID(ctx, ownerIdentity, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByRecord(ctx, id)
}
