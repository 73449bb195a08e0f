package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QualityReport is the outcome of the pre-extraction image quality gate.
// It is computed per upload and never mutated; only Passed and Reasons
// propagate past the gate decision (into the audit trail and, on rejection,
// the record's failure fields).
type QualityReport struct {
	SharpnessScore float64  `json:"sharpness_score"`
	ContrastScore  float64  `json:"contrast_score"`
	Passed         bool     `json:"passed"`
	Reasons        []string `json:"reasons,omitempty"`
}

// ConfidenceScores holds the per-field and aggregate extraction confidence,
// both on a 0..100 scale. Overall drives routing; per-field detail exists for
// the reviewer's benefit only.
type ConfidenceScores struct {
	Overall  float64            `json:"overall"`
	PerField map[string]float64 `json:"per_field"`
}

// InvoiceRecord is the persisted unit of work: one uploaded invoice moving
// through the extraction and triage pipeline.
type InvoiceRecord struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	OwnerIdentity    string          `db:"owner_identity" json:"owner_identity"`
	OriginalFilename string          `db:"original_filename" json:"original_filename"`
	ContentType      string          `db:"content_type" json:"content_type"`
	StorageBucket    string          `db:"storage_bucket" json:"-"`
	StorageKey       string          `db:"storage_key" json:"-"`
	CanonicalData    json.RawMessage `db:"canonical_data" json:"canonical_data"`
	Confidence       json.RawMessage `db:"confidence" json:"confidence"`
	Status           RecordStatus    `db:"status" json:"status"`
	FailureCode      string          `db:"failure_code" json:"failure_code,omitempty"`
	FailureMessage   string          `db:"failure_message" json:"failure_message,omitempty"`
	ModelUsed        string          `db:"model_used" json:"model_used,omitempty"`
	ExtractAttempts  int             `db:"extract_attempts" json:"extract_attempts"`
	RetryAfter       *time.Time      `db:"retry_after" json:"retry_after,omitempty"`
	ApprovedBy       *string         `db:"approved_by" json:"approved_by,omitempty"`
	DecidedAt        *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// AuditEntry records a pipeline or reviewer action against a record.
type AuditEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	RecordID  uuid.UUID       `db:"record_id" json:"record_id"`
	Actor     *string         `db:"actor" json:"actor,omitempty"`
	Action    string          `db:"action" json:"action"`
	Detail    json.RawMessage `db:"detail" json:"detail"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// StatusCounts aggregates record counts per status for dashboards.
type StatusCounts struct {
	Status RecordStatus `db:"status" json:"status"`
	Count  int          `db:"count" json:"count"`
}
