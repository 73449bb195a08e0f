package domain

// RecordStatus is the lifecycle state of an invoice record.
type RecordStatus string

const (
	StatusProcessing   RecordStatus = "processing"
	StatusAutoApproved RecordStatus = "auto_approved"
	StatusNeedsReview  RecordStatus = "needs_review"
	StatusApproved     RecordStatus = "approved"
	StatusRejected     RecordStatus = "rejected"
	StatusFailed       RecordStatus = "failed"
)

// recordTransitions is the single authoritative transition table.
// processing moves exactly once to an extraction outcome; needs_review moves
// exactly once by human decision; everything else is terminal.
var recordTransitions = map[RecordStatus][]RecordStatus{
	StatusProcessing:  {StatusAutoApproved, StatusNeedsReview, StatusFailed},
	StatusNeedsReview: {StatusApproved, StatusRejected},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to RecordStatus) bool {
	for _, next := range recordTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s RecordStatus) bool {
	return len(recordTransitions[s]) == 0
}

// ReviewDecision is a human reviewer's verdict on a needs_review record.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

// ValidDecisions enumerates the accepted review decisions.
var ValidDecisions = map[ReviewDecision]bool{
	DecisionApproved: true,
	DecisionRejected: true,
}

// Status returns the record status a decision resolves to.
func (d ReviewDecision) Status() RecordStatus {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// FailureCode classifies why a record ended up failed.
type FailureCode string

const (
	FailureGuardrail  FailureCode = "guardrail_rejected"
	FailureExtraction FailureCode = "extraction_error"
)

// FileType represents the allowed upload types.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// AuditAction labels entries in the record audit trail.
type AuditAction string

const (
	AuditRecordCreated       AuditAction = "record.created"
	AuditGuardrailPassed     AuditAction = "guardrail.passed"
	AuditGuardrailRejected   AuditAction = "guardrail.rejected"
	AuditExtractionCompleted AuditAction = "extraction.completed"
	AuditExtractionFailed    AuditAction = "extraction.failed"
	AuditExtractionQueued    AuditAction = "extraction.queued"
	AuditExtractionRetried   AuditAction = "extraction.retried"
	AuditRecordRouted        AuditAction = "record.routed"
	AuditRecordDecided       AuditAction = "record.decided"
)
