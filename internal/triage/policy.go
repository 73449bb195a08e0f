// Package triage maps extraction confidence to a routing outcome.
package triage

import "invox/internal/domain"

// DefaultAutoApproveThreshold is the default overall-confidence cutoff for
// automatic acceptance. It is configuration, not scoring logic: tune it
// without touching the scorer.
const DefaultAutoApproveThreshold = 85.0

// Policy routes a scored record to automatic acceptance or human review.
type Policy struct {
	AutoApproveThreshold float64
}

// NewPolicy creates a routing policy. A zero threshold falls back to the default.
func NewPolicy(threshold float64) Policy {
	if threshold <= 0 {
		threshold = DefaultAutoApproveThreshold
	}
	return Policy{AutoApproveThreshold: threshold}
}

// Route decides the post-extraction status from aggregate confidence alone.
// The boundary is inclusive: overall equal to the threshold auto-approves.
// Per-field detail is deliberately not consulted here.
func (p Policy) Route(scores domain.ConfidenceScores) domain.RecordStatus {
	if scores.Overall >= p.AutoApproveThreshold {
		return domain.StatusAutoApproved
	}
	return domain.StatusNeedsReview
}
