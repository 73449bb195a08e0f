package port

import (
	"context"

	"invox/internal/domain"
)

// ReviewNotifier tells a human reviewer that a record landed in the review
// queue. Delivery is best-effort: failures are logged, never fatal to the
// pipeline.
type ReviewNotifier interface {
	NotifyReviewNeeded(ctx context.Context, rec *domain.InvoiceRecord) error
}
