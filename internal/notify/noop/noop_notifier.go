package noop

import (
	"context"
	"log"

	"invox/internal/domain"
	"invox/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a ReviewNotifier that only logs. Used in
// development and when no reviewer address is configured.
func NewNoopNotifier() port.ReviewNotifier {
	return &noopNotifier{}
}

func (n *noopNotifier) NotifyReviewNeeded(_ context.Context, rec *domain.InvoiceRecord) error {
	log.Printf("[NOOP NOTIFY] Record %s (%s) needs review", rec.ID, rec.OriginalFilename)
	return nil
}
