package service

import (
	"context"
	"log"
	"sync"
	"time"

	"invox/internal/port"
)

// RetryWorkerConfig holds settings for the extraction retry worker.
type RetryWorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// RetryWorker polls for rate-limited records whose retry schedule has elapsed
// and dispatches them back through the extraction pipeline.
type RetryWorker struct {
	recordRepo port.RecordRepository
	invoiceSvc InvoiceService
	cfg        RetryWorkerConfig
	wg         sync.WaitGroup
}

// NewRetryWorker creates a new RetryWorker.
func NewRetryWorker(recordRepo port.RecordRepository, invoiceSvc InvoiceService, cfg RetryWorkerConfig) *RetryWorker {
	return &RetryWorker{
		recordRepo: recordRepo,
		invoiceSvc: invoiceSvc,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *RetryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("retryWorker: started (poll=%s, concurrency=%d)", w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("retryWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("retryWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			recs, err := w.recordRepo.ClaimDue(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("retryWorker: ClaimDue error: %v", err)
				continue
			}

			for i := range recs {
				rec := recs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Fresh context independent of the poll context so
					// in-flight extractions complete even during shutdown.
					extractCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("retryWorker: dispatching record %s (attempt %d)", rec.ID, rec.ExtractAttempts)
					w.invoiceSvc.ProcessRecord(extractCtx, &rec)
				}()
			}
		}
	}
}
