package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invox/internal/domain"
	"invox/internal/service"
	"invox/mocks"
)

func TestRetryWorker_DispatchesDueRecords(t *testing.T) {
	recordRepo := new(mocks.MockRecordRepo)
	invoiceSvc := new(mocks.MockInvoiceService)

	due := domain.InvoiceRecord{
		ID:              uuid.New(),
		Status:          domain.StatusProcessing,
		ExtractAttempts: 2,
	}

	// First poll returns one due record, subsequent polls return nothing.
	recordRepo.On("ClaimDue", mock.Anything, 2).
		Return([]domain.InvoiceRecord{due}, nil).Once()
	recordRepo.On("ClaimDue", mock.Anything, 2).
		Return([]domain.InvoiceRecord{}, nil)

	processed := make(chan uuid.UUID, 1)
	invoiceSvc.On("ProcessRecord", mock.Anything, mock.AnythingOfType("*domain.InvoiceRecord")).
		Run(func(args mock.Arguments) {
			rec := args.Get(1).(*domain.InvoiceRecord)
			processed <- rec.ID
		})

	worker := service.NewRetryWorker(recordRepo, invoiceSvc, service.RetryWorkerConfig{
		PollInterval: 10 * time.Millisecond,
		Concurrency:  2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	select {
	case id := <-processed:
		assert.Equal(t, due.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for record dispatch")
	}

	cancel()
	wg.Wait()
	recordRepo.AssertExpectations(t)
}

func TestRetryWorker_StopsOnCancel(t *testing.T) {
	recordRepo := new(mocks.MockRecordRepo)
	invoiceSvc := new(mocks.MockInvoiceService)

	recordRepo.On("ClaimDue", mock.Anything, mock.Anything).
		Return([]domain.InvoiceRecord{}, nil)

	worker := service.NewRetryWorker(recordRepo, invoiceSvc, service.RetryWorkerConfig{
		PollInterval: 10 * time.Millisecond,
		Concurrency:  1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
	invoiceSvc.AssertNotCalled(t, "ProcessRecord", mock.Anything, mock.Anything)
}
