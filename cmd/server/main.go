package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invox/internal/auth"
	"invox/internal/config"
	"invox/internal/extractor/gemini"
	"invox/internal/extractor/groq"
	"invox/internal/handler"
	"invox/internal/notify/noop"
	"invox/internal/notify/ses"
	"invox/internal/port"
	"invox/internal/quality"
	"invox/internal/repository/postgres"
	"invox/internal/router"
	"invox/internal/service"
	s3storage "invox/internal/storage/s3"
	"invox/internal/triage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	recordRepo := postgres.NewRecordRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize extraction provider
	ext, err := buildExtractor(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	// Initialize review notifier
	notifier, err := buildNotifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	// Initialize services
	invoiceSvc := service.NewInvoiceService(recordRepo, auditRepo, ext, s3Client, notifier,
		service.InvoiceServiceConfig{
			Bucket:        cfg.S3.Bucket,
			MaxFileSize:   cfg.S3.MaxFileSizeMB * 1024 * 1024,
			PresignExpiry: cfg.S3.PresignExpiry,
			Quality: quality.Config{
				SharpnessThreshold: cfg.Quality.SharpnessThreshold,
				ContrastThreshold:  cfg.Quality.ContrastThreshold,
			},
			Policy:      triage.NewPolicy(cfg.Triage.AutoApproveThreshold),
			MaxAttempts: cfg.Queue.MaxAttempts,
		})
	reviewSvc := service.NewReviewService(recordRepo, auditRepo)
	statsSvc := service.NewStatsService(statsRepo)

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	statsH := handler.NewStatsHandler(statsSvc)
	healthH := handler.NewHealthHandler(db)

	verifier := auth.NewVerifier(&cfg.Auth)

	// Setup router
	r := router.Setup(verifier, cfg.CORS.AllowedOrigins, invoiceH, reviewH, statsH, healthH)

	// Start the retry worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewRetryWorker(recordRepo, invoiceSvc, service.RetryWorkerConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	stopWorker()
	<-workerDone

	return nil
}

func buildExtractor(cfg *config.Config) (port.Extractor, error) {
	providerCfg := cfg.Extractor.PrimaryConfig()
	switch cfg.Extractor.Provider {
	case "gemini":
		return gemini.NewExtractor(providerCfg)
	case "groq", "":
		return groq.NewExtractor(providerCfg), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider %q", cfg.Extractor.Provider)
	}
}

func buildNotifier(cfg *config.Config) (port.ReviewNotifier, error) {
	if cfg.Notify.Provider == "ses" && cfg.Notify.ReviewerAddress != "" {
		return ses.NewSESNotifier(cfg.Notify.Region, cfg.Notify.FromAddress,
			cfg.Notify.FromName, cfg.Notify.ReviewerAddress, cfg.Notify.FrontendURL)
	}
	return noop.NewNoopNotifier(), nil
}
