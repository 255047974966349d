package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"farmbooks/internal/config"
	"farmbooks/internal/email/noop"
	"farmbooks/internal/email/ses"
	"farmbooks/internal/exchange/ksef"
	"farmbooks/internal/handler"
	"farmbooks/internal/identity"
	"farmbooks/internal/port"
	"farmbooks/internal/repository/postgres"
	"farmbooks/internal/router"
	"farmbooks/internal/service"
	s3storage "farmbooks/internal/storage/s3"
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
	invoiceRepo := postgres.NewInvoiceRepo(db)
	ruleRepo := postgres.NewRuleRepo(db)
	runRepo := postgres.NewSyncRunRepo(db)
	relationRepo := postgres.NewRelationRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	attachmentRepo := postgres.NewAttachmentRepo(db)
	entityRepo := postgres.NewEntityRepo(db)

	// Initialize external collaborators
	blobStore, err := s3storage.NewStore(context.Background(), &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize attachment store: %w", err)
	}

	var notifier port.ReminderNotifier
	if cfg.Email.Provider == "ses" {
		notifier, err = ses.NewSESNotifier(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
	} else {
		notifier = noop.NewNoopNotifier()
	}

	directory, err := identity.NewStaticDirectory(&cfg.Identity)
	if err != nil {
		return fmt.Errorf("failed to initialize identity directory: %w", err)
	}

	connector := ksef.NewClient(&cfg.Exchange)

	// Initialize services
	fallback := port.UserRef{Email: cfg.Identity.FallbackEmail, Name: cfg.Identity.FallbackName}
	linkingSvc := service.NewLinkingService(invoiceRepo, relationRepo, auditRepo, directory, notifier, fallback)
	ingestSvc := service.NewIngestService(invoiceRepo, entityRepo, ruleRepo, auditRepo, linkingSvc)
	syncSvc := service.NewSyncService(runRepo, connector, ingestSvc, cfg.Sync)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, relationRepo, auditRepo)
	ruleSvc := service.NewRuleService(ruleRepo)
	entitySvc := service.NewEntityService(entityRepo)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, invoiceRepo, blobStore, &cfg.S3)

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(invoiceSvc, ingestSvc)
	syncH := handler.NewSyncHandler(syncSvc)
	ruleH := handler.NewRuleHandler(ruleSvc)
	linkingH := handler.NewLinkingHandler(linkingSvc)
	attachmentH := handler.NewAttachmentHandler(attachmentSvc)
	entityH := handler.NewEntityHandler(entitySvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, invoiceH, syncH, ruleH, linkingH, attachmentH, entityH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background reminder worker
	reminderWorker := service.NewReminderWorker(linkingSvc, service.ReminderWorkerConfig{
		Interval: time.Duration(cfg.Reminder.IntervalHours) * time.Hour,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		reminderWorker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	// Let in-flight synchronization runs and the reminder worker finish.
	syncSvc.Wait()
	<-workerDone

	log.Println("Shutdown complete")
	return nil
}
