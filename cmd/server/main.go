package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounthandler "report-api/internal/account/handler"
	accountrepo "report-api/internal/account/repository"
	accountservice "report-api/internal/account/service"
	"report-api/internal/attachment"
	"report-api/internal/audit"
	audithandler "report-api/internal/audit/handler"
	auditrepo "report-api/internal/audit/repository"
	authhandler "report-api/internal/auth/handler"
	authservice "report-api/internal/auth/service"
	"report-api/internal/config"
	"report-api/internal/db"
	healthhandler "report-api/internal/health/handler"
	"report-api/internal/notify"
	"report-api/internal/policy/engine"
	reporthandler "report-api/internal/report/handler"
	reportrepo "report-api/internal/report/repository"
	reportservice "report-api/internal/report/service"
	"report-api/internal/server"
	"report-api/internal/server/middleware"
	"report-api/internal/session/repository"
	"report-api/internal/store"
	"report-api/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "report-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	var docs store.Store
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer conn.Close()
		docs = store.NewPostgresStore(conn)
	} else {
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		docs = fs
	}

	uploads, err := attachment.NewDiskStorage(cfg.UploadDir)
	if err != nil {
		log.Fatalf("attachments: %v", err)
	}

	policy, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMSLocalAPIKey != "" {
		notifier = notify.NewSMSLocalNotifier(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	}

	accounts := accountrepo.NewDocStoreRepository(docs)
	sessions := repository.NewDocStoreRepository(docs)
	reports := reportrepo.NewDocStoreRepository(docs)
	auditRepo := auditrepo.NewDocStoreRepository(docs)
	auditLog := audit.NewLogger(auditRepo, middleware.ClientIP)

	auth := authservice.NewAuthService(accounts, sessions, notifier, auditLog)
	reportSvc := reportservice.NewReportService(reports, uploads, policy, auditLog)
	accountSvc := accountservice.NewAccountService(accounts, policy)

	handler := server.New(server.Handlers{
		Auth:     authhandler.NewAuthHandler(auth, cfg.CodeReturnToClient),
		Reports:  reporthandler.NewReportHandler(reportSvc),
		Accounts: accounthandler.NewAccountHandler(accountSvc),
		Audit:    audithandler.NewAuditHandler(auditRepo, policy),
		Health:   healthhandler.NewHealthHandler(docs),
	}, auth, cfg.CORSAllowedOriginsList())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: %v", err)
	}
	log.Println("HTTP server stopped")
}
