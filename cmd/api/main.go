package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier-bridge/internal/admin"
	"courier-bridge/internal/audit"
	"courier-bridge/internal/auth"
	"courier-bridge/internal/calls"
	"courier-bridge/internal/config"
	"courier-bridge/internal/customers"
	"courier-bridge/internal/httpapi"
	"courier-bridge/internal/profiles"
	"courier-bridge/internal/reporting"
	"courier-bridge/internal/settings"
	"courier-bridge/internal/telephony"
	"courier-bridge/pkg/logger"
	"courier-bridge/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Repositories and services.
	profileRepo := profiles.NewPostgresRepository(db)
	customerRepo := customers.NewPostgresRepository(db)
	callStore := calls.NewPostgresStore(db)
	settingSvc := settings.NewService(db, rdb)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	reconciler := calls.NewReconciler(callStore)
	reportSvc := reporting.NewService(callStore)

	var provider *telephony.Client
	if cfg.TwilioConfigured() {
		provider = telephony.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	} else {
		log.Warn("voice provider credentials absent, call initiation disabled")
	}

	initiator := calls.NewInitiator(calls.InitiatorConfig{
		Configured:          cfg.TwilioConfigured(),
		BusinessPhone:       cfg.Twilio.PhoneNumber,
		DefaultCourierPhone: cfg.Twilio.DefaultCourierPhone,
		BaseURL:             cfg.App.BaseURL,
		Production:          cfg.IsProduction(),
	}, provider, profileRepo, customerRepo, callStore)

	webhooks := telephony.WebhookHandlers{
		Statuses:         reconciler,
		Incoming:         reconciler,
		Settings:         settingSvc,
		Validator:        telephony.NewSignatureValidator(cfg.Twilio.AuthToken),
		EnforceSignature: !cfg.IsLocalEnv(),
		BusinessPhone:    cfg.Twilio.PhoneNumber,
		PublicBaseURL:    cfg.App.BaseURL,
	}

	resetSvc := admin.NewResetService(admin.NewPostgresResetStore(db), settingSvc, auditSvc, log)
	resetHandler := admin.NewResetHandler(resetSvc, authManager, cfg.Reset.CronSecret)

	api := httpapi.Handlers{
		Auth:               authManager,
		Profiles:           profileRepo,
		Customers:          customerRepo,
		Settings:           settingSvc,
		Reports:            reportSvc,
		Initiator:          initiator,
		Audits:             auditSvc,
		Provider:           provider,
		DB:                 db,
		ProviderConfigured: cfg.TwilioConfigured(),
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, api, webhooks, resetHandler, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
