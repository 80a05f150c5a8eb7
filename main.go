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

	"ehd-tour/internal"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := internal.ConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.NewLogger(os.Stdout, cfg.LogLevel)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("server.starting",
		"storage", cfg.StorageDriver,
		"email_configured", cfg.Mail.Enabled(),
		"api_base_url", cfg.BaseURL,
		"admin_auth_required", cfg.AdminAuthRequired,
	)
	if !cfg.JWTSecretFromEnv {
		logger.Warn("JWT_SECRET not set, admin tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store internal.Store
	switch cfg.StorageDriver {
	case internal.StoragePostgres:
		db, err := internal.ConnectDB(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		if store, err = internal.NewPostgresStore(ctx, db); err != nil {
			log.Fatalf("db: %v", err)
		}
	case internal.StorageMemory:
		store = internal.NewMemoryStore()
	default:
		if store, err = internal.NewFileStore(cfg.DataDir); err != nil {
			log.Fatalf("store: %v", err)
		}
	}

	metrics := internal.NewMetrics()
	dispatcher := internal.NewDispatcher(internal.NewMailer(cfg.Mail, logger), cfg.EmailSendTimeout, logger, metrics)

	gate, err := internal.NewAdminGate(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret, cfg.AdminTokenTTL)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	r := internal.NewRouter(internal.Deps{
		Registrations:     internal.NewRegistrationService(store, dispatcher, logger, metrics),
		Questions:         internal.NewQuestionService(store, logger, metrics),
		Exporter:          internal.NewExporter(store),
		Gate:              gate,
		Metrics:           metrics,
		Log:               logger,
		AllowedOrigins:    cfg.AllowedOrigins,
		AdminAuthRequired: cfg.AdminAuthRequired,
		CookieSecure:      cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown", "err", err)
	}
	dispatcher.Wait()
}
