package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"opsdesk/internal/api"
	"opsdesk/internal/backend"
	"opsdesk/internal/cli"
	"opsdesk/internal/config"
	apphttp "opsdesk/internal/http"
	applog "opsdesk/internal/log"
	"opsdesk/internal/session"
)

const sessionPurgeInterval = 15 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig((*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err.Error())
		}
	}()

	client := api.NewClient(api.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		CookieName: cfg.APISessionCookie,
	})
	sessions := session.NewManager(res.Sessions, session.Options{
		TTL:    cfg.SessionTTL,
		Secure: cfg.SecureCookies,
	}, logger)

	deps := apphttp.Deps{
		Config:   cfg,
		API:      client,
		Sessions: sessions,
		Audit:    res.Audit,
		AuditLog: res.AuditLog,
		Exporter: res.Exporter,
		Storage:  res.Storage,
		Logger:   logger,
	}
	srv, err := apphttp.NewServer(":"+cfg.Port, deps)
	if err != nil {
		logger.Error("Failed to create server", applog.FieldError, err.Error())
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.APITimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
	})
	go sessions.RunPurge(ctx, sessionPurgeInterval)

	logger.Info("Starting opsdesk server",
		"port", cfg.Port,
		"api", cfg.APIBaseURL,
		"sessions", cfg.SessionBackend,
		"amqp", cfg.AMQPEnabled(),
		"sheets", cfg.SheetsEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
