package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "opticart/docs" // swagger docs

	"opticart/internal/app"
	"opticart/internal/cache"
	"opticart/internal/config"
	"opticart/internal/db"
	"opticart/internal/logging"
	"opticart/internal/metrics"
	"opticart/internal/notify"
	"opticart/internal/storage"
)

// @title Opticart API
// @version 1.0
// @description Eyewear shop backend: accounts with OTP-gated registration, login and password reset, catalog, cart, orders and reviews.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, false, "error").Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("database init", "err", err)
		os.Exit(1)
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			log.Warn("drop tables", "err", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, running without cache", "addr", cfg.RedisAddr, "err", err)
	}

	disk, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Error("storage init", "err", err)
		os.Exit(1)
	}

	e := app.NewServer(app.Options{
		Config:   cfg,
		DB:       gormDB,
		Cache:    cacheClient,
		Disk:     disk,
		Notifier: notify.New(cfg.SMTP, log),
		Metrics:  metrics.New(),
		Log:      log,
	})

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", "addr", addr, "swagger", swaggerURL(cfg))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server start", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
