package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/amqp"
	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/config"
	apphttp "finboard/internal/http"
	applog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{Level: cfg.LogLevel, Component: applog.ComponentApp})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		applog.LogError(context.Background(), logger, "Configuration validation failed", err,
			applog.ErrorTypeConfiguration, applog.OpStartup, nil)
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		applog.LogError(context.Background(), logger, "Invalid backend configuration", err,
			applog.ErrorTypeConfiguration, applog.OpStartup, nil)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		applog.LogError(context.Background(), logger, "Failed to create backend", err,
			applog.ErrorTypeDatabase, applog.OpStartup,
			applog.LogFields{applog.FieldBackend: cfg.DataBackend})
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err.Error())
		}
	}()

	caches := cache.NewManager(logger)
	for _, c := range result.Caches {
		caches.Register(c)
	}
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	opts := apphttp.APIOptions{
		Backend:   result.Backend,
		Ping:      result.Ping,
		RateLimit: ratelimit.DefaultConfig(),
		Logger:    logger,
	}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			applog.LogError(context.Background(), logger, "Failed to initialize AMQP client", err,
				applog.ErrorTypeNetwork, applog.OpStartup, nil)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts.Publisher = amqpClient
	}

	srv := apphttp.NewAPIServer(":"+cfg.APIPort, opts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			applog.LogError(shutdownCtx, logger, "Server shutdown error", err,
				applog.ErrorTypeInternal, applog.OpShutdown, nil)
		}
		cancel()
	}()

	logger.Info("Starting finboard API",
		"port", cfg.APIPort,
		applog.FieldBackend, cfg.DataBackend,
		"read_only", backendConfig.Type.IsReadOnly(),
		"amqp_enabled", opts.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.LogError(context.Background(), logger, "Server error", err,
			applog.ErrorTypeNetwork, applog.OpStartup, nil)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("API stopped gracefully")
}
