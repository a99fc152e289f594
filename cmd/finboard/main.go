package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/dashboard"
	apphttp "finboard/internal/http"
	applog "finboard/internal/log"
	"finboard/internal/sources/httpapi"
	"finboard/internal/worker"
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

	client := httpapi.NewClient(cfg.APIBaseURL,
		httpapi.WithPaths(cfg.TransactionsPath, cfg.CategoriesPath),
		httpapi.WithTimeout(cfg.RequestTimeout))

	store := dashboard.NewStore(client, client, dashboard.Options{
		RecentLimit:     cfg.RecentLimit,
		DefaultCategory: cfg.DefaultCategoryLabel,
		Logger:          logger,
	})

	// Change notifications are optional; without a broker the dashboard only
	// refreshes on the ticker or on demand.
	var changes worker.ChangeSource
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			applog.LogError(context.Background(), logger, "Failed to initialize AMQP client", err,
				applog.ErrorTypeNetwork, applog.OpStartup, nil)
			os.Exit(1)
		}
		defer amqpClient.Close()
		changes = amqpClient
	}

	srv, err := apphttp.NewDashboardServer(":"+cfg.Port, store, logger)
	if err != nil {
		applog.LogError(context.Background(), logger, "Failed to initialize dashboard server", err,
			applog.ErrorTypeInternal, applog.OpStartup, nil)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		store.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		worker.NewRefreshWorker(store, changes, cfg.RefreshInterval, logger).Run(ctx)
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			applog.LogError(shutdownCtx, logger, "Server shutdown error", err,
				applog.ErrorTypeInternal, applog.OpShutdown, nil)
		}
	}()

	logger.Info("Starting finboard dashboard",
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"refresh_interval", cfg.RefreshInterval.String(),
		"amqp_enabled", changes != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.LogError(context.Background(), logger, "Server error", err,
			applog.ErrorTypeNetwork, applog.OpStartup, nil)
		os.Exit(1)
	}

	<-ctx.Done()
	wg.Wait()
	logger.Info("Dashboard stopped gracefully")
}
