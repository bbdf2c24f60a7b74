package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fluxadmin/internal/admin"
	"fluxadmin/internal/amqp"
	"fluxadmin/internal/cli"
	apphttp "fluxadmin/internal/http"
	applog "fluxadmin/internal/log"
	"fluxadmin/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, os.Stdout)

	backend := admin.NewClient(cfg.BackendURL, cfg.BackendTimeout,
		admin.WithLogger(logger.WithComponent(applog.ComponentAdmin)))

	opts := services.Options{
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
		Logger:    logger,
	}

	var events *amqp.Client
	if cfg.EventsEnabled() {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable at startup, will retry on publish",
				applog.FieldError, err.Error(),
				"exchange", cfg.AMQPExchange)
			events = amqp.NewLazyClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		}
		opts.Publisher = events
	} else {
		logger.Info("Settlement events disabled - no AMQP_URL provided")
	}

	svc := services.NewSettlements(backend, opts)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, backend, apphttp.Options{
		Logger:              logger,
		SettleRatePerMinute: cfg.SettleRatePerMinute,
	})
	if err != nil {
		logger.Error("Failed to initialize console", applog.FieldError, err.Error(),
			"error_type", applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		svc.Close()
		if events != nil {
			if err := events.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting flux admin console",
		"port", cfg.Port,
		"backend_url", backend.BaseURL(),
		"cache_ttl", cfg.CacheTTL.String(),
		"events", cfg.EventsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
