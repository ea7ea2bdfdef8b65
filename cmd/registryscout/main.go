package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/registryscout/registryscout/internal/app"
	"github.com/registryscout/registryscout/internal/classify"
	exporthttp "github.com/registryscout/registryscout/internal/export/http"
	"github.com/registryscout/registryscout/internal/observability"
	"github.com/registryscout/registryscout/internal/registry"
	"github.com/registryscout/registryscout/internal/search"
	searchhttp "github.com/registryscout/registryscout/internal/search/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	registryClient := registry.NewClient(registry.Config{
		BaseURL:      cfg.RegistryBaseURL,
		APIKey:       cfg.RegistryAPIKey,
		PageSize:     cfg.RegistryPageSize,
		RateLimit:    cfg.RegistryRateLimit,
		RateWindow:   cfg.RegistryRateWindow,
		MaxAttempts:  cfg.RegistryMaxAttempts,
		RetryBackoff: cfg.RegistryRetryBackoff,
		RateBackoff:  cfg.RegistryRateBackoff,
		Timeout:      cfg.RegistryTimeout,
	}, logger, metrics)

	enricher := search.NewEnricher(registryClient, logger, cfg.EnrichConcurrency, cfg.EnrichMaxNames)
	aggregator := search.NewAggregator(registryClient, enricher, logger, cfg.MaxResults)

	classifier := &classify.Client{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Logger:  logger,
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SearchHandler:   searchhttp.NewHandler(logger, aggregator),
		ExportHandler:   exporthttp.NewHandler(logger),
		ClassifyHandler: classify.NewHandler(logger, classifier),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
