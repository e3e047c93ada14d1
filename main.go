// Package main runs the discount screener HTTP service: a stock master
// collected from index constituent lists, 5-year average P/E baselines, and
// dated valuation snapshots with discount classification, served over a thin
// JSON API backed by PostgreSQL.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"discount-screener/config"
	"discount-screener/internal/api"
	"discount-screener/internal/app"
	"discount-screener/observability"
	"discount-screener/repository"
	"discount-screener/screener"
	"discount-screener/services"
)

func main() {
	// Load .env file if present (ignore error, env vars may be set directly)
	_ = godotenv.Load()

	isProduction := os.Getenv("APP_ENV") == "production"
	observability.InitLogger(isProduction)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("failed to load configuration", "error", err)
	}

	ctx := context.Background()

	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		observability.Fatal("failed to connect to database", "error", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		observability.Fatal("failed to ensure database schema", "error", err)
	}
	observability.Info("connected to database")

	indexSource := services.NewIndexSourceService(cfg.IndexSource.BaseURL, cfg.IndexSource.UserAgent)
	marketData := services.NewMarketDataService(cfg.MarketData.BaseURL, cfg.MarketData.SymbolSuffix, cfg.Reference.WindowYears)

	collector := screener.NewSymbolCollector(indexSource, repo)
	builder := screener.NewReferenceBuilder(marketData, repo,
		cfg.Reference.DiscountThresholdPct, cfg.Reference.MinValidPeriods)
	generator := screener.NewSnapshotGenerator(marketData, repo)

	application := app.New(cfg, repo, collector, builder, generator)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
	}

	go func() {
		observability.Info("starting discount screener server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("server stopped")
}
