// Command fetch downloads the OWID COVID-19 dataset to the configured
// DATASET_PATH so a subsequent etl run can work offline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pinemarten/covid-trends-etl/internal/adapter/owid"
	"github.com/pinemarten/covid-trends-etl/internal/config"
	"github.com/pinemarten/covid-trends-etl/internal/observability"
)

func main() {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := owid.NewFetcher(cfg.FetchTimeout, logger)
	if err := fetcher.Fetch(ctx, cfg.DatasetURL, cfg.DatasetPath); err != nil {
		logger.Error("fetch failed", "url", cfg.DatasetURL, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Dataset saved to %s\n", cfg.DatasetPath)
}
