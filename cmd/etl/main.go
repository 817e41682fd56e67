// Command etl runs one load-analyze-store pass over the OWID COVID-19
// dataset: it loads the delimited dataset, cleans the configured country
// subset, derives death rates and vaccination coverage, and writes the
// snapshot artifacts to every configured sink.
//
// Logs go to stderr; stdout carries the human-readable run summary.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pinemarten/covid-trends-etl/internal/adapter/export"
	httpadapter "github.com/pinemarten/covid-trends-etl/internal/adapter/http"
	kafkaadapter "github.com/pinemarten/covid-trends-etl/internal/adapter/kafka"
	"github.com/pinemarten/covid-trends-etl/internal/adapter/owid"
	"github.com/pinemarten/covid-trends-etl/internal/adapter/sqlite"
	"github.com/pinemarten/covid-trends-etl/internal/config"
	"github.com/pinemarten/covid-trends-etl/internal/domain"
	"github.com/pinemarten/covid-trends-etl/internal/observability"
	"github.com/pinemarten/covid-trends-etl/internal/pipeline"
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
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, cfg, logger, metrics)
	if err != nil {
		explain(os.Stdout, err, cfg)
		os.Exit(1)
	}

	printSummary(os.Stdout, cfg, result)
}

// run assembles the configured sinks around the pipeline and executes one
// pass. Resource cleanup happens here so that main can exit on error without
// leaking handles.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (pipeline.Result, error) {
	sinks := []pipeline.Sink{export.NewStore(cfg.OutputDir, logger)}
	metrics.SinkEnabled.WithLabelValues("files").Set(1)

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()
		if n, err := store.RunCount(ctx); err == nil {
			logger.Info("run history enabled", "path", cfg.SQLitePath, "previous_runs", n)
		}
		sinks = append(sinks, store)
		metrics.SinkEnabled.WithLabelValues("sqlite").Set(1)
	} else {
		metrics.SinkEnabled.WithLabelValues("sqlite").Set(0)
		logger.Info("run history disabled")
	}

	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		sinks = append(sinks, publisher)
		metrics.SinkEnabled.WithLabelValues("kafka").Set(1)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", len(cfg.KafkaBrokers))
	} else {
		metrics.SinkEnabled.WithLabelValues("kafka").Set(0)
		logger.Info("kafka publishing disabled")
	}

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	p := pipeline.New(owid.NewLoader(cfg.DatasetPath), sinks, domain.AnalysisOptions{
		Countries:   cfg.Countries,
		FillColumns: cfg.FillColumnNames(),
	}, logger, metrics)

	return p.Run(ctx)
}

// explain translates the errors a user can fix into plain guidance on stdout.
// Everything else has already been logged with full detail.
func explain(w io.Writer, err error, cfg *config.Config) {
	var missing *domain.MissingInputError
	if errors.As(err, &missing) {
		fmt.Fprintf(w, "The source dataset was not found at %s.\n\n", missing.Path)
		fmt.Fprintf(w, "Download the latest copy:\n\n")
		fmt.Fprintf(w, "    curl -fLo %s %s\n\n", missing.Path, cfg.DatasetURL)
		fmt.Fprintf(w, "or run the bundled fetcher:\n\n")
		fmt.Fprintf(w, "    covid-fetch\n\n")
		fmt.Fprintf(w, "and rerun.\n")
		return
	}

	var empty *domain.EmptyDatasetError
	if errors.As(err, &empty) {
		if empty.Scope == "filtered" {
			fmt.Fprintf(w, "None of the configured countries (%s) matched any dataset rows.\n",
				strings.Join(cfg.Countries, ", "))
			fmt.Fprintf(w, "Check the COUNTRIES setting against the dataset's location names.\n")
		} else {
			fmt.Fprintf(w, "The dataset at %s contains no usable rows.\n", cfg.DatasetPath)
		}
		return
	}

	fmt.Fprintf(w, "Run failed: %v\n", err)
}

func printSummary(w io.Writer, cfg *config.Config, result pipeline.Result) {
	stats := result.Stats
	a := result.Analysis

	fmt.Fprintf(w, "Loaded %d rows x %d columns from %s\n", stats.Rows, stats.Columns, cfg.DatasetPath)
	if stats.DroppedMissingDate > 0 {
		fmt.Fprintf(w, "  dropped %d rows with no date\n", stats.DroppedMissingDate)
	}
	if bad := total(stats.BadNumericValues); bad > 0 {
		fmt.Fprintf(w, "  treated %d unparseable numeric cells as missing\n", bad)
	}

	fmt.Fprintf(w, "Filtered to %d rows across %d tracked countries\n", a.Filtered.Len(), len(cfg.Countries))
	if filled := total(a.FillCounts); filled > 0 {
		fmt.Fprintf(w, "  zero-filled %d missing cells\n", filled)
	}
	if a.DeathRateUndefined > 0 {
		fmt.Fprintf(w, "  death rate undefined for %d rows\n", a.DeathRateUndefined)
	}

	fmt.Fprintf(w, "Latest snapshot, tracked countries: %s (%d rows)\n",
		a.Latest.Date.Format("2006-01-02"), len(a.Latest.Rows))
	fmt.Fprintf(w, "Latest snapshot, full dataset:      %s (%d rows)\n",
		a.Global.Date.Format("2006-01-02"), len(a.Global.Rows))

	fmt.Fprintf(w, "\nVaccination coverage (people vaccinated as %% of population):\n")
	if len(a.Ranking) == 0 {
		fmt.Fprintf(w, "  no tracked country reports vaccination figures yet\n")
	}
	for i, r := range a.Ranking {
		fmt.Fprintf(w, "  %2d. %-20s %6.2f%%\n", i+1, r.Location, *r.PctVaccinated)
	}

	fmt.Fprintf(w, "\nArtifacts written to %s\n", cfg.OutputDir)
}

func total(m map[domain.Column]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
