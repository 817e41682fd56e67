package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pinemarten/covid-trends-etl/internal/domain"
	"github.com/pinemarten/covid-trends-etl/internal/observability"
)

// Extractor loads the raw dataset into an in-memory table.
type Extractor interface {
	Extract(ctx context.Context) (domain.Table, domain.LoadStats, error)
}

// Sink persists one run's analysis. Name identifies the sink in logs and
// metrics.
type Sink interface {
	Name() string
	Store(ctx context.Context, run domain.RunMeta, a domain.Analysis) error
}

// Pipeline orchestrates a single load-analyze-store pass over the dataset.
type Pipeline struct {
	extractor Extractor
	sinks     []Sink
	opts      domain.AnalysisOptions
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, sinks []Sink, opts domain.AnalysisOptions, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		sinks:     sinks,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Result carries everything a caller needs to report on a finished run.
type Result struct {
	Run      domain.RunMeta
	Stats    domain.LoadStats
	Analysis domain.Analysis
}

// Run executes one end-to-end pass: extract the dataset, build the analysis,
// and store it in every configured sink. There are no retries at any stage;
// a failed run is rerun from the top, and sinks are written so a rerun
// produces the same artifacts.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	run := domain.NewRunMeta()
	start := time.Now()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	logger := p.logger.With("run_id", run.ID)
	logger.Info("run started", "countries", len(p.opts.Countries), "sinks", len(p.sinks))

	for _, col := range p.opts.FillColumns {
		if !domain.KnownMetric(col) {
			logger.Warn("unknown fill column ignored", "column", string(col))
		}
	}

	table, stats, err := p.extractor.Extract(ctx)
	if err != nil {
		return p.fail(logger, Result{Run: run}, fmt.Errorf("extract: %w", err))
	}
	p.metrics.RowsLoaded.Add(float64(stats.Rows))
	p.metrics.RowsDroppedMissingDate.Add(float64(stats.DroppedMissingDate))
	badCells := 0
	for col, n := range stats.BadNumericValues {
		p.metrics.BadNumericCells.WithLabelValues(string(col)).Add(float64(n))
		badCells += n
	}
	logger.Info("dataset loaded",
		"rows", stats.Rows,
		"columns", stats.Columns,
		"dropped_missing_date", stats.DroppedMissingDate,
		"bad_numeric_cells", badCells)

	for _, c := range missingCountries(table, p.opts.Countries) {
		logger.Warn("configured country matched no rows", "country", c)
	}

	analysis, err := domain.BuildAnalysis(table, p.opts)
	if err != nil {
		return p.fail(logger, Result{Run: run, Stats: stats}, fmt.Errorf("analyze: %w", err))
	}
	p.metrics.RowsFiltered.Add(float64(analysis.Filtered.Len()))
	for col, n := range analysis.FillCounts {
		p.metrics.CellsFilled.WithLabelValues(string(col)).Add(float64(n))
	}
	p.metrics.DeathRateUndefined.Add(float64(analysis.DeathRateUndefined))
	p.metrics.SnapshotRows.WithLabelValues("filtered").Set(float64(len(analysis.Latest.Rows)))
	p.metrics.SnapshotRows.WithLabelValues("dataset").Set(float64(len(analysis.Global.Rows)))
	logger.Info("analysis complete",
		"filtered_rows", analysis.Filtered.Len(),
		"latest_date", analysis.Latest.Date.Format("2006-01-02"),
		"global_date", analysis.Global.Date.Format("2006-01-02"),
		"ranked_countries", len(analysis.Ranking),
		"death_rate_undefined", analysis.DeathRateUndefined)

	result := Result{Run: run, Stats: stats, Analysis: analysis}
	for _, sink := range p.sinks {
		if err := sink.Store(ctx, run, analysis); err != nil {
			return p.fail(logger, result, fmt.Errorf("store %s: %w", sink.Name(), err))
		}
		p.metrics.ArtifactsWritten.WithLabelValues(sink.Name()).Inc()
		logger.Info("analysis stored", "sink", sink.Name())
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	logger.Info("run finished", "duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) fail(logger *slog.Logger, result Result, err error) (Result, error) {
	p.metrics.RunsTotal.WithLabelValues("error").Inc()
	logger.Error("run failed", "error", err)
	return result, err
}

// missingCountries reports configured countries absent from the loaded table,
// in configuration order. A miss is usually a typo in the allow-list.
func missingCountries(t domain.Table, countries []string) []string {
	seen := make(map[string]bool, len(countries))
	for _, r := range t.Rows {
		seen[r.Location] = true
	}
	var missing []string
	for _, c := range countries {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
