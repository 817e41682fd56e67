package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	RowsLoaded             prometheus.Counter
	RowsDroppedMissingDate prometheus.Counter
	BadNumericCells        *prometheus.CounterVec // label: column
	RowsFiltered           prometheus.Counter
	CellsFilled            *prometheus.CounterVec // label: column
	DeathRateUndefined     prometheus.Counter

	SnapshotRows *prometheus.GaugeVec // label: scope={filtered,dataset}

	ArtifactsWritten *prometheus.CounterVec // label: sink
	SinkEnabled      *prometheus.GaugeVec   // label: sink

	RunsTotal       *prometheus.CounterVec // label: outcome={success,error}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "rows_loaded_total",
			Help:      "Total dataset rows parsed into the in-memory table.",
		}),
		RowsDroppedMissingDate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "rows_dropped_missing_date_total",
			Help:      "Rows dropped at load time because the date cell was empty.",
		}),
		BadNumericCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "bad_numeric_cells_total",
			Help:      "Cells coerced to no-value because they did not parse as numbers.",
		}, []string{"column"}),
		RowsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "rows_filtered_total",
			Help:      "Rows selected into the configured country subset.",
		}),
		CellsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "cells_filled_total",
			Help:      "Missing cells replaced with zero, by column.",
		}, []string{"column"}),
		DeathRateUndefined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "death_rate_undefined_total",
			Help:      "Filtered rows where the death rate could not be computed.",
		}),
		SnapshotRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "snapshot_rows",
			Help:      "Rows in the latest-date snapshot, by scope.",
		}, []string{"scope"}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "artifacts_written_total",
			Help:      "Successful artifact writes, by sink.",
		}, []string{"sink"}),
		SinkEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "sink_enabled",
			Help:      "1 when a sink is configured for this run, 0 otherwise.",
		}, []string{"sink"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "runs_total",
			Help:      "Completed pipeline runs, by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-analyze-store run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsDroppedMissingDate,
		m.BadNumericCells,
		m.RowsFiltered,
		m.CellsFilled,
		m.DeathRateUndefined,
		m.SnapshotRows,
		m.ArtifactsWritten,
		m.SinkEnabled,
		m.RunsTotal,
		m.RunDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_etl", Name: "rows_loaded_total"}),
		RowsDroppedMissingDate: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_etl", Name: "rows_dropped_missing_date_total"}),
		BadNumericCells:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_etl", Name: "bad_numeric_cells_total"}, []string{"column"}),
		RowsFiltered:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_etl", Name: "rows_filtered_total"}),
		CellsFilled:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_etl", Name: "cells_filled_total"}, []string{"column"}),
		DeathRateUndefined:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_etl", Name: "death_rate_undefined_total"}),
		SnapshotRows:           prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "covid_etl", Name: "snapshot_rows"}, []string{"scope"}),
		ArtifactsWritten:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_etl", Name: "artifacts_written_total"}, []string{"sink"}),
		SinkEnabled:            prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "covid_etl", Name: "sink_enabled"}, []string{"sink"}),
		RunsTotal:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_etl", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "covid_etl", Name: "run_duration_seconds"}),
		PipelineRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_etl", Name: "pipeline_running"}),
	}
}
