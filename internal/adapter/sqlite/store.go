// Package sqlite persists run history and the derived views to a local
// SQLite database. Unlike the file artifacts, which are overwritten each run,
// the database accumulates: every run's output lands under its run ID, so
// consecutive analyses can be compared after the fact.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pinemarten/covid-trends-etl/internal/domain"
)

const dateLayout = "2006-01-02"

// Store writes analysis results to SQLite. It satisfies the pipeline's sink
// interface.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			started_at    TEXT NOT NULL,
			latest_date   TEXT NOT NULL,
			global_date   TEXT NOT NULL,
			filtered_rows INTEGER NOT NULL,
			snapshot_rows INTEGER NOT NULL,
			ranking_rows  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS filtered_records (
			run_id                  TEXT NOT NULL REFERENCES runs(id),
			location                TEXT NOT NULL,
			iso_code                TEXT,
			date                    TEXT NOT NULL,
			total_cases             REAL,
			new_cases               REAL,
			total_deaths            REAL,
			new_deaths              REAL,
			total_vaccinations      REAL,
			people_vaccinated       REAL,
			population              REAL,
			total_cases_per_million REAL,
			death_rate              REAL,
			PRIMARY KEY (run_id, location, date)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_records (
			run_id                  TEXT NOT NULL REFERENCES runs(id),
			scope                   TEXT NOT NULL,
			location                TEXT NOT NULL,
			iso_code                TEXT,
			date                    TEXT NOT NULL,
			total_cases             REAL,
			new_cases               REAL,
			total_deaths            REAL,
			new_deaths              REAL,
			total_vaccinations      REAL,
			people_vaccinated       REAL,
			population              REAL,
			total_cases_per_million REAL,
			death_rate              REAL,
			pct_vaccinated          REAL,
			PRIMARY KEY (run_id, scope, location)
		)`,
		`CREATE TABLE IF NOT EXISTS vaccination_ranking (
			run_id            TEXT NOT NULL REFERENCES runs(id),
			position          INTEGER NOT NULL,
			location          TEXT NOT NULL,
			date              TEXT NOT NULL,
			people_vaccinated REAL,
			population        REAL,
			pct_vaccinated    REAL,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.30q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Name identifies this sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

// Store writes one run's analysis inside a single transaction: the run row,
// the filtered table, both snapshots, and the ranking. Optional metrics pass
// through as NULL, never as zero.
func (s *Store) Store(ctx context.Context, run domain.RunMeta, a domain.Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, latest_date, global_date, filtered_rows, snapshot_rows, ranking_rows)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		a.Latest.Date.Format(dateLayout),
		a.Global.Date.Format(dateLayout),
		len(a.Filtered.Rows),
		len(a.Latest.Rows),
		len(a.Ranking),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range a.Filtered.Rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO filtered_records
			 (run_id, location, iso_code, date, total_cases, new_cases, total_deaths, new_deaths,
			  total_vaccinations, people_vaccinated, population, total_cases_per_million, death_rate)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Location, r.ISOCode, r.Date.Format(dateLayout),
			r.TotalCases, r.NewCases, r.TotalDeaths, r.NewDeaths,
			r.TotalVaccinations, r.PeopleVaccinated, r.Population, r.TotalCasesPerMillion,
			r.DeathRate,
		)
		if err != nil {
			return fmt.Errorf("insert filtered %s@%s: %w", r.Location, r.Date.Format(dateLayout), err)
		}
	}

	if err := s.insertSnapshot(ctx, tx, run.ID, "filtered", a.Latest); err != nil {
		return err
	}
	if err := s.insertSnapshot(ctx, tx, run.ID, "dataset", a.Global); err != nil {
		return err
	}

	for i, r := range a.Ranking {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO vaccination_ranking
			 (run_id, position, location, date, people_vaccinated, population, pct_vaccinated)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i+1, r.Location, r.Date.Format(dateLayout),
			r.PeopleVaccinated, r.Population, r.PctVaccinated,
		)
		if err != nil {
			return fmt.Errorf("insert ranking position %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("run recorded", "run_id", run.ID,
		"filtered_rows", len(a.Filtered.Rows), "ranking_rows", len(a.Ranking))
	return nil
}

func (s *Store) insertSnapshot(ctx context.Context, tx *sql.Tx, runID, scope string, snap domain.Snapshot) error {
	for _, r := range snap.Rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_records
			 (run_id, scope, location, iso_code, date, total_cases, new_cases, total_deaths, new_deaths,
			  total_vaccinations, people_vaccinated, population, total_cases_per_million, death_rate, pct_vaccinated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, scope, r.Location, r.ISOCode, r.Date.Format(dateLayout),
			r.TotalCases, r.NewCases, r.TotalDeaths, r.NewDeaths,
			r.TotalVaccinations, r.PeopleVaccinated, r.Population, r.TotalCasesPerMillion,
			r.DeathRate, r.PctVaccinated,
		)
		if err != nil {
			return fmt.Errorf("insert %s snapshot %s: %w", scope, r.Location, err)
		}
	}
	return nil
}

// RunCount reports how many runs the database has recorded.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// RunSummary is one row of run history.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	LatestDate   time.Time
	GlobalDate   time.Time
	FilteredRows int
	SnapshotRows int
	RankingRows  int
}

// Runs returns run history, newest first, up to limit rows.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, latest_date, global_date, filtered_rows, snapshot_rows, ranking_rows
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, latest, global string
		if err := rows.Scan(&r.ID, &started, &latest, &global, &r.FilteredRows, &r.SnapshotRows, &r.RankingRows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		if r.LatestDate, err = time.Parse(dateLayout, latest); err != nil {
			return nil, fmt.Errorf("parse latest_date %q: %w", latest, err)
		}
		if r.GlobalDate, err = time.Parse(dateLayout, global); err != nil {
			return nil, fmt.Errorf("parse global_date %q: %w", global, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
