// Package export writes the analysis artifacts consumed by the presentation
// layer: one CSV and one JSON file per derived view. Writers are
// deterministic, with stable row order, stable float formatting, and no run
// metadata in the files, so re-running over unchanged input reproduces every
// artifact byte for byte.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pinemarten/covid-trends-etl/internal/domain"
)

const dateLayout = "2006-01-02"

// Artifact base names under the output directory.
const (
	FilteredName = "filtered"
	LatestName   = "latest_snapshot"
	GlobalName   = "global_snapshot"
	RankingName  = "vaccination_ranking"
)

// Store writes all artifacts into a directory. It satisfies the pipeline's
// sink interface.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir; the directory is created on first
// write.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Name identifies this sink in logs and metrics.
func (s *Store) Name() string { return "files" }

// Store writes the eight artifacts. Any failure aborts the run; a partial
// artifact set is worse than none.
func (s *Store) Store(_ context.Context, _ domain.RunMeta, a domain.Analysis) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	filtered := sortedByLocationDate(a.Filtered.Rows)

	writes := []struct {
		name string
		csv  func(path string) error
		json func(path string) error
	}{
		{FilteredName,
			func(p string) error { return writeRecordsCSV(p, filteredHeader, filteredCells, filtered) },
			func(p string) error { return writeJSON(p, filtered) }},
		{LatestName,
			func(p string) error { return writeRecordsCSV(p, latestHeader, latestCells, a.Latest.Rows) },
			func(p string) error { return writeJSON(p, a.Latest.Rows) }},
		{GlobalName,
			func(p string) error { return writeRecordsCSV(p, globalHeader, globalCells, a.Global.Rows) },
			func(p string) error { return writeJSON(p, a.Global.Rows) }},
		{RankingName,
			func(p string) error { return writeRankingCSV(p, a.Ranking) },
			func(p string) error { return writeJSON(p, rankedRecords(a.Ranking)) }},
	}

	for _, w := range writes {
		csvPath := filepath.Join(s.dir, w.name+".csv")
		if err := w.csv(csvPath); err != nil {
			return fmt.Errorf("write %s.csv: %w", w.name, err)
		}
		jsonPath := filepath.Join(s.dir, w.name+".json")
		if err := w.json(jsonPath); err != nil {
			return fmt.Errorf("write %s.json: %w", w.name, err)
		}
		s.logger.Debug("artifact written", "name", w.name, "dir", s.dir)
	}

	s.logger.Info("artifacts written", "dir", s.dir, "files", len(writes)*2)
	return nil
}

// sortedByLocationDate copies rows into (location, date) order, the stable
// key every artifact is addressed by.
func sortedByLocationDate(rows []domain.Record) []domain.Record {
	out := make([]domain.Record, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// --- column layouts ---

func baseHeader() []string {
	h := []string{"location", "iso_code", "date"}
	for _, c := range domain.MetricColumns {
		h = append(h, string(c))
	}
	return h
}

var (
	filteredHeader = append(baseHeader(), string(domain.ColDeathRate))
	latestHeader   = append(baseHeader(), string(domain.ColDeathRate), string(domain.ColPctVaccinated))
	globalHeader   = baseHeader()
	rankingHeader  = []string{"rank", "location", "date", "people_vaccinated", "population", string(domain.ColPctVaccinated)}
)

func baseCells(r domain.Record) []string {
	cells := []string{r.Location, r.ISOCode, r.Date.Format(dateLayout)}
	for _, c := range domain.MetricColumns {
		cells = append(cells, cell(*r.Metric(c)))
	}
	return cells
}

func filteredCells(r domain.Record) []string {
	return append(baseCells(r), cell(r.DeathRate))
}

func latestCells(r domain.Record) []string {
	return append(baseCells(r), cell(r.DeathRate), cell(r.PctVaccinated))
}

func globalCells(r domain.Record) []string {
	return baseCells(r)
}

// cell renders an optional metric: empty for "no value", shortest exact
// decimal otherwise. The 'f' format keeps large counts out of scientific
// notation so the artifacts diff cleanly against the source.
func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// --- writers ---

func writeRecordsCSV(path string, header []string, cells func(domain.Record) []string, rows []domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(cells(r)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeRankingCSV(path string, ranking []domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rankingHeader); err != nil {
		return err
	}
	for i, r := range ranking {
		row := []string{
			strconv.Itoa(i + 1),
			r.Location,
			r.Date.Format(dateLayout),
			cell(r.PeopleVaccinated),
			cell(r.Population),
			cell(r.PctVaccinated),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

type rankedRecord struct {
	Rank int `json:"rank"`
	domain.Record
}

func rankedRecords(ranking []domain.Record) []rankedRecord {
	out := make([]rankedRecord, len(ranking))
	for i, r := range ranking {
		out[i] = rankedRecord{Rank: i + 1, Record: r}
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
