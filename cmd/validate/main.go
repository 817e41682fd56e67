// Command validate re-derives the analysis from the source dataset and
// checks the written artifacts against it: artifact presence, country
// membership and fill completeness, derived-metric recomputation, and
// snapshot and ranking consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset data/owid-covid-data.csv \
//	  -artifacts output
//
// Paths default to the configured DATASET_PATH and OUTPUT_DIR so the command
// validates whatever the last etl run produced.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pinemarten/covid-trends-etl/internal/adapter/export"
	"github.com/pinemarten/covid-trends-etl/internal/adapter/owid"
	"github.com/pinemarten/covid-trends-etl/internal/config"
	"github.com/pinemarten/covid-trends-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	dataset := flag.String("dataset", "", "path to the OWID CSV (default: configured DATASET_PATH)")
	artifacts := flag.String("artifacts", "", "directory holding the run artifacts (default: configured OUTPUT_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	if *dataset == "" {
		*dataset = cfg.DatasetPath
	}
	if *artifacts == "" {
		*artifacts = cfg.OutputDir
	}

	if code := run(cfg, *dataset, *artifacts); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config, datasetPath, artifactDir string) int {
	fmt.Println("=== COVID Trends Artifact Validation ===")
	fmt.Println()

	table, stats, err := owid.Load(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	analysis, err := domain.BuildAnalysis(table, domain.AnalysisOptions{
		Countries:   cfg.Countries,
		FillColumns: cfg.FillColumnNames(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: rebuild analysis: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{validatePresence(artifactDir)}
	var arts *artifactSet
	if phases[0].passed() {
		arts, err = loadArtifacts(artifactDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load artifacts: %v\n", err)
			return 1
		}
		phases = append(phases,
			validateSubset(cfg, arts, analysis),
			validateDerived(arts),
			validateSnapshots(arts, analysis),
		)
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d dataset, %d filtered, %d latest snapshot, %d global snapshot, %d ranked\n",
		stats.Rows, analysis.Filtered.Len(), len(analysis.Latest.Rows),
		len(analysis.Global.Rows), len(analysis.Ranking))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with cell values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

type csvTable struct {
	header []string
	rows   []csvRow
}

func (t csvTable) hasColumn(name string) bool {
	for _, h := range t.header {
		if h == name {
			return true
		}
	}
	return false
}

// artifactSet holds every artifact of one run, both renderings.
type artifactSet struct {
	filteredCSV csvTable
	latestCSV   csvTable
	globalCSV   csvTable
	rankingCSV  csvTable

	filteredJSON []domain.Record
	latestJSON   []domain.Record
	globalJSON   []domain.Record
	rankingJSON  []rankedRow
}

// rankedRow mirrors the ranking artifact's JSON shape.
type rankedRow struct {
	Rank int `json:"rank"`
	domain.Record
}

var artifactNames = []string{
	export.FilteredName,
	export.LatestName,
	export.GlobalName,
	export.RankingName,
}

func loadArtifacts(dir string) (*artifactSet, error) {
	arts := &artifactSet{}

	csvTargets := map[string]*csvTable{
		export.FilteredName: &arts.filteredCSV,
		export.LatestName:   &arts.latestCSV,
		export.GlobalName:   &arts.globalCSV,
		export.RankingName:  &arts.rankingCSV,
	}
	for name, target := range csvTargets {
		t, err := loadCSV(filepath.Join(dir, name+".csv"))
		if err != nil {
			return nil, fmt.Errorf("%s.csv: %w", name, err)
		}
		*target = t
	}

	if err := loadJSON(filepath.Join(dir, export.FilteredName+".json"), &arts.filteredJSON); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, export.LatestName+".json"), &arts.latestJSON); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, export.GlobalName+".json"), &arts.globalJSON); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, export.RankingName+".json"), &arts.rankingJSON); err != nil {
		return nil, err
	}
	return arts, nil
}

func loadCSV(path string) (csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return csvTable{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return csvTable{}, err
	}
	if len(all) == 0 {
		return csvTable{}, fmt.Errorf("no header row in %s", path)
	}

	t := csvTable{header: all[0]}
	for i, row := range all[1:] {
		fields := make(map[string]string, len(t.header))
		for j, h := range t.header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		t.rows = append(t.rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return t, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// ── Phase 1: Artifact Presence ──
// Every run writes eight files; a missing one means a partial or failed run.

func validatePresence(dir string) *phase {
	p := &phase{name: "Phase 1: Artifact Presence"}
	for _, name := range artifactNames {
		for _, ext := range []string{".csv", ".json"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				p.errorf("missing artifact %s", path)
			}
		}
	}
	return p
}

// ── Phase 2: Country Subset & Fill ──
// The filtered table must contain only configured countries, match the
// recomputed row count, and carry no gaps in the fill columns.

func validateSubset(cfg *config.Config, arts *artifactSet, analysis domain.Analysis) *phase {
	p := &phase{name: "Phase 2: Country Subset & Fill"}

	allowed := map[string]bool{}
	for _, c := range cfg.Countries {
		allowed[c] = true
	}

	if got, want := len(arts.filteredCSV.rows), analysis.Filtered.Len(); got != want {
		p.errorf("filtered.csv: %d rows, recomputed analysis has %d", got, want)
	}
	if got, want := len(arts.filteredJSON), len(arts.filteredCSV.rows); got != want {
		p.errorf("filtered.json has %d rows, filtered.csv has %d", got, want)
	}

	for _, row := range arts.filteredCSV.rows {
		loc := row.fields["location"]
		if !allowed[loc] {
			p.errorf("filtered.csv line %d: location %q is not a configured country", row.lineNum, loc)
		}
		for _, col := range cfg.FillColumns {
			if !domain.KnownMetric(domain.Column(col)) {
				continue
			}
			if row.fields[col] == "" {
				p.errorf("filtered.csv line %d: fill column %q is empty", row.lineNum, col)
			}
		}
	}
	return p
}

// ── Phase 3: Derived Metrics ──
// Every derived cell must equal a recomputation from its own row, and rows
// with a missing or zero denominator must have no derived value at all.

func validateDerived(arts *artifactSet) *phase {
	p := &phase{name: "Phase 3: Derived Metrics"}

	for _, row := range arts.filteredCSV.rows {
		cases := parseCell(p, "filtered.csv", row, "total_cases")
		deaths := parseCell(p, "filtered.csv", row, "total_deaths")
		rate := parseCell(p, "filtered.csv", row, string(domain.ColDeathRate))

		switch {
		case deaths != nil && cases != nil && *cases != 0:
			if rate == nil {
				p.errorf("filtered.csv line %d: death_rate empty, expected %g", row.lineNum, *deaths / *cases)
			} else if !floatEq(*rate, *deaths / *cases) {
				p.errorf("filtered.csv line %d: death_rate %g, recomputed %g", row.lineNum, *rate, *deaths / *cases)
			}
		case rate != nil:
			p.errorf("filtered.csv line %d: death_rate %g where the rate is undefined", row.lineNum, *rate)
		}
	}

	for _, row := range arts.latestCSV.rows {
		people := parseCell(p, "latest_snapshot.csv", row, "people_vaccinated")
		pop := parseCell(p, "latest_snapshot.csv", row, "population")
		pct := parseCell(p, "latest_snapshot.csv", row, string(domain.ColPctVaccinated))

		switch {
		case people != nil && pop != nil && *pop != 0:
			if pct == nil {
				p.errorf("latest_snapshot.csv line %d: pct_vaccinated empty, expected %g", row.lineNum, *people / *pop * 100)
			} else if !floatEq(*pct, *people / *pop * 100) {
				p.errorf("latest_snapshot.csv line %d: pct_vaccinated %g, recomputed %g", row.lineNum, *pct, *people / *pop * 100)
			}
		case pct != nil:
			p.errorf("latest_snapshot.csv line %d: pct_vaccinated %g where the share is undefined", row.lineNum, *pct)
		}
	}

	// The full-dataset snapshot is raw by design.
	for _, col := range []string{string(domain.ColDeathRate), string(domain.ColPctVaccinated)} {
		if arts.globalCSV.hasColumn(col) {
			p.errorf("global_snapshot.csv carries derived column %q", col)
		}
	}
	return p
}

// ── Phase 4: Snapshots & Ranking ──
// Snapshot rows must share the recomputed latest date, and the ranking must
// descend over positive vaccination shares with positions starting at 1.

func validateSnapshots(arts *artifactSet, analysis domain.Analysis) *phase {
	p := &phase{name: "Phase 4: Snapshots & Ranking"}

	checkSnapshotDate(p, "latest_snapshot.csv", arts.latestCSV, analysis.Latest)
	checkSnapshotDate(p, "global_snapshot.csv", arts.globalCSV, analysis.Global)

	checkLocations(p, "latest_snapshot.csv", arts.latestCSV, analysis.Latest.Rows)
	checkLocations(p, "global_snapshot.csv", arts.globalCSV, analysis.Global.Rows)

	checkRanking(p, arts, analysis)
	return p
}

func checkSnapshotDate(p *phase, name string, t csvTable, snap domain.Snapshot) {
	want := snap.Date.Format("2006-01-02")
	for _, row := range t.rows {
		if got := row.fields["date"]; got != want {
			p.errorf("%s line %d: date %s, latest date is %s", name, row.lineNum, got, want)
		}
	}
}

func checkLocations(p *phase, name string, t csvTable, want []domain.Record) {
	wantSet := map[string]bool{}
	for _, r := range want {
		wantSet[r.Location] = true
	}
	gotSet := map[string]bool{}
	for _, row := range t.rows {
		gotSet[row.fields["location"]] = true
	}
	for loc := range wantSet {
		if !gotSet[loc] {
			p.errorf("%s: missing location %q", name, loc)
		}
	}
	for loc := range gotSet {
		if !wantSet[loc] {
			p.errorf("%s: unexpected location %q", name, loc)
		}
	}
}

func checkRanking(p *phase, arts *artifactSet, analysis domain.Analysis) {
	rows := arts.rankingCSV.rows

	if got, want := len(rows), len(analysis.Ranking); got != want {
		p.errorf("vaccination_ranking.csv: %d rows, recomputed ranking has %d", got, want)
	}
	if got, want := len(arts.rankingJSON), len(rows); got != want {
		p.errorf("vaccination_ranking.json has %d rows, vaccination_ranking.csv has %d", got, want)
	}

	prev := math.Inf(1)
	prevLoc := ""
	for i, row := range rows {
		if rank := row.fields["rank"]; rank != strconv.Itoa(i+1) {
			p.errorf("vaccination_ranking.csv line %d: rank %s, expected %d", row.lineNum, rank, i+1)
		}

		pct := parseCell(p, "vaccination_ranking.csv", row, string(domain.ColPctVaccinated))
		if pct == nil {
			p.errorf("vaccination_ranking.csv line %d: pct_vaccinated is empty", row.lineNum)
			continue
		}
		if *pct <= 0 {
			p.errorf("vaccination_ranking.csv line %d: pct_vaccinated %g, ranking only lists positive shares", row.lineNum, *pct)
		}
		if *pct > prev {
			p.errorf("vaccination_ranking.csv line %d: pct_vaccinated %g out of descending order", row.lineNum, *pct)
		}
		if *pct == prev && row.fields["location"] < prevLoc {
			p.errorf("vaccination_ranking.csv line %d: tie with %q not broken alphabetically", row.lineNum, prevLoc)
		}
		prev = *pct
		prevLoc = row.fields["location"]

		if i < len(analysis.Ranking) && row.fields["location"] != analysis.Ranking[i].Location {
			p.errorf("vaccination_ranking.csv line %d: location %q, recomputed ranking has %q",
				row.lineNum, row.fields["location"], analysis.Ranking[i].Location)
		}
		if i < len(arts.rankingJSON) && arts.rankingJSON[i].Location != row.fields["location"] {
			p.errorf("vaccination_ranking rank %d: csv has %q, json has %q",
				i+1, row.fields["location"], arts.rankingJSON[i].Location)
		}
	}
}

// ── Helpers ──

// parseCell reads an optional numeric cell: nil for empty, the parsed value
// otherwise. Unparseable cells are reported and read as nil.
func parseCell(p *phase, name string, row csvRow, col string) *float64 {
	s := row.fields[col]
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.errorf("%s line %d: column %q: unparseable number %q", name, row.lineNum, col, s)
		return nil
	}
	return &v
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
