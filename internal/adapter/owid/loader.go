// Package owid loads and fetches the Our World in Data COVID-19 dataset.
package owid

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pinemarten/covid-trends-etl/internal/domain"
)

// RequiredColumns must all be present in the header. Their absence means the
// wrong file or a truncated download, not a dataset with gaps.
var RequiredColumns = []string{
	"location",
	"iso_code",
	"date",
	"total_cases",
	"new_cases",
	"total_deaths",
	"new_deaths",
	"total_vaccinations",
	"people_vaccinated",
	"population",
	"total_cases_per_million",
}

// Loader reads the dataset from a local CSV file. It satisfies the pipeline's
// extractor interface.
type Loader struct {
	path string
}

// NewLoader creates a Loader for the given file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Extract loads the whole file into memory.
func (l *Loader) Extract(_ context.Context) (domain.Table, domain.LoadStats, error) {
	return Load(l.path)
}

// Load parses the CSV at path into a table.
//
// Policy, cell by cell: an absent file is a MissingInputError so the caller
// can print download guidance; a row with an empty date is dropped and
// counted (it cannot be placed on the timeline); a malformed date aborts the
// load; a numeric cell that does not parse is coerced to "no value" and
// counted per column. Empty numeric cells are simply "no value".
func Load(path string) (domain.Table, domain.LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, domain.LoadStats{}, &domain.MissingInputError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return domain.Table{}, domain.LoadStats{}, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := colIdx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.Table{}, domain.LoadStats{}, &domain.MissingColumnsError{Path: path, Columns: missing}
	}

	stats := domain.LoadStats{
		Columns:          len(header),
		BadNumericValues: make(map[domain.Column]int),
	}
	table := domain.Table{Columns: header}

	get := func(row []string, col string) string {
		return strings.TrimSpace(row[colIdx[col]])
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, domain.LoadStats{}, fmt.Errorf("read %s: %w", path, err)
		}

		dateStr := get(row, "date")
		if dateStr == "" {
			stats.DroppedMissingDate++
			continue
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return domain.Table{}, domain.LoadStats{}, &domain.DateParseError{Line: line, Value: dateStr, Err: err}
		}

		rec := domain.Record{
			Location: get(row, "location"),
			ISOCode:  get(row, "iso_code"),
			Date:     date,
		}
		for _, col := range domain.MetricColumns {
			cell := get(row, string(col))
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				stats.BadNumericValues[col]++
				continue
			}
			*rec.Metric(col) = domain.Float(v)
		}

		table.Rows = append(table.Rows, rec)
	}

	stats.Rows = len(table.Rows)
	return table, stats, nil
}
