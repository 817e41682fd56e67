package domain

import (
	"time"
)

// Column names a numeric metric column of the source dataset. The loader,
// the fill stage, and the exporters all address metrics through these names
// so that the configured fill list stays data, not code.
type Column string

const (
	ColTotalCases           Column = "total_cases"
	ColNewCases             Column = "new_cases"
	ColTotalDeaths          Column = "total_deaths"
	ColNewDeaths            Column = "new_deaths"
	ColTotalVaccinations    Column = "total_vaccinations"
	ColPeopleVaccinated     Column = "people_vaccinated"
	ColPopulation           Column = "population"
	ColTotalCasesPerMillion Column = "total_cases_per_million"

	// Derived columns, not present in the source file.
	ColDeathRate     Column = "death_rate"
	ColPctVaccinated Column = "pct_vaccinated"
)

// MetricColumns lists every source metric column the loader types as a float.
var MetricColumns = []Column{
	ColTotalCases,
	ColNewCases,
	ColTotalDeaths,
	ColNewDeaths,
	ColTotalVaccinations,
	ColPeopleVaccinated,
	ColPopulation,
	ColTotalCasesPerMillion,
}

// Record is one (location, date) observation from the dataset. Numeric fields
// are pointers: nil means the source had no value, which is distinct from a
// legitimate zero and must survive every stage that is not an explicit fill.
type Record struct {
	Location string    `json:"location"`
	ISOCode  string    `json:"iso_code,omitempty"`
	Date     time.Time `json:"date"`

	TotalCases           *float64 `json:"total_cases,omitempty"`
	NewCases             *float64 `json:"new_cases,omitempty"`
	TotalDeaths          *float64 `json:"total_deaths,omitempty"`
	NewDeaths            *float64 `json:"new_deaths,omitempty"`
	TotalVaccinations    *float64 `json:"total_vaccinations,omitempty"`
	PeopleVaccinated     *float64 `json:"people_vaccinated,omitempty"`
	Population           *float64 `json:"population,omitempty"`
	TotalCasesPerMillion *float64 `json:"total_cases_per_million,omitempty"`

	// Derived by the cleaning stage; never read from the source file.
	DeathRate     *float64 `json:"death_rate,omitempty"`
	PctVaccinated *float64 `json:"pct_vaccinated,omitempty"`
}

// Metric returns the address of the struct field backing the named source
// column, or nil for unknown and derived columns. Callers assign through the
// returned pointer; they never write through the *float64 itself, so records
// that share pointees after a copy stay independent.
func (r *Record) Metric(c Column) **float64 {
	switch c {
	case ColTotalCases:
		return &r.TotalCases
	case ColNewCases:
		return &r.NewCases
	case ColTotalDeaths:
		return &r.TotalDeaths
	case ColNewDeaths:
		return &r.NewDeaths
	case ColTotalVaccinations:
		return &r.TotalVaccinations
	case ColPeopleVaccinated:
		return &r.PeopleVaccinated
	case ColPopulation:
		return &r.Population
	case ColTotalCasesPerMillion:
		return &r.TotalCasesPerMillion
	default:
		return nil
	}
}

// KnownMetric reports whether c names a loadable source metric column.
func KnownMetric(c Column) bool {
	var r Record
	return r.Metric(c) != nil
}

// Float boxes a value for assignment to an optional metric field.
func Float(v float64) *float64 { return &v }

// Table is the in-memory form of the dataset: the header as found in the
// source file plus one Record per surviving row. Row order carries no meaning.
type Table struct {
	Columns []string
	Rows    []Record
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// LoadStats summarizes a dataset load for the run log and metrics.
type LoadStats struct {
	Rows               int
	Columns            int
	DroppedMissingDate int
	// BadNumericValues counts cells that were present but not parseable as a
	// number, per column. Such cells are coerced to "no value".
	BadNumericValues map[Column]int
}
