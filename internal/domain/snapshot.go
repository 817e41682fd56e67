package domain

import (
	"sort"
	"time"
)

// Snapshot is the set of rows carrying a table's latest date: at most one row
// per location, since the dataset reports each country once per day.
type Snapshot struct {
	Date time.Time
	Rows []Record
}

// MaxDate returns the latest date present in t, or false for an empty table.
func MaxDate(t Table) (time.Time, bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, false
	}
	latest := t.Rows[0].Date
	for _, r := range t.Rows[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest, true
}

// LatestSnapshot selects every row of t whose date equals the table's maximum
// date, sorted by location for deterministic output. The latest date is
// global to the table, not per location: a country that stopped reporting
// before that date drops out of the snapshot instead of smuggling in stale
// figures. Scope names the table in the error for an empty t.
func LatestSnapshot(t Table, scope string) (Snapshot, error) {
	latest, ok := MaxDate(t)
	if !ok {
		return Snapshot{}, &EmptyDatasetError{Scope: scope}
	}

	s := Snapshot{Date: latest}
	for _, r := range t.Rows {
		if r.Date.Equal(latest) {
			s.Rows = append(s.Rows, r)
		}
	}
	sort.Slice(s.Rows, func(i, j int) bool {
		return s.Rows[i].Location < s.Rows[j].Location
	})
	return s, nil
}

// DerivePctVaccinated computes people_vaccinated / population * 100 for every
// row of the country-scoped snapshot; the global snapshot never gets this
// column. Rows missing either operand, or with a zero population, get no
// percentage; the zero check precedes the division so no Inf or NaN can
// reach the exports. Values above 100 are kept as-is: the source counts
// doses against census populations and small states really do exceed 100.
func DerivePctVaccinated(s Snapshot) Snapshot {
	out := Snapshot{Date: s.Date, Rows: make([]Record, len(s.Rows))}
	copy(out.Rows, s.Rows)

	for i := range out.Rows {
		r := &out.Rows[i]
		r.PctVaccinated = nil
		if r.PeopleVaccinated == nil || r.Population == nil || *r.Population == 0 {
			continue
		}
		r.PctVaccinated = Float(*r.PeopleVaccinated / *r.Population * 100)
	}
	return out
}

// VaccinationRanking orders snapshot rows by pct_vaccinated, highest first,
// keeping only rows that have a positive percentage. A zero-filled
// people_vaccinated yields pct zero, which reads as "no vaccination data",
// so such rows are left out rather than ranked last. Ties break by location
// so equal percentages still order deterministically.
func VaccinationRanking(s Snapshot) []Record {
	var ranked []Record
	for _, r := range s.Rows {
		if r.PctVaccinated != nil && *r.PctVaccinated > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if *ranked[i].PctVaccinated != *ranked[j].PctVaccinated {
			return *ranked[i].PctVaccinated > *ranked[j].PctVaccinated
		}
		return ranked[i].Location < ranked[j].Location
	})
	return ranked
}
