package domain

// AnalysisOptions selects the country subset and the columns whose missing
// values get zero-filled. Both come from configuration; the zero value runs
// an analysis that filters everything out, so callers always pass options.
type AnalysisOptions struct {
	Countries   []string
	FillColumns []Column
}

// Analysis is everything one run derives from a loaded table. Filtered has
// been filled and carries death rates; Latest additionally carries
// vaccination percentages. Global is cut from the unfiltered table and
// keeps source values exactly as loaded, gaps included.
type Analysis struct {
	Filtered Table
	Latest   Snapshot
	Global   Snapshot
	Ranking  []Record

	FillCounts         map[Column]int
	DeathRateUndefined int
}

// BuildAnalysis runs the whole derivation over a loaded table: filter to the
// configured countries, zero-fill the configured columns, derive death rates,
// cut the latest-date snapshots, derive vaccination percentages on the
// country snapshot, and rank. It fails only when a snapshot has no rows to
// select from.
func BuildAnalysis(t Table, opts AnalysisOptions) (Analysis, error) {
	filtered := FilterCountries(t, opts.Countries)
	filtered, fillCounts := FillMissing(filtered, opts.FillColumns)
	filtered, undefined := DeriveDeathRate(filtered)

	latest, err := LatestSnapshot(filtered, "filtered")
	if err != nil {
		return Analysis{}, err
	}
	latest = DerivePctVaccinated(latest)

	global, err := LatestSnapshot(t, "dataset")
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		Filtered:           filtered,
		Latest:             latest,
		Global:             global,
		Ranking:            VaccinationRanking(latest),
		FillCounts:         fillCounts,
		DeathRateUndefined: undefined,
	}, nil
}
