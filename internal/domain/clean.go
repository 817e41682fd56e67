package domain

// FilterCountries returns the rows of t whose Location exactly matches one of
// the given names, in their original order. Matching is case-sensitive and
// whole-string: the dataset names countries canonically ("United States", not
// "USA"), and fuzzier matching would silently pull in aggregate rows such as
// "World" or "European Union". Countries that match nothing simply contribute
// no rows.
func FilterCountries(t Table, countries []string) Table {
	want := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		want[c] = struct{}{}
	}

	out := Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if _, ok := want[r.Location]; ok {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// FillMissing replaces "no value" with an explicit zero in the given columns
// and reports how many cells each column had filled. Zero is the right
// reading for counts early in the pandemic, where an absent figure means
// nothing had been reported yet. The fill runs on the filtered subset only;
// the full table keeps its gaps so global views can tell "no data" from
// "zero". Downstream derivations treat a zero denominator as undefined, so a
// zero-filled population can never fabricate a percentage.
//
// Unknown column names are ignored so that a config listing a column this
// build does not carry cannot corrupt anything.
func FillMissing(t Table, cols []Column) (Table, map[Column]int) {
	filled := make(map[Column]int, len(cols))

	out := Table{Columns: t.Columns, Rows: make([]Record, len(t.Rows))}
	copy(out.Rows, t.Rows)

	for i := range out.Rows {
		for _, c := range cols {
			field := out.Rows[i].Metric(c)
			if field == nil || *field != nil {
				continue
			}
			*field = Float(0)
			filled[c]++
		}
	}
	return out, filled
}

// DeriveDeathRate computes total_deaths / total_cases for every row and
// reports how many rows ended up without a rate. The zero check comes before
// the division: a row with zero cases gets no rate rather than an Inf or NaN
// that would poison aggregates and exports. Rows missing either operand also
// get no rate.
func DeriveDeathRate(t Table) (Table, int) {
	undefined := 0

	out := Table{Columns: t.Columns, Rows: make([]Record, len(t.Rows))}
	copy(out.Rows, t.Rows)

	for i := range out.Rows {
		r := &out.Rows[i]
		r.DeathRate = nil
		if r.TotalDeaths == nil || r.TotalCases == nil || *r.TotalCases == 0 {
			undefined++
			continue
		}
		r.DeathRate = Float(*r.TotalDeaths / *r.TotalCases)
	}
	return out, undefined
}
