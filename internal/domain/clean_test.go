package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFilterCountries(t *testing.T) {
	table := Table{
		Columns: []string{"location", "date", "total_cases"},
		Rows: []Record{
			{Location: "India", Date: day(2021, 4, 1)},
			{Location: "World", Date: day(2021, 4, 1)},
			{Location: "United States", Date: day(2021, 4, 1)},
			{Location: "India", Date: day(2021, 4, 2)},
			{Location: "Brazil", Date: day(2021, 4, 1)},
		},
	}

	t.Run("keeps only listed countries in source order", func(t *testing.T) {
		got := FilterCountries(table, []string{"India", "Brazil"})

		require.Len(t, got.Rows, 3)
		assert.Equal(t, "India", got.Rows[0].Location)
		assert.Equal(t, "India", got.Rows[1].Location)
		assert.Equal(t, "Brazil", got.Rows[2].Location)
		assert.Equal(t, table.Columns, got.Columns)
	})

	t.Run("aggregates stay out unless listed", func(t *testing.T) {
		got := FilterCountries(table, []string{"United States"})

		require.Len(t, got.Rows, 1)
		assert.Equal(t, "United States", got.Rows[0].Location)
	})

	t.Run("match is exact, not substring", func(t *testing.T) {
		got := FilterCountries(table, []string{"United"})
		assert.Empty(t, got.Rows)
	})

	t.Run("match is case-sensitive", func(t *testing.T) {
		got := FilterCountries(table, []string{"india"})
		assert.Empty(t, got.Rows)
	})

	t.Run("unmatched country contributes nothing", func(t *testing.T) {
		got := FilterCountries(table, []string{"India", "Atlantis"})
		assert.Len(t, got.Rows, 2)
	})

	t.Run("empty table", func(t *testing.T) {
		got := FilterCountries(Table{}, []string{"India"})
		assert.Empty(t, got.Rows)
	})
}

func TestFillMissing(t *testing.T) {
	build := func() Table {
		return Table{
			Rows: []Record{
				{
					Location:   "India",
					Date:       day(2021, 4, 1),
					TotalCases: Float(100),
					// new_cases, total_deaths absent
					Population: nil,
				},
				{
					Location:    "Brazil",
					Date:        day(2021, 4, 1),
					TotalCases:  nil,
					NewCases:    Float(0),
					TotalDeaths: Float(12),
				},
			},
		}
	}

	t.Run("fills nil cells with zero and counts per column", func(t *testing.T) {
		got, filled := FillMissing(build(), []Column{ColTotalCases, ColNewCases, ColTotalDeaths})

		require.Len(t, got.Rows, 2)

		india, brazil := got.Rows[0], got.Rows[1]
		require.NotNil(t, india.NewCases)
		assert.Equal(t, 0.0, *india.NewCases)
		require.NotNil(t, india.TotalDeaths)
		assert.Equal(t, 0.0, *india.TotalDeaths)
		require.NotNil(t, brazil.TotalCases)
		assert.Equal(t, 0.0, *brazil.TotalCases)

		assert.Equal(t, map[Column]int{
			ColTotalCases:  1,
			ColNewCases:    1,
			ColTotalDeaths: 1,
		}, filled)
	})

	t.Run("present values survive, including explicit zero", func(t *testing.T) {
		got, _ := FillMissing(build(), []Column{ColTotalCases, ColNewCases})

		assert.Equal(t, 100.0, *got.Rows[0].TotalCases)
		assert.Equal(t, 0.0, *got.Rows[1].NewCases)
		assert.Equal(t, 12.0, *got.Rows[1].TotalDeaths)
	})

	t.Run("unlisted columns keep nil", func(t *testing.T) {
		got, filled := FillMissing(build(), []Column{ColNewCases})

		assert.Nil(t, got.Rows[0].Population)
		assert.Nil(t, got.Rows[1].TotalCases)
		assert.Equal(t, map[Column]int{ColNewCases: 1}, filled)
	})

	t.Run("unknown column name is ignored", func(t *testing.T) {
		got, filled := FillMissing(build(), []Column{"reproduction_rate"})

		assert.Empty(t, filled)
		assert.Nil(t, got.Rows[0].NewCases)
	})

	t.Run("input table is not mutated", func(t *testing.T) {
		in := build()
		_, _ = FillMissing(in, []Column{ColTotalCases, ColNewCases, ColTotalDeaths})

		assert.Nil(t, in.Rows[0].NewCases)
		assert.Nil(t, in.Rows[1].TotalCases)
	})
}

func TestDeriveDeathRate(t *testing.T) {
	t.Run("divides deaths by cases", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "India", Date: day(2021, 4, 1), TotalCases: Float(1000), TotalDeaths: Float(25)},
		}}

		got, undefined := DeriveDeathRate(table)

		require.NotNil(t, got.Rows[0].DeathRate)
		assert.InDelta(t, 0.025, *got.Rows[0].DeathRate, 1e-12)
		assert.Zero(t, undefined)
	})

	t.Run("zero cases yields no rate, never Inf", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "Palau", Date: day(2021, 4, 1), TotalCases: Float(0), TotalDeaths: Float(0)},
		}}

		got, undefined := DeriveDeathRate(table)

		assert.Nil(t, got.Rows[0].DeathRate)
		assert.Equal(t, 1, undefined)
	})

	t.Run("missing operand yields no rate", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "A", TotalCases: nil, TotalDeaths: Float(5)},
			{Location: "B", TotalCases: Float(10), TotalDeaths: nil},
		}}

		got, undefined := DeriveDeathRate(table)

		assert.Nil(t, got.Rows[0].DeathRate)
		assert.Nil(t, got.Rows[1].DeathRate)
		assert.Equal(t, 2, undefined)
	})

	t.Run("zero deaths over real cases is a defined zero", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "Bhutan", TotalCases: Float(900), TotalDeaths: Float(0)},
		}}

		got, undefined := DeriveDeathRate(table)

		require.NotNil(t, got.Rows[0].DeathRate)
		assert.Equal(t, 0.0, *got.Rows[0].DeathRate)
		assert.Zero(t, undefined)
	})

	t.Run("stale derived value is recomputed", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "C", TotalCases: Float(0), DeathRate: Float(0.9)},
		}}

		got, _ := DeriveDeathRate(table)
		assert.Nil(t, got.Rows[0].DeathRate)
	})

	t.Run("input table is not mutated", func(t *testing.T) {
		in := Table{Rows: []Record{
			{Location: "India", TotalCases: Float(1000), TotalDeaths: Float(25)},
		}}

		_, _ = DeriveDeathRate(in)
		assert.Nil(t, in.Rows[0].DeathRate)
	})
}
