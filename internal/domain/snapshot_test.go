package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDate(t *testing.T) {
	t.Run("finds latest date regardless of row order", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "A", Date: day(2021, 4, 2)},
			{Location: "B", Date: day(2021, 4, 5)},
			{Location: "C", Date: day(2021, 4, 1)},
		}}

		got, ok := MaxDate(table)

		require.True(t, ok)
		assert.Equal(t, day(2021, 4, 5), got)
	})

	t.Run("empty table has no latest date", func(t *testing.T) {
		_, ok := MaxDate(Table{})
		assert.False(t, ok)
	})
}

func TestLatestSnapshot(t *testing.T) {
	t.Run("selects only rows on the table maximum date, sorted by location", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "United States", Date: day(2021, 4, 2)},
			{Location: "India", Date: day(2021, 4, 2)},
			{Location: "India", Date: day(2021, 4, 1)},
			{Location: "Brazil", Date: day(2021, 4, 1)},
		}}

		got, err := LatestSnapshot(table, "filtered")

		require.NoError(t, err)
		assert.Equal(t, day(2021, 4, 2), got.Date)
		require.Len(t, got.Rows, 2)
		assert.Equal(t, "India", got.Rows[0].Location)
		assert.Equal(t, "United States", got.Rows[1].Location)
	})

	t.Run("a country that stopped reporting drops out", func(t *testing.T) {
		table := Table{Rows: []Record{
			{Location: "Brazil", Date: day(2021, 3, 30), TotalCases: Float(500)},
			{Location: "India", Date: day(2021, 4, 1)},
		}}

		got, err := LatestSnapshot(table, "filtered")

		require.NoError(t, err)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, "India", got.Rows[0].Location)
	})

	t.Run("empty table is a typed error naming the scope", func(t *testing.T) {
		_, err := LatestSnapshot(Table{}, "filtered")

		var empty *EmptyDatasetError
		require.ErrorAs(t, err, &empty)
		assert.Equal(t, "filtered", empty.Scope)
		assert.Contains(t, err.Error(), "filtered")

		_, err = LatestSnapshot(Table{}, "dataset")
		require.ErrorAs(t, err, &empty)
		assert.Equal(t, "dataset", empty.Scope)
	})
}

func TestDerivePctVaccinated(t *testing.T) {
	t.Run("computes percentage of population", func(t *testing.T) {
		s := Snapshot{Date: day(2021, 4, 1), Rows: []Record{
			{Location: "India", PeopleVaccinated: Float(50_000_000), Population: Float(1_380_000_000)},
		}}

		got := DerivePctVaccinated(s)

		require.NotNil(t, got.Rows[0].PctVaccinated)
		assert.InDelta(t, 3.6231884, *got.Rows[0].PctVaccinated, 1e-6)
	})

	t.Run("missing operand yields no percentage", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "A", PeopleVaccinated: nil, Population: Float(100)},
			{Location: "B", PeopleVaccinated: Float(10), Population: nil},
		}}

		got := DerivePctVaccinated(s)

		assert.Nil(t, got.Rows[0].PctVaccinated)
		assert.Nil(t, got.Rows[1].PctVaccinated)
	})

	t.Run("zero population yields no percentage, never Inf", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "Ghost Town", PeopleVaccinated: Float(10), Population: Float(0)},
		}}

		got := DerivePctVaccinated(s)
		assert.Nil(t, got.Rows[0].PctVaccinated)
	})

	t.Run("values above one hundred are kept", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "Gibraltar", PeopleVaccinated: Float(40_000), Population: Float(33_000)},
		}}

		got := DerivePctVaccinated(s)

		require.NotNil(t, got.Rows[0].PctVaccinated)
		assert.Greater(t, *got.Rows[0].PctVaccinated, 100.0)
	})

	t.Run("input snapshot is not mutated", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "India", PeopleVaccinated: Float(10), Population: Float(100)},
		}}

		_ = DerivePctVaccinated(s)
		assert.Nil(t, s.Rows[0].PctVaccinated)
	})
}

func TestVaccinationRanking(t *testing.T) {
	t.Run("orders by percentage descending", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "India", PctVaccinated: Float(3.6)},
			{Location: "United Kingdom", PctVaccinated: Float(46.1)},
			{Location: "United States", PctVaccinated: Float(30.3)},
		}}

		got := VaccinationRanking(s)

		require.Len(t, got, 3)
		assert.Equal(t, "United Kingdom", got[0].Location)
		assert.Equal(t, "United States", got[1].Location)
		assert.Equal(t, "India", got[2].Location)
	})

	t.Run("rows without a positive percentage are excluded", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "United Kingdom", PctVaccinated: Float(46.1)},
			{Location: "No Data", PctVaccinated: nil},
			{Location: "Zero Filled", PctVaccinated: Float(0)},
		}}

		got := VaccinationRanking(s)

		require.Len(t, got, 1)
		assert.Equal(t, "United Kingdom", got[0].Location)
	})

	t.Run("ties break by location", func(t *testing.T) {
		s := Snapshot{Rows: []Record{
			{Location: "Beta", PctVaccinated: Float(12.5)},
			{Location: "Alpha", PctVaccinated: Float(12.5)},
		}}

		got := VaccinationRanking(s)

		require.Len(t, got, 2)
		assert.Equal(t, "Alpha", got[0].Location)
		assert.Equal(t, "Beta", got[1].Location)
	})

	t.Run("empty snapshot ranks nothing", func(t *testing.T) {
		assert.Empty(t, VaccinationRanking(Snapshot{}))
	})
}

func TestErrorMessages(t *testing.T) {
	t.Run("missing input wraps the underlying open error", func(t *testing.T) {
		underlying := errors.New("no such file or directory")
		err := &MissingInputError{Path: "data/owid-covid-data.csv", Err: underlying}

		assert.Contains(t, err.Error(), "data/owid-covid-data.csv")
		assert.ErrorIs(t, err, underlying)
	})

	t.Run("date parse error names line and value", func(t *testing.T) {
		err := &DateParseError{Line: 42, Value: "04/01/2021", Err: errors.New("bad format")}

		assert.Contains(t, err.Error(), "42")
		assert.Contains(t, err.Error(), "04/01/2021")
	})

	t.Run("missing columns error lists the columns", func(t *testing.T) {
		err := &MissingColumnsError{Path: "x.csv", Columns: []string{"location", "date"}}

		assert.Contains(t, err.Error(), "location")
		assert.Contains(t, err.Error(), "date")
	})
}
