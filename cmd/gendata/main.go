// Command gendata writes a deterministic synthetic dataset in the OWID
// CSV layout, for development and demos without the 200MB real download.
// Growth follows fixed per-country formulas, so repeated runs with the same
// flags produce byte-identical files, and the gaps mirror the real dataset's
// quirks: vaccination columns stay empty until a country starts reporting,
// Kenya never reports them, and Brazil stops reporting entirely before the
// final date.
//
// Usage:
//
//	go run ./cmd/gendata -out data/owid-covid-data.csv -days 30 -end 2021-04-05
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type countryDef struct {
	name       string
	iso        string
	continent  string
	population int64
	caseSeed   int64 // cumulative cases at the first generated date
	caseSlope  int64 // scales the weekly new-case wave
	deathShare float64
	vaxStart   int // day index vaccination reporting begins; -1 never
	vaxPerDay  int64
	stopsEarly int // days before the end that reporting stops
}

var countries = []countryDef{
	{name: "United States", iso: "USA", continent: "North America", population: 331002651,
		caseSeed: 30000000, caseSlope: 9000, deathShare: 0.018, vaxStart: 0, vaxPerDay: 900000},
	{name: "India", iso: "IND", continent: "Asia", population: 1380004385,
		caseSeed: 12000000, caseSlope: 12000, deathShare: 0.013, vaxStart: 5, vaxPerDay: 700000},
	{name: "Brazil", iso: "BRA", continent: "South America", population: 212559417,
		caseSeed: 12800000, caseSlope: 11000, deathShare: 0.025, vaxStart: 8, vaxPerDay: 350000, stopsEarly: 2},
	{name: "United Kingdom", iso: "GBR", continent: "Europe", population: 67886011,
		caseSeed: 4350000, caseSlope: 1500, deathShare: 0.029, vaxStart: 0, vaxPerDay: 450000},
	{name: "Kenya", iso: "KEN", continent: "Africa", population: 53771296,
		caseSeed: 130000, caseSlope: 700, deathShare: 0.017, vaxStart: -1},
	{name: "South Africa", iso: "ZAF", continent: "Africa", population: 59308690,
		caseSeed: 1550000, caseSlope: 800, deathShare: 0.034, vaxStart: 12, vaxPerDay: 60000},
	{name: "Peru", iso: "PER", continent: "South America", population: 32971854,
		caseSeed: 1580000, caseSlope: 900, deathShare: 0.035, vaxStart: 15, vaxPerDay: 40000},
}

var header = []string{
	"iso_code", "continent", "location", "date",
	"total_cases", "new_cases", "total_deaths", "new_deaths",
	"total_vaccinations", "people_vaccinated", "population", "total_cases_per_million",
}

type row struct {
	iso, continent, location string
	date                     time.Time
	totalCases, newCases     int64
	totalDeaths, newDeaths   int64
	totalVax, peopleVax      int64
	hasVax                   bool
	population               int64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/owid-covid-data.csv", "output path for the synthetic CSV")
	days := flag.Int("days", 30, "number of days to generate")
	end := flag.String("end", "2021-04-05", "last dataset date (YYYY-MM-DD)")
	flag.Parse()

	if *days < 1 {
		return fmt.Errorf("-days must be at least 1, got %d", *days)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		return fmt.Errorf("invalid -end date: %w", err)
	}

	rows := generate(endDate, *days)
	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows for %d locations: %s", len(rows), len(countries)+1, *out)

	printStats(rows, endDate)
	return nil
}

// generate produces one block of rows per country plus a World aggregate. The
// aggregate sums only the countries that reported on a given date, the way
// the real dataset assembles its regional rows.
func generate(endDate time.Time, days int) []row {
	var rows []row
	world := make([]row, days)
	var worldPop int64

	for _, c := range countries {
		worldPop += c.population
	}
	for day := 0; day < days; day++ {
		world[day] = row{
			iso: "OWID_WRL", location: "World",
			date:       endDate.AddDate(0, 0, -(days - 1 - day)),
			population: worldPop,
		}
	}

	for _, c := range countries {
		totalCases := c.caseSeed
		totalDeaths := int64(float64(c.caseSeed) * c.deathShare)
		var totalVax, peopleVax int64

		for day := 0; day < days; day++ {
			// A seven-day wave keeps the curve moving without randomness.
			newCases := c.caseSlope * int64(day%7+1)
			totalCases += newCases
			newDeaths := int64(float64(newCases) * c.deathShare)
			totalDeaths += newDeaths

			hasVax := c.vaxStart >= 0 && day >= c.vaxStart
			if hasVax {
				peopleVax += c.vaxPerDay
				totalVax += c.vaxPerDay
				if day >= c.vaxStart+10 {
					// Second doses count toward total administrations only.
					totalVax += c.vaxPerDay / 2
				}
			}

			if c.stopsEarly > 0 && day >= days-c.stopsEarly {
				continue
			}

			w := &world[day]
			w.totalCases += totalCases
			w.newCases += newCases
			w.totalDeaths += totalDeaths
			w.newDeaths += newDeaths
			if hasVax {
				w.totalVax += totalVax
				w.peopleVax += peopleVax
				w.hasVax = true
			}
			rows = append(rows, row{
				iso: c.iso, continent: c.continent, location: c.name,
				date:        endDate.AddDate(0, 0, -(days - 1 - day)),
				totalCases:  totalCases,
				newCases:    newCases,
				totalDeaths: totalDeaths,
				newDeaths:   newDeaths,
				totalVax:    totalVax,
				peopleVax:   peopleVax,
				hasVax:      hasVax,
				population:  c.population,
			})
		}
	}

	return append(rows, world...)
}

func writeCSV(path string, rows []row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

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

func cells(r row) []string {
	vax, people := "", ""
	if r.hasVax {
		vax = strconv.FormatInt(r.totalVax, 10)
		people = strconv.FormatInt(r.peopleVax, 10)
	}
	perMillion := float64(r.totalCases) / float64(r.population) * 1e6
	return []string{
		r.iso, r.continent, r.location, r.date.Format("2006-01-02"),
		strconv.FormatInt(r.totalCases, 10),
		strconv.FormatInt(r.newCases, 10),
		strconv.FormatInt(r.totalDeaths, 10),
		strconv.FormatInt(r.newDeaths, 10),
		vax, people,
		strconv.FormatInt(r.population, 10),
		strconv.FormatFloat(perMillion, 'f', 3, 64),
	}
}

func printStats(rows []row, endDate time.Time) {
	last := endDate.Format("2006-01-02")
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total rows: %d\n", len(rows))

	perLocation := map[string]int{}
	var atEnd, vaxGaps int
	for _, r := range rows {
		perLocation[r.location]++
		if r.date.Format("2006-01-02") == last {
			atEnd++
		}
		if !r.hasVax {
			vaxGaps++
		}
	}
	fmt.Printf("Locations reporting on %s: %d\n", last, atEnd)
	fmt.Printf("Rows with empty vaccination cells: %d\n", vaxGaps)

	fmt.Println("\nVaccination share on the last reported date:")
	for _, r := range rows {
		if r.date.Format("2006-01-02") != last || r.location == "World" || !r.hasVax {
			continue
		}
		fmt.Printf("  %-16s %.4f%%\n", r.location, float64(r.peopleVax)/float64(r.population)*100)
	}
}
