// Package domain models Our World in Data (OWID) COVID-19 country time series.
//
// # Data Source
//
// Observations come from the OWID compact dataset, one CSV row per country
// per day, published at https://covid.ourworldindata.org/data/owid-covid-data.csv.
// The fetch command downloads it; the loader in adapter/owid parses it into a
// [Table] of [Record] values. Analysis never goes back to the file.
//
// # OWID Data Conventions
//
// Locations:
//
//	Canonical English country names: "United States", "South Korea".
//	The location column also carries aggregate pseudo-countries ("World",
//	"European Union", income groups). Country filtering is exact-match so
//	aggregates never slip into a country subset; the global snapshot keeps
//	them on purpose.
//
// Dates:
//
//	ISO 8601 calendar dates, YYYY-MM-DD, no time component. A row without a
//	date cannot be placed on the timeline and is dropped (and counted); a row
//	with a malformed date aborts the load, because a systematically bad date
//	column would silently skew every date-scoped view.
//
// Missing values:
//
//	Empty cells mean "not reported", which is not the same as zero. Numeric
//	fields are *float64 and stay nil until an explicit fill decides zero is
//	the honest reading for that column. Only the filtered country subset is
//	ever filled; the full table keeps its gaps so the global snapshot can
//	tell "no data" from "zero".
//
// Derived metrics:
//
//	death_rate     = total_deaths / total_cases             (per filtered row)
//	pct_vaccinated = people_vaccinated / population * 100   (per snapshot row)
//
//	Both guard the denominator before dividing: a zero or missing denominator
//	yields "no value", never Inf or NaN. pct_vaccinated above 100 is kept;
//	doses counted against census populations genuinely exceed 100 in small
//	states.
//
// # Determinism
//
// Every derivation is a pure function of its input table, and every ordered
// output (snapshots, rankings) sorts on location as the final tie-break, so
// two runs over the same file produce byte-identical artifacts. Run identity
// ([RunMeta]) exists for logs and run history only and never enters the data.
package domain
