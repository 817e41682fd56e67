package domain

import "fmt"

// MissingInputError reports that the source dataset could not be opened.
// The CLI matches on it to print download instructions instead of a raw
// open error.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("dataset %s: %v", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// DateParseError reports a date cell that is present but not in YYYY-MM-DD
// form. Malformed dates abort the load: silently dropping them would skew
// every date-scoped view downstream, unlike absent dates which are counted
// and dropped.
type DateParseError struct {
	Line  int
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("line %d: date %q: %v", e.Line, e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// MissingColumnsError reports required header columns absent from the source
// file, which usually means the wrong file or a truncated download.
type MissingColumnsError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset %s: missing required columns %v", e.Path, e.Columns)
}

// EmptyDatasetError reports that snapshot selection ran against a table with
// no rows, so no latest date exists. Scope names the table: "filtered" when
// the configured countries matched nothing, "dataset" when the source itself
// had no usable rows.
type EmptyDatasetError struct {
	Scope string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s table has no rows; cannot select a latest-date snapshot", e.Scope)
}
