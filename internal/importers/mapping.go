package importers

import (
	"regexp"
	"strconv"
	"strings"
)

// Row is one spreadsheet row after column mapping. Title and Author are
// always non-empty; optional fields are nil when absent.
type Row struct {
	Title           string
	Author          string
	ISBN            *string
	SeriesName      *string
	SeriesNumber    *float64
	Publisher       *string
	PublicationYear *int
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// ApplyMapping extracts a Row from a column-keyed record. It reports false
// when the title or author column is unmapped or blank.
func ApplyMapping(record map[string]string, m Mapping) (*Row, bool) {
	title := lookup(record, m.Title)
	author := lookup(record, m.Author)
	if title == nil || author == nil {
		return nil, false
	}

	row := &Row{
		Title:      *title,
		Author:     *author,
		ISBN:       unwrapLiteral(lookup(record, m.ISBN)),
		SeriesName: lookup(record, m.SeriesName),
		Publisher:  lookup(record, m.Publisher),
	}
	if v := lookup(record, m.SeriesNumber); v != nil {
		row.SeriesNumber = parseLeadingFloat(*v)
	}
	if v := lookup(record, m.PublicationYear); v != nil {
		row.PublicationYear = parseLeadingInt(*v)
	}
	return row, true
}

// lookup returns the trimmed value of the mapped column, or nil when the
// column is unmapped, missing from the record, or blank.
func lookup(record map[string]string, header *string) *string {
	if header == nil {
		return nil
	}
	value, ok := record[*header]
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// unwrapLiteral strips the ="..." wrapper spreadsheet exports put around
// identifiers to keep leading zeros.
func unwrapLiteral(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	if strings.HasPrefix(v, `="`) && strings.HasSuffix(v, `"`) && len(v) >= 3 {
		v = strings.TrimSpace(v[2 : len(v)-1])
	}
	if v == "" {
		return nil
	}
	return &v
}

// parseLeadingFloat reads the numeric prefix of s ("3.5 (novella)" → 3.5).
// Zero and unparsable input are treated as absent.
func parseLeadingFloat(s string) *float64 {
	match := leadingFloat.FindString(s)
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil || f == 0 {
		return nil
	}
	return &f
}

// parseLeadingInt reads the integer prefix of s ("1999-05-01" → 1999).
// Zero and unparsable input are treated as absent.
func parseLeadingInt(s string) *int {
	match := leadingInt.FindString(s)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil || n == 0 {
		return nil
	}
	return &n
}
