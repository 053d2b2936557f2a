package importers

import (
	"regexp"
	"strconv"
	"strings"
)

// SeriesInfo is the result of splitting a series parenthetical off a title.
type SeriesInfo struct {
	CleanTitle   string
	SeriesName   *string
	SeriesNumber *float64
}

// Matches a trailing "(Series Name, #3)", "(Series Name #3)" or "(Series Name)".
var seriesSuffix = regexp.MustCompile(`^(.+?)\s*\(([^,()]+?)(?:,?\s*#?(\d+(?:\.\d+)?))?\)$`)

// ExtractSeriesFromTitle splits a Goodreads-style title into the bare title and
// the embedded series. Titles without a trailing parenthetical are returned
// unchanged with no series.
func ExtractSeriesFromTitle(title string) SeriesInfo {
	title = strings.TrimSpace(title)
	m := seriesSuffix.FindStringSubmatch(title)
	if m == nil {
		return SeriesInfo{CleanTitle: title}
	}

	info := SeriesInfo{CleanTitle: strings.TrimSpace(m[1])}
	if name := strings.TrimSpace(m[2]); name != "" {
		info.SeriesName = &name
	}
	if m[3] != "" {
		if n, err := strconv.ParseFloat(m[3], 64); err == nil {
			info.SeriesNumber = &n
		}
	}
	return info
}

// applySeries rewrites the row title and fills series fields the mapping
// left empty.
func applySeries(row *Row) {
	info := ExtractSeriesFromTitle(row.Title)
	if info.SeriesName == nil {
		return
	}
	row.Title = info.CleanTitle
	if row.SeriesName == nil {
		row.SeriesName = info.SeriesName
	}
	if row.SeriesNumber == nil {
		row.SeriesNumber = info.SeriesNumber
	}
}
