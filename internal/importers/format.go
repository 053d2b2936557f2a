package importers

import "strings"

// Format identifies the application that produced an export.
type Format string

const (
	FormatGoodreads  Format = "goodreads"
	FormatStoryGraph Format = "storygraph"
	FormatCSV        Format = "csv"
)

// ParseFormat accepts the known format names. An empty name means generic CSV.
func ParseFormat(name string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatGoodreads:
		return FormatGoodreads, true
	case FormatStoryGraph:
		return FormatStoryGraph, true
	case FormatCSV, "":
		return FormatCSV, true
	}
	return "", false
}

// DetectFormat classifies an export by its header row. Rules are checked in
// priority order and the first one that matches wins.
func DetectFormat(headers []string) Format {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		set[strings.ToLower(h)] = struct{}{}
	}

	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := set[n]; !ok {
				return false
			}
		}
		return true
	}

	switch {
	case has("book id", "bookshelves"):
		return FormatGoodreads
	case has("read status", "star rating"):
		return FormatStoryGraph
	default:
		return FormatCSV
	}
}

// Mapping associates each catalog field with the header of the column that
// holds it. A nil field is unmapped.
type Mapping struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	SeriesName      *string `json:"seriesName"`
	SeriesNumber    *string `json:"seriesNumber"`
	Publisher       *string `json:"publisher"`
	PublicationYear *string `json:"publicationYear"`
}

func column(name string) *string {
	return &name
}

// GoodreadsMapping is the fixed column layout of a Goodreads library export.
// Series live inside the title there, so no series columns are mapped.
func GoodreadsMapping() Mapping {
	return Mapping{
		Title:           column("Title"),
		Author:          column("Author"),
		ISBN:            column("ISBN13"),
		Publisher:       column("Publisher"),
		PublicationYear: column("Original Publication Year"),
	}
}

// fieldAliases is checked in order, and so is each alias list: the first alias
// that matches any header claims that header for the field.
var fieldAliases = []struct {
	aliases []string
	assign  func(m *Mapping, header *string)
}{
	{[]string{"title", "book title", "name", "book name"}, func(m *Mapping, h *string) { m.Title = h }},
	{[]string{"author", "author name", "authors", "author(s)", "writer"}, func(m *Mapping, h *string) { m.Author = h }},
	{[]string{"isbn", "isbn13", "isbn-13", "isbn10", "isbn-10", "asin"}, func(m *Mapping, h *string) { m.ISBN = h }},
	{[]string{"series", "series name", "series title"}, func(m *Mapping, h *string) { m.SeriesName = h }},
	{[]string{"series number", "book number", "number in series", "#"}, func(m *Mapping, h *string) { m.SeriesNumber = h }},
	{[]string{"publisher", "publishing company"}, func(m *Mapping, h *string) { m.Publisher = h }},
	{[]string{"year", "publication year", "year published", "original publication year"}, func(m *Mapping, h *string) { m.PublicationYear = h }},
}

// SuggestMapping proposes a Mapping by matching headers against known column
// names. A header matches an alias when its trimmed lowercase form equals or
// contains the alias; the original header text is stored.
func SuggestMapping(headers []string) Mapping {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.TrimSpace(strings.ToLower(h))
	}

	var m Mapping
	for _, field := range fieldAliases {
		if idx := firstAliasMatch(lower, field.aliases); idx >= 0 {
			field.assign(&m, column(headers[idx]))
		}
	}
	return m
}

func firstAliasMatch(headers, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if h == alias || strings.Contains(h, alias) {
				return i
			}
		}
	}
	return -1
}
