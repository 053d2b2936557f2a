package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SampleSize is the number of rows included in a Preview.
const SampleSize = 5

// ErrMalformedCSV is returned when the input cannot be parsed as CSV at all.
var ErrMalformedCSV = errors.New("malformed CSV")

// Table is a parsed CSV file: the header row plus each data row keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Preview summarizes an upload before anything is written.
type Preview struct {
	Format           Format              `json:"format"`
	TotalRows        int                 `json:"totalRows"`
	Columns          []string            `json:"columns"`
	SuggestedMapping Mapping             `json:"suggestedMapping"`
	SampleRows       []map[string]string `json:"sampleRows"`
}

// ParseCSV reads a CSV document whose first record is the header row.
// Blank lines are skipped. Short rows leave the missing columns out of the
// record and extra cells are ignored.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedCSV)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers, Rows: make([]map[string]string, 0, len(records)-1)}
	for _, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i >= len(record) {
				break
			}
			if _, seen := row[header]; seen {
				continue
			}
			row[header] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// BuildPreview detects the format, proposes a mapping, and samples the first
// rows. Goodreads exports always get the fixed Goodreads mapping.
func BuildPreview(table *Table) Preview {
	format := DetectFormat(table.Headers)
	mapping := SuggestMapping(table.Headers)
	if format == FormatGoodreads {
		mapping = GoodreadsMapping()
	}

	sample := table.Rows
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	return Preview{
		Format:           format,
		TotalRows:        len(table.Rows),
		Columns:          table.Headers,
		SuggestedMapping: mapping,
		SampleRows:       sample,
	}
}
