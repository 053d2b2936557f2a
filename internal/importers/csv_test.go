package importers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Run("header keyed rows", func(t *testing.T) {
		input := "\ufeffTitle,Author,ISBN\n" +
			"Mistborn,Brandon Sanderson,9780765311788\n" +
			"\n" +
			"\"Dune, Deluxe\",Frank Herbert\n"

		table, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, []string{"Title", "Author", "ISBN"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "Mistborn", table.Rows[0]["Title"])
		assert.Equal(t, "9780765311788", table.Rows[0]["ISBN"])
		assert.Equal(t, "Dune, Deluxe", table.Rows[1]["Title"])
		_, hasISBN := table.Rows[1]["ISBN"]
		assert.False(t, hasISBN)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrMalformedCSV)
	})

	t.Run("header only", func(t *testing.T) {
		table, err := ParseCSV(strings.NewReader("Title,Author\n"))
		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	})
}

func TestBuildPreview(t *testing.T) {
	var b strings.Builder
	b.WriteString("Book Id,Title,Author,ISBN13,Bookshelves\n")
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&b, "%d,Book %d,Author %d,,to-read\n", i, i, i)
	}

	table, err := ParseCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	preview := BuildPreview(table)
	assert.Equal(t, FormatGoodreads, preview.Format)
	assert.Equal(t, 8, preview.TotalRows)
	assert.Len(t, preview.SampleRows, SampleSize)
	assert.Equal(t, GoodreadsMapping(), preview.SuggestedMapping)
	assert.Equal(t, table.Headers, preview.Columns)
}

func TestBuildPreviewGenericCSV(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Name,Writer\nDune,Frank Herbert\n"))
	require.NoError(t, err)

	preview := BuildPreview(table)
	assert.Equal(t, FormatCSV, preview.Format)
	require.NotNil(t, preview.SuggestedMapping.Title)
	assert.Equal(t, "Name", *preview.SuggestedMapping.Title)
	require.NotNil(t, preview.SuggestedMapping.Author)
	assert.Equal(t, "Writer", *preview.SuggestedMapping.Author)
}
