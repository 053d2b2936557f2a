package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullMapping() Mapping {
	return Mapping{
		Title:           column("Title"),
		Author:          column("Author"),
		ISBN:            column("ISBN"),
		SeriesName:      column("Series"),
		SeriesNumber:    column("Number"),
		Publisher:       column("Publisher"),
		PublicationYear: column("Year"),
	}
}

func TestApplyMapping(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		row, ok := ApplyMapping(map[string]string{
			"Title":     "  Mistborn ",
			"Author":    "Brandon Sanderson",
			"ISBN":      "978-0-7653-1178-8",
			"Series":    "Mistborn",
			"Number":    "1",
			"Publisher": "Tor",
			"Year":      "2006",
		}, fullMapping())

		require.True(t, ok)
		assert.Equal(t, "Mistborn", row.Title)
		assert.Equal(t, "Brandon Sanderson", row.Author)
		require.NotNil(t, row.ISBN)
		assert.Equal(t, "978-0-7653-1178-8", *row.ISBN)
		require.NotNil(t, row.SeriesNumber)
		assert.Equal(t, 1.0, *row.SeriesNumber)
		require.NotNil(t, row.PublicationYear)
		assert.Equal(t, 2006, *row.PublicationYear)
		require.NotNil(t, row.Publisher)
		assert.Equal(t, "Tor", *row.Publisher)
	})

	t.Run("missing author", func(t *testing.T) {
		_, ok := ApplyMapping(map[string]string{"Title": "Dune", "Author": "   "}, fullMapping())
		assert.False(t, ok)
	})

	t.Run("unmapped title", func(t *testing.T) {
		m := fullMapping()
		m.Title = nil
		_, ok := ApplyMapping(map[string]string{"Title": "Dune", "Author": "Frank Herbert"}, m)
		assert.False(t, ok)
	})

	t.Run("non numeric values become absent", func(t *testing.T) {
		row, ok := ApplyMapping(map[string]string{
			"Title":  "Dune",
			"Author": "Frank Herbert",
			"Number": "first",
			"Year":   "unknown",
		}, fullMapping())

		require.True(t, ok)
		assert.Nil(t, row.SeriesNumber)
		assert.Nil(t, row.PublicationYear)
		assert.Nil(t, row.ISBN)
		assert.Nil(t, row.Publisher)
	})

	t.Run("numeric prefixes", func(t *testing.T) {
		row, ok := ApplyMapping(map[string]string{
			"Title":  "Edgedancer",
			"Author": "Brandon Sanderson",
			"Number": "2.5 (novella)",
			"Year":   "2016-10-04",
		}, fullMapping())

		require.True(t, ok)
		require.NotNil(t, row.SeriesNumber)
		assert.Equal(t, 2.5, *row.SeriesNumber)
		require.NotNil(t, row.PublicationYear)
		assert.Equal(t, 2016, *row.PublicationYear)
	})

	t.Run("zero is absent", func(t *testing.T) {
		row, ok := ApplyMapping(map[string]string{
			"Title":  "Dune",
			"Author": "Frank Herbert",
			"Number": "0",
			"Year":   "0",
		}, fullMapping())

		require.True(t, ok)
		assert.Nil(t, row.SeriesNumber)
		assert.Nil(t, row.PublicationYear)
	})

	t.Run("spreadsheet literal isbn", func(t *testing.T) {
		row, ok := ApplyMapping(map[string]string{
			"Title":  "Dune",
			"Author": "Frank Herbert",
			"ISBN":   `="9780441013593"`,
		}, fullMapping())

		require.True(t, ok)
		require.NotNil(t, row.ISBN)
		assert.Equal(t, "9780441013593", *row.ISBN)

		row, ok = ApplyMapping(map[string]string{
			"Title":  "Dune",
			"Author": "Frank Herbert",
			"ISBN":   `=""`,
		}, fullMapping())
		require.True(t, ok)
		assert.Nil(t, row.ISBN)
	})
}
