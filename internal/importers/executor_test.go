package importers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

type fakeStore struct {
	existing   []string
	existErr   error
	authors    map[string]*entities.Author
	books      []*entities.Book
	failTitles map[string]bool
	panicTitle string
}

func newFakeStore(existing ...string) *fakeStore {
	return &fakeStore{existing: existing, authors: map[string]*entities.Author{}, failTitles: map[string]bool{}}
}

func (s *fakeStore) ExistingISBNs(ctx context.Context, userID string) ([]string, error) {
	return s.existing, s.existErr
}

func (s *fakeStore) CreateBook(ctx context.Context, book *entities.Book, authorName string) error {
	if book.Title == s.panicTitle {
		panic("boom")
	}
	if s.failTitles[book.Title] {
		return errors.New("disk full")
	}
	a, ok := s.authors[authorName]
	if !ok {
		a = &entities.Author{ID: "author-" + authorName, UserID: book.UserID, Name: authorName}
		s.authors[authorName] = a
	}
	book.AuthorID = a.ID
	s.books = append(s.books, book)
	return nil
}

func TestExecutorSkipsExistingISBN(t *testing.T) {
	store := newFakeStore("9780765311788")
	exec := NewExecutor(store)

	rows := []map[string]string{
		{"Title": "Mistborn", "Author": "Brandon Sanderson", "ISBN": "9780765311788"},
		{"Title": "Elantris", "Author": "Brandon Sanderson", "ISBN": "9780765350374"},
	}

	result, err := exec.Execute(context.Background(), "user-1", rows, fullMapping(), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, result.Errors)
	require.Len(t, store.books, 1)
	assert.Equal(t, "Elantris", store.books[0].Title)
	assert.Equal(t, entities.BookSourceImport, store.books[0].Source)
	require.NotNil(t, store.books[0].ISBN10)
	assert.Equal(t, "0765350378", *store.books[0].ISBN10)
}

func TestExecutorWithinBatchDuplicates(t *testing.T) {
	store := newFakeStore()
	exec := NewExecutor(store)

	rows := []map[string]string{
		{"Title": "Mistborn", "Author": "Brandon Sanderson", "ISBN": "978-0-7653-1178-8"},
		{"Title": "Mistborn (copy)", "Author": "Brandon Sanderson", "ISBN": "9780765311788"},
		{"Title": "No ISBN", "Author": "Someone"},
		{"Title": "No ISBN", "Author": "Someone"},
	}

	result, err := exec.Execute(context.Background(), "user-1", rows, fullMapping(), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Mistborn", store.books[0].Title)
	assert.Len(t, store.authors, 2)
}

func TestExecutorRowErrorsContinue(t *testing.T) {
	store := newFakeStore()
	store.failTitles["Broken"] = true
	store.panicTitle = "Explodes"
	exec := NewExecutor(store)

	rows := []map[string]string{
		{"Title": "", "Author": "Nobody"},
		{"Title": "Broken", "Author": "A"},
		{"Title": "Explodes", "Author": "B"},
		{"Title": "Fine", "Author": "C"},
	}

	result, err := exec.Execute(context.Background(), "user-1", rows, fullMapping(), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Duplicates)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, RowError{Row: 1, Error: MissingFieldsMessage}, result.Errors[0])
	assert.Equal(t, 2, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Error, "disk full")
	assert.Equal(t, 3, result.Errors[2].Row)
	assert.Contains(t, result.Errors[2].Error, "boom")
}

func TestExecutorFailedRowDoesNotClaimISBN(t *testing.T) {
	store := newFakeStore()
	store.failTitles["First"] = true
	exec := NewExecutor(store)

	rows := []map[string]string{
		{"Title": "First", "Author": "A", "ISBN": "9780765311788"},
		{"Title": "Second", "Author": "A", "ISBN": "9780765311788"},
	}

	result, err := exec.Execute(context.Background(), "user-1", rows, fullMapping(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Duplicates)
	assert.Len(t, result.Errors, 1)
}

func TestExecutorGoodreadsSeries(t *testing.T) {
	store := newFakeStore()
	exec := NewExecutor(store)

	rows := []map[string]string{
		{
			"Book Id":                   "1",
			"Title":                     "The Way of Kings (The Stormlight Archive, #1)",
			"Author":                    "Brandon Sanderson",
			"ISBN13":                    `="9780765326355"`,
			"Publisher":                 "Tor Books",
			"Original Publication Year": "2010",
		},
	}

	result, err := exec.Execute(context.Background(), "user-1", rows, GoodreadsMapping(), FormatGoodreads)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	book := store.books[0]
	assert.Equal(t, "The Way of Kings", book.Title)
	require.NotNil(t, book.SeriesName)
	assert.Equal(t, "The Stormlight Archive", *book.SeriesName)
	require.NotNil(t, book.SeriesNumber)
	assert.Equal(t, 1.0, *book.SeriesNumber)
	require.NotNil(t, book.ISBN13)
	assert.Equal(t, "9780765326355", *book.ISBN13)
	require.NotNil(t, book.PublicationYear)
	assert.Equal(t, 2010, *book.PublicationYear)
}

func TestExecutorGenericCSVKeepsParenthetical(t *testing.T) {
	store := newFakeStore()
	exec := NewExecutor(store)

	rows := []map[string]string{{"Title": "Dune (Deluxe Edition)", "Author": "Frank Herbert"}}

	_, err := exec.Execute(context.Background(), "user-1", rows, fullMapping(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Dune (Deluxe Edition)", store.books[0].Title)
	assert.Nil(t, store.books[0].SeriesName)
}

func TestExecutorPreloadFailure(t *testing.T) {
	store := newFakeStore()
	store.existErr = errors.New("db down")

	_, err := NewExecutor(store).Execute(context.Background(), "user-1", nil, fullMapping(), FormatCSV)
	assert.Error(t, err)
	assert.Empty(t, store.books)
}
