package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjohnston82/tome-tracker1/internal/metadata"
)

type fakeMetadataSource struct {
	books      map[string]*metadata.BookMetadata
	results    []metadata.SearchResult
	err        error
	lookups    []string
	searchedAs string
}

func (f *fakeMetadataSource) LookupByISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error) {
	f.lookups = append(f.lookups, isbn)
	if f.err != nil {
		return nil, f.err
	}
	return f.books[isbn], nil
}

func (f *fakeMetadataSource) Search(ctx context.Context, query string) ([]metadata.SearchResult, error) {
	f.searchedAs = query
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestLookupService_Lookup(t *testing.T) {
	catalog := setupTestCatalog(t)
	books := NewBookService(catalog.books, catalog.authors)
	ctx := context.Background()

	owned, err := books.Create(ctx, "u1", CreateBookInput{Title: "Mistborn", AuthorName: "Brandon Sanderson", ISBN13: ptr("9780765311788")})
	require.NoError(t, err)

	source := &fakeMetadataSource{books: map[string]*metadata.BookMetadata{
		"9780765311788": {Title: "Mistborn", Authors: []string{"Brandon Sanderson"}},
	}}
	svc := NewLookupService(source, books)

	t.Run("owned book from an ISBN-10 scan", func(t *testing.T) {
		result, err := svc.Lookup(ctx, "u1", "076531178X")
		require.NoError(t, err)
		assert.True(t, result.IsISBN)
		assert.Equal(t, "9780765311788", *result.NormalizedISBN)
		assert.True(t, result.Owned)
		assert.Equal(t, owned.ID, *result.BookID)
		require.NotNil(t, result.Metadata)
		assert.Equal(t, "Mistborn", result.Metadata.Title)
	})

	t.Run("unknown book", func(t *testing.T) {
		result, err := svc.Lookup(ctx, "u1", "9780547928227")
		require.NoError(t, err)
		assert.True(t, result.IsISBN)
		assert.False(t, result.Owned)
		assert.Nil(t, result.Metadata)
	})

	t.Run("not an ISBN", func(t *testing.T) {
		before := len(source.lookups)
		result, err := svc.Lookup(ctx, "u1", "hello")
		require.NoError(t, err)
		assert.False(t, result.IsISBN)
		assert.Nil(t, result.NormalizedISBN)
		assert.Len(t, source.lookups, before)
	})
}

func TestLookupService_LookupProviderError(t *testing.T) {
	catalog := setupTestCatalog(t)
	svc := NewLookupService(&fakeMetadataSource{err: errors.New("boom")}, NewBookService(catalog.books, catalog.authors))

	_, err := svc.Lookup(context.Background(), "u1", "9780765311788")
	assert.ErrorContains(t, err, "boom")
}

func TestLookupService_Search(t *testing.T) {
	source := &fakeMetadataSource{results: []metadata.SearchResult{{Title: "Dune"}}}
	svc := NewLookupService(source, nil)

	results, err := svc.Search(context.Background(), "  dune ")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "dune", source.searchedAs)

	_, err = svc.Search(context.Background(), "d")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "q", verr.Field)
}
