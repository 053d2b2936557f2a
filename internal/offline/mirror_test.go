package offline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
	"github.com/sjohnston82/tome-tracker1/internal/library"
)

func ptr[T any](v T) *T { return &v }

func openTestMirror(t *testing.T) (*Mirror, string) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	m, err := OpenMirror(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, path
}

func testSnapshot() *library.Snapshot {
	return &library.Snapshot{
		SyncedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Authors: []entities.Author{
			{
				ID:   "a1",
				Name: "Anne Leckie",
				Bio:  ptr("Hugo winner"),
				Books: []entities.Book{
					{ID: "b1", AuthorID: "a1", Title: "Ancillary Justice", ISBN13: ptr("9780316246620"), SeriesName: ptr("Imperial Radch"), SeriesNumber: ptr(1.0)},
					{ID: "b2", AuthorID: "a1", Title: "Ancillary Sword", SeriesName: ptr("Imperial Radch"), SeriesNumber: ptr(2.0)},
				},
			},
			{
				ID:   "a2",
				Name: "Brandon Sanderson",
				Books: []entities.Book{
					{ID: "b3", AuthorID: "a2", Title: "The Way of Kings", ISBN13: ptr("9780765326355"), SeriesName: ptr("Stormlight"), SeriesNumber: ptr(1.0)},
					{ID: "b4", AuthorID: "a2", Title: "Elantris", CoverURL: ptr("https://covers.example/elantris.jpg")},
				},
			},
		},
	}
}

func TestFlattenAndBuildTree(t *testing.T) {
	authors, books := Flatten(testSnapshot())
	require.Len(t, authors, 2)
	require.Len(t, books, 4)
	assert.Equal(t, "a2", books[2].AuthorID)

	// An author with no books is dropped from the tree.
	authors = append(authors, MirrorAuthor{ID: "a3", Name: "Nobody"})
	tree := BuildTree(authors, books)
	require.Len(t, tree, 2)
	assert.Equal(t, "Anne Leckie", tree[0].Name)
	assert.Equal(t, ptr("Hugo winner"), tree[0].Bio)
	assert.Len(t, tree[1].Books, 2)
}

func TestMirror_ReplaceAndLoad(t *testing.T) {
	m, _ := openTestMirror(t)
	ctx := context.Background()
	syncedAt := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	authors, books := Flatten(testSnapshot())
	require.NoError(t, m.Replace(ctx, authors, books, syncedAt))

	cached, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, cached.Authors, 2)
	assert.Len(t, cached.Books, 4)
	require.NotNil(t, cached.LastSync)
	assert.True(t, syncedAt.Equal(*cached.LastSync))

	// A second replace drops rows that are no longer in the snapshot.
	require.NoError(t, m.Replace(ctx, authors[:1], books[:1], syncedAt.Add(time.Hour)))
	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AuthorCount)
	assert.Equal(t, 1, stats.BookCount)
	assert.True(t, syncedAt.Add(time.Hour).Equal(*stats.LastSync))
}

func TestMirror_FailedReplaceKeepsPreviousContent(t *testing.T) {
	m, _ := openTestMirror(t)
	ctx := context.Background()

	authors, books := Flatten(testSnapshot())
	require.NoError(t, m.Replace(ctx, authors, books, time.Now()))

	// Duplicate primary keys make the insert fail after the deletes ran.
	broken := []MirrorBook{{ID: "dup", AuthorID: "a1", Title: "One"}, {ID: "dup", AuthorID: "a1", Title: "Two"}}
	require.Error(t, m.Replace(ctx, authors, broken, time.Now()))

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.AuthorCount)
	assert.Equal(t, 4, stats.BookCount)
}

func TestMirror_TreeSurvivesRestart(t *testing.T) {
	m, path := openTestMirror(t)
	ctx := context.Background()
	snapshot := testSnapshot()

	authors, books := Flatten(snapshot)
	require.NoError(t, m.Replace(ctx, authors, books, snapshot.SyncedAt))
	require.NoError(t, m.Close())

	reopened, err := OpenMirror(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	tree, lastSync, err := reopened.Tree(ctx)
	require.NoError(t, err)
	require.NotNil(t, lastSync)

	require.Len(t, tree, len(snapshot.Authors))
	for i, author := range snapshot.Authors {
		assert.Equal(t, author.ID, tree[i].ID)
		assert.Equal(t, author.Name, tree[i].Name)

		want := make(map[string]entities.Book)
		for _, b := range author.Books {
			want[b.ID] = b
		}
		require.Len(t, tree[i].Books, len(want))
		for _, got := range tree[i].Books {
			expected, ok := want[got.ID]
			require.True(t, ok, "unexpected book %s", got.ID)
			assert.Equal(t, expected.Title, got.Title)
			assert.Equal(t, expected.ISBN13, got.ISBN13)
			assert.Equal(t, expected.CoverURL, got.CoverURL)
			assert.Equal(t, expected.SeriesName, got.SeriesName)
			assert.Equal(t, expected.SeriesNumber, got.SeriesNumber)
		}
	}
}

func TestMirror_BookOrdering(t *testing.T) {
	m, _ := openTestMirror(t)
	ctx := context.Background()

	authors := []MirrorAuthor{{ID: "a1", Name: "Author"}}
	books := []MirrorBook{
		{ID: "1", AuthorID: "a1", Title: "Standalone B"},
		{ID: "2", AuthorID: "a1", Title: "Standalone A"},
		{ID: "3", AuthorID: "a1", Title: "Unnumbered", SeriesName: ptr("Saga")},
		{ID: "4", AuthorID: "a1", Title: "Second", SeriesName: ptr("Saga"), SeriesNumber: ptr(2.0)},
		{ID: "5", AuthorID: "a1", Title: "First", SeriesName: ptr("Saga"), SeriesNumber: ptr(1.0)},
	}
	require.NoError(t, m.Replace(ctx, authors, books, time.Now()))

	tree, _, err := m.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)

	var titles []string
	for _, b := range tree[0].Books {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"First", "Second", "Unnumbered", "Standalone A", "Standalone B"}, titles)
}

func TestMirror_IsOwned(t *testing.T) {
	m, _ := openTestMirror(t)
	ctx := context.Background()

	authors, books := Flatten(testSnapshot())
	require.NoError(t, m.Replace(ctx, authors, books, time.Now()))

	owned, err := m.IsOwned(ctx, "9780765326355")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = m.IsOwned(ctx, "9780000000000")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestMirror_Search(t *testing.T) {
	m, _ := openTestMirror(t)
	ctx := context.Background()

	authors, books := Flatten(testSnapshot())
	require.NoError(t, m.Replace(ctx, authors, books, time.Now()))

	hits, err := m.Search(ctx, "ancillary")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Anne Leckie", hits[0].AuthorName)

	hits, err = m.Search(ctx, "SANDERSON")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = m.Search(ctx, "way kings")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b3", hits[0].ID)

	hits, err = m.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMirror_Clear(t *testing.T) {
	m, _ := openTestMirror(t)
	ctx := context.Background()

	authors, books := Flatten(testSnapshot())
	require.NoError(t, m.Replace(ctx, authors, books, time.Now()))
	require.NoError(t, m.Clear(ctx))

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &CacheStats{}, stats)
}
