package library

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/sjohnston82/tome-tracker1/internal/database"
	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/database/books"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*Service, *authors.Repository, *books.Repository) {
	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "library.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	authorRepo := authors.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)
	return NewService(authorRepo, bookRepo, WithClock(func() time.Time { return fixedNow })), authorRepo, bookRepo
}

func ptr[T any](v T) *T { return &v }

func addBook(t *testing.T, authorRepo *authors.Repository, bookRepo *books.Repository, userID, author, title string, series *string, number *float64) {
	a, err := authorRepo.GetOrCreate(context.Background(), userID, author)
	require.NoError(t, err)
	require.NoError(t, bookRepo.Create(context.Background(), &entities.Book{
		UserID:       userID,
		AuthorID:     a.ID,
		Title:        title,
		SeriesName:   series,
		SeriesNumber: number,
		Source:       entities.BookSourceManual,
	}))
}

func titles(author entities.Author) []string {
	out := make([]string, 0, len(author.Books))
	for _, b := range author.Books {
		out = append(out, b.Title)
	}
	return out
}

func TestSnapshot_Ordering(t *testing.T) {
	svc, authorRepo, bookRepo := setupTestService(t)
	ctx := context.Background()

	addBook(t, authorRepo, bookRepo, "u1", "Brandon Sanderson", "Warbreaker", nil, nil)
	addBook(t, authorRepo, bookRepo, "u1", "Brandon Sanderson", "Words of Radiance", ptr("Stormlight"), ptr(2.0))
	addBook(t, authorRepo, bookRepo, "u1", "Brandon Sanderson", "The Way of Kings", ptr("Stormlight"), ptr(1.0))
	addBook(t, authorRepo, bookRepo, "u1", "Brandon Sanderson", "Edgedancer", ptr("Stormlight"), nil)
	addBook(t, authorRepo, bookRepo, "u1", "Brandon Sanderson", "Elantris", nil, nil)
	addBook(t, authorRepo, bookRepo, "u1", "Brandon Sanderson", "Mistborn", ptr("Mistborn"), ptr(1.0))
	addBook(t, authorRepo, bookRepo, "u1", "Anne Leckie", "Ancillary Justice", nil, nil)
	addBook(t, authorRepo, bookRepo, "u2", "Someone Else", "Not Mine", nil, nil)

	_, err := authorRepo.GetOrCreate(ctx, "u1", "Author Without Books")
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, fixedNow, snapshot.SyncedAt)
	require.Len(t, snapshot.Authors, 2)
	assert.Equal(t, "Anne Leckie", snapshot.Authors[0].Name)
	assert.Equal(t, "Brandon Sanderson", snapshot.Authors[1].Name)

	// Named series first, numbered entries before unnumbered, then standalone titles.
	assert.Equal(t, []string{
		"Mistborn",
		"The Way of Kings",
		"Words of Radiance",
		"Edgedancer",
		"Elantris",
		"Warbreaker",
	}, titles(snapshot.Authors[1]))
}

func TestSnapshot_EmptyCatalog(t *testing.T) {
	svc, _, _ := setupTestService(t)

	snapshot, err := svc.Snapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Authors)
	assert.Empty(t, snapshot.Authors)
}

func TestStats(t *testing.T) {
	svc, authorRepo, bookRepo := setupTestService(t)

	addBook(t, authorRepo, bookRepo, "u1", "Ursula K. Le Guin", "The Dispossessed", nil, nil)
	addBook(t, authorRepo, bookRepo, "u1", "Ursula K. Le Guin", "A Wizard of Earthsea", ptr("Earthsea"), ptr(1.0))
	addBook(t, authorRepo, bookRepo, "u1", "Octavia E. Butler", "Kindred", nil, nil)
	_, err := authorRepo.GetOrCreate(context.Background(), "u1", "Orphan")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Stats{BookCount: 3, AuthorCount: 2}, stats)
}

func TestSync_JSONShape(t *testing.T) {
	svc, authorRepo, bookRepo := setupTestService(t)
	addBook(t, authorRepo, bookRepo, "u1", "Ted Chiang", "Exhalation", nil, nil)

	resp, err := svc.Sync(context.Background(), "u1")
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "syncedAt")
	assert.Contains(t, decoded, "authors")
	assert.Equal(t, map[string]any{"bookCount": float64(1), "authorCount": float64(1)}, decoded["stats"])
}

type failingCounter struct{}

func (failingCounter) Count(ctx context.Context, userID string) (int64, error) {
	return 0, errors.New("disk I/O error")
}

func TestSync_PropagatesErrors(t *testing.T) {
	_, authorRepo, _ := setupTestService(t)
	svc := NewService(authorRepo, failingCounter{})

	_, err := svc.Sync(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count books")
}
