package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/sjohnston82/tome-tracker1/internal/database"
	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/database/books"
	"github.com/sjohnston82/tome-tracker1/internal/database/users"
)

type testCatalog struct {
	db      *database.Database
	books   *books.Repository
	authors *authors.Repository
	users   *users.Repository
}

func setupTestCatalog(t *testing.T) *testCatalog {
	t.Helper()
	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "catalog.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &testCatalog{
		db:      db,
		books:   books.NewRepository(db.DB),
		authors: authors.NewRepository(db.DB),
		users:   users.NewRepository(db.DB),
	}
}

func ptr[T any](v T) *T { return &v }
