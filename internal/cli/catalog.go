package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm/logger"

	"github.com/sjohnston82/tome-tracker1/internal/database"
	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/database/books"
	"github.com/sjohnston82/tome-tracker1/internal/database/users"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// localCatalog is the server database opened directly by a CLI command.
type localCatalog struct {
	db      *database.Database
	books   *books.Repository
	authors *authors.Repository
	users   *users.Repository
}

func openCatalog(path string) (*localCatalog, error) {
	db, err := database.NewDatabaseWithOptions(path, database.Options{LogLevel: logger.Silent})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return &localCatalog{
		db:      db,
		books:   books.NewRepository(db.DB),
		authors: authors.NewRepository(db.DB),
		users:   users.NewRepository(db.DB),
	}, nil
}

func (c *localCatalog) Close() error {
	return c.db.Close()
}

// user resolves username, creating it when missing.
func (c *localCatalog) user(ctx context.Context, username string) (*entities.User, error) {
	user, err := c.users.EnsureUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", username, err)
	}
	return user, nil
}
