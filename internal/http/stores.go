package http

import (
	"context"
	"io"

	"github.com/mikestefanello/backlite"

	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
	"github.com/sjohnston82/tome-tracker1/internal/importers"
	"github.com/sjohnston82/tome-tracker1/internal/library"
	"github.com/sjohnston82/tome-tracker1/internal/metadata"
	"github.com/sjohnston82/tome-tracker1/internal/services"
	"github.com/sjohnston82/tome-tracker1/internal/similarity"
)

// Each controller depends only on the operations it calls. The services
// package provides the production implementations.

// BookManager is used by BooksController and LibraryController.
type BookManager interface {
	Create(ctx context.Context, userID string, input services.CreateBookInput) (*entities.Book, error)
	Get(ctx context.Context, userID, id string) (*entities.Book, error)
	Update(ctx context.Context, userID, id string, input services.UpdateBookInput) (*entities.Book, error)
	Delete(ctx context.Context, userID, id string) error
	CheckOwnership(ctx context.Context, userID, raw string) (*services.Ownership, error)
	CheckDuplicates(ctx context.Context, userID, title, authorName string) ([]similarity.Match, error)
}

// AuthorManager is used by AuthorsController.
type AuthorManager interface {
	List(ctx context.Context, userID string) ([]authors.Summary, error)
	Get(ctx context.Context, userID, id string) (*entities.Author, error)
	UpdateProfile(ctx context.Context, userID, id string, input services.UpdateAuthorInput) (*entities.Author, error)
}

// Importer is used by ImportController.
type Importer interface {
	Preview(r io.Reader) (*importers.Preview, error)
	Execute(ctx context.Context, userID string, req services.ExecuteRequest) (*importers.Result, error)
	ExecuteCSV(ctx context.Context, userID string, r io.Reader, mapping *importers.Mapping, format string) (*importers.Result, error)
}

// LibrarySyncer is used by LibraryController.
type LibrarySyncer interface {
	Sync(ctx context.Context, userID string) (*library.SyncResponse, error)
}

// MetadataLookup is used by LookupController.
type MetadataLookup interface {
	Lookup(ctx context.Context, userID, code string) (*services.LookupResult, error)
	Search(ctx context.Context, query string) ([]metadata.SearchResult, error)
}

// EnrichmentManager is used by EnrichmentController.
type EnrichmentManager interface {
	Trigger(ctx context.Context, userID string) (*services.TriggerResult, error)
	Status(ctx context.Context, userID string) (*services.EnrichmentStatus, error)
}

// AccountDeleter is used by AccountController.
type AccountDeleter interface {
	Delete(ctx context.Context, userID string) error
}

// TaskStatusReader is used by TasksController.
type TaskStatusReader interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
