package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
	"github.com/sjohnston82/tome-tracker1/internal/importers"
)

// ImportBookStore is the book persistence an import writes through.
type ImportBookStore interface {
	ExistingISBNs(ctx context.Context, userID string) ([]string, error)
	CreateWithAuthor(ctx context.Context, book *entities.Book, authorName string) error
}

// CatalogImportStore adapts the book repository to importers.ImportStore.
type CatalogImportStore struct {
	books ImportBookStore
}

var _ importers.ImportStore = (*CatalogImportStore)(nil)

func NewCatalogImportStore(books ImportBookStore) *CatalogImportStore {
	return &CatalogImportStore{books: books}
}

func (s *CatalogImportStore) ExistingISBNs(ctx context.Context, userID string) ([]string, error) {
	return s.books.ExistingISBNs(ctx, userID)
}

func (s *CatalogImportStore) CreateBook(ctx context.Context, book *entities.Book, authorName string) error {
	return s.books.CreateWithAuthor(ctx, book, authorName)
}

// ExecuteRequest is a bulk import of already-parsed rows.
type ExecuteRequest struct {
	Rows    []map[string]string `json:"rows"`
	Mapping *importers.Mapping  `json:"mapping"`
	Format  string              `json:"format"`
}

// ImportService previews and runs spreadsheet imports.
type ImportService struct {
	executor *importers.Executor
}

func NewImportService(store importers.ImportStore) *ImportService {
	return &ImportService{executor: importers.NewExecutor(store)}
}

// Preview parses an upload and proposes a column mapping without writing anything.
func (s *ImportService) Preview(r io.Reader) (*importers.Preview, error) {
	table, err := parseUpload(r)
	if err != nil {
		return nil, err
	}
	preview := importers.BuildPreview(table)
	return &preview, nil
}

// Execute imports the request's rows for userID.
func (s *ImportService) Execute(ctx context.Context, userID string, req ExecuteRequest) (*importers.Result, error) {
	if req.Mapping == nil {
		return nil, invalid("mapping", "is required")
	}
	if req.Rows == nil {
		return nil, invalid("rows", "is required")
	}
	format, ok := importers.ParseFormat(req.Format)
	if !ok {
		return nil, invalid("format", fmt.Sprintf("unknown format %q", req.Format))
	}

	result, err := s.executor.Execute(ctx, userID, req.Rows, *req.Mapping, format)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return result, nil
}

// ExecuteCSV parses r and imports every data row.
func (s *ImportService) ExecuteCSV(ctx context.Context, userID string, r io.Reader, mapping *importers.Mapping, format string) (*importers.Result, error) {
	table, err := parseUpload(r)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, userID, ExecuteRequest{Rows: table.Rows, Mapping: mapping, Format: format})
}

func parseUpload(r io.Reader) (*importers.Table, error) {
	table, err := importers.ParseCSV(r)
	if err != nil {
		if errors.Is(err, importers.ErrMalformedCSV) {
			return nil, &ValidationError{Field: "csv", Message: err.Error()}
		}
		return nil, err
	}
	return table, nil
}
