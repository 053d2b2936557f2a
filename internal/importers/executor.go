package importers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
	"github.com/sjohnston82/tome-tracker1/internal/isbn"
)

// MissingFieldsMessage is recorded for rows without a title or author.
const MissingFieldsMessage = "Missing required fields (title or author)"

// ImportStore is the persistence the Executor needs.
type ImportStore interface {
	ExistingISBNs(ctx context.Context, userID string) ([]string, error)
	// CreateBook saves book under the named author, creating the author if
	// needed. A failed save leaves no new author behind.
	CreateBook(ctx context.Context, book *entities.Book, authorName string) error
}

// RowError describes why a single row was not imported. Row is 1-based.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result summarizes one import batch.
type Result struct {
	Imported   int        `json:"imported"`
	Duplicates int        `json:"duplicates"`
	Errors     []RowError `json:"errors"`
}

// Executor writes mapped rows into a user's catalog.
type Executor struct {
	store ImportStore
}

func NewExecutor(store ImportStore) *Executor {
	return &Executor{store: store}
}

// Execute imports rows in order. The only error it returns is a failure to
// load the user's existing ISBNs; per-row failures are collected in the
// Result and never stop the batch.
func (e *Executor) Execute(ctx context.Context, userID string, rows []map[string]string, mapping Mapping, format Format) (*Result, error) {
	existing, err := e.store.ExistingISBNs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing ISBNs: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(rows))
	for _, code := range existing {
		seen[code] = struct{}{}
	}

	result := &Result{Errors: []RowError{}}
	for i, record := range rows {
		rowNum := i + 1
		outcome, err := e.importRow(ctx, userID, record, mapping, format, seen)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Error: err.Error()})
			continue
		}
		switch outcome {
		case rowImported:
			result.Imported++
		case rowDuplicate:
			result.Duplicates++
		}
	}

	log.Printf("[IMPORT] user=%s format=%s rows=%d imported=%d duplicates=%d errors=%d",
		userID, format, len(rows), result.Imported, result.Duplicates, len(result.Errors))
	return result, nil
}

type rowOutcome int

const (
	rowImported rowOutcome = iota
	rowDuplicate
)

func (e *Executor) importRow(ctx context.Context, userID string, record map[string]string, mapping Mapping, format Format, seen map[string]struct{}) (outcome rowOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	row, ok := ApplyMapping(record, mapping)
	if !ok {
		return 0, errors.New(MissingFieldsMessage)
	}

	if format == FormatGoodreads {
		applySeries(row)
	}

	var isbn13 *string
	if row.ISBN != nil {
		if code, ok := isbn.Normalize(*row.ISBN); ok {
			isbn13 = &code
		}
	}

	if isbn13 != nil {
		if _, dup := seen[*isbn13]; dup {
			return rowDuplicate, nil
		}
	}

	book := &entities.Book{
		UserID:          userID,
		Title:           row.Title,
		ISBN13:          isbn13,
		Publisher:       row.Publisher,
		PublicationYear: row.PublicationYear,
		SeriesName:      row.SeriesName,
		SeriesNumber:    row.SeriesNumber,
		Tags:            []string{},
		Genres:          []string{},
		Source:          entities.BookSourceImport,
	}
	if isbn13 != nil {
		if code10, ok := isbn.ISBN13To10(*isbn13); ok {
			book.ISBN10 = &code10
		}
	}

	if err := e.store.CreateBook(ctx, book, row.Author); err != nil {
		return 0, fmt.Errorf("failed to save book: %w", err)
	}

	if isbn13 != nil {
		seen[*isbn13] = struct{}{}
	}
	return rowImported, nil
}
