package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sjohnston82/tome-tracker1/internal/database/books"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// ErrEnrichmentRunning is returned when the user already has a run in progress.
var ErrEnrichmentRunning = errors.New("enrichment already in progress")

// ISBNLookup resolves an ISBN to metadata; nil metadata means unknown.
type ISBNLookup interface {
	LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

// BookUpdater is the catalog access the enricher needs.
type BookUpdater interface {
	MissingMetadata(ctx context.Context, userID string, limit int) ([]entities.Book, error)
	UpdateMetadata(ctx context.Context, id string, fields books.MetadataFields) error
}

// ProgressReporter reports run progress per user.
type ProgressReporter interface {
	StartSync(userID string, totalItems int) error
	UpdateProgress(userID string, processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(userID string, succeeded bool, errorMsg string) error
	IsSyncRunning(userID string) (bool, error)
}

// EnrichmentResult summarizes one run.
type EnrichmentResult struct {
	Processed int `json:"processed"`
	Enriched  int `json:"enriched"`
	Errors    int `json:"errors"`
}

// EnricherConfig bounds how much work a run does.
type EnricherConfig struct {
	BatchSize int
	Delay     time.Duration
}

func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{BatchSize: 20, Delay: 500 * time.Millisecond}
}

// Enricher fills missing catalog fields from external metadata.
type Enricher struct {
	lookup           ISBNLookup
	db               BookUpdater
	config           EnricherConfig
	progressReporter ProgressReporter
}

func NewEnricher(lookup ISBNLookup, db BookUpdater, cfg EnricherConfig) *Enricher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEnricherConfig().BatchSize
	}
	return &Enricher{lookup: lookup, db: db, config: cfg}
}

// SetProgressReporter sets the progress reporter (optional).
func (e *Enricher) SetProgressReporter(reporter ProgressReporter) {
	e.progressReporter = reporter
}

// EnrichUser processes one batch of the user's books that have an ISBN but
// lack a cover or publisher. Only empty fields are filled. Lookup and update
// failures count as errors and do not stop the batch.
func (e *Enricher) EnrichUser(ctx context.Context, userID string) (*EnrichmentResult, error) {
	if e.progressReporter != nil {
		running, err := e.progressReporter.IsSyncRunning(userID)
		if err != nil {
			return nil, fmt.Errorf("check sync status: %w", err)
		}
		if running {
			return nil, ErrEnrichmentRunning
		}
	}

	pending, err := e.db.MissingMetadata(ctx, userID, e.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("get books missing metadata: %w", err)
	}

	if e.progressReporter != nil {
		if err := e.progressReporter.StartSync(userID, len(pending)); err != nil {
			return nil, fmt.Errorf("start sync progress: %w", err)
		}
	}

	result := &EnrichmentResult{}
	for i, book := range pending {
		if i > 0 && !e.pause(ctx) {
			e.complete(userID, false, "operation cancelled")
			return result, ctx.Err()
		}

		result.Processed++
		enriched, err := e.enrichBook(ctx, &book)
		switch {
		case err != nil:
			result.Errors++
			log.Printf("[ENRICH] book %s: %v", book.ID, err)
		case enriched:
			result.Enriched++
		}

		if e.progressReporter != nil {
			_ = e.progressReporter.UpdateProgress(userID, result.Processed, result.Enriched, result.Errors,
				result.Processed-result.Enriched-result.Errors, book.Title)
		}
	}

	errorMsg := ""
	if result.Errors > 0 {
		errorMsg = fmt.Sprintf("%d errors occurred", result.Errors)
	}
	e.complete(userID, result.Errors == 0, errorMsg)

	return result, nil
}

func (e *Enricher) pause(ctx context.Context) bool {
	if e.config.Delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(e.config.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Enricher) complete(userID string, succeeded bool, errorMsg string) {
	if e.progressReporter != nil {
		_ = e.progressReporter.CompleteSync(userID, succeeded, errorMsg)
	}
}

func (e *Enricher) enrichBook(ctx context.Context, book *entities.Book) (bool, error) {
	if book.ISBN13 == nil {
		return false, nil
	}

	metadata, err := e.lookup.LookupByISBN(ctx, *book.ISBN13)
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	if metadata == nil {
		return false, nil
	}

	updates, changed := buildUpdates(book, metadata)
	if !changed {
		return false, nil
	}
	if err := e.db.UpdateMetadata(ctx, book.ID, updates); err != nil {
		return false, fmt.Errorf("update book metadata: %w", err)
	}
	return true, nil
}

// buildUpdates picks the metadata values for fields the book has not set.
func buildUpdates(book *entities.Book, metadata *BookMetadata) (books.MetadataFields, bool) {
	var updates books.MetadataFields
	changed := false

	if book.CoverURL == nil && metadata.CoverURL != "" {
		updates.CoverURL = &metadata.CoverURL
		changed = true
	}
	if book.Publisher == nil && metadata.Publisher != "" {
		updates.Publisher = &metadata.Publisher
		changed = true
	}
	if book.PublicationYear == nil && metadata.PublishedYear > 0 {
		updates.PublicationYear = &metadata.PublishedYear
		changed = true
	}
	if len(book.Genres) == 0 && len(metadata.Subjects) > 0 {
		updates.Genres = firstSubjects(metadata.Subjects)
		changed = true
	}

	return updates, changed
}
