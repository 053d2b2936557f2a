package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/sjohnston82/tome-tracker1/internal/metadata"
)

// LibraryEnricher runs one enrichment batch for a user.
type LibraryEnricher interface {
	EnrichUser(ctx context.Context, userID string) (*metadata.EnrichmentResult, error)
}

// EnrichLibraryTask fills missing metadata for one user's books.
type EnrichLibraryTask struct {
	UserID string `json:"user_id"`
}

// Config returns the queue configuration for library enrichment tasks.
func (t EnrichLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_library",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichLibraryProcessor creates a processor function for EnrichLibraryTask.
// A run that finds another run in progress for the same user is a no-op.
func EnrichLibraryProcessor(enricher LibraryEnricher) backlite.QueueProcessor[EnrichLibraryTask] {
	return func(ctx context.Context, task EnrichLibraryTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}
		if task.UserID == "" {
			return fmt.Errorf("enrich library: missing user id")
		}

		result, err := enricher.EnrichUser(ctx, task.UserID)
		if errors.Is(err, metadata.ErrEnrichmentRunning) {
			log.Printf("[TASK] Enrichment already running for user %s, skipping", task.UserID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("enrich library: %w", err)
		}

		log.Printf("[TASK] Enrichment complete for user %s: %d processed, %d enriched, %d errors",
			task.UserID, result.Processed, result.Enriched, result.Errors)
		return nil
	}
}

// NewEnrichLibraryQueue creates a backlite queue for library enrichment tasks.
func NewEnrichLibraryQueue(enricher LibraryEnricher) backlite.Queue {
	return backlite.NewQueue(EnrichLibraryProcessor(enricher))
}
