package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
	"github.com/sjohnston82/tome-tracker1/internal/metadata"
)

// EnrichmentQueue schedules an enrichment run in the background.
type EnrichmentQueue interface {
	EnqueueEnrichLibrary(ctx context.Context, userID string) (string, error)
}

// EnrichmentRunner runs one enrichment batch synchronously.
type EnrichmentRunner interface {
	EnrichUser(ctx context.Context, userID string) (*metadata.EnrichmentResult, error)
}

type MissingMetadataCounter interface {
	CountMissingMetadata(ctx context.Context, userID string) (int64, error)
}

type ProgressReader interface {
	GetSyncProgress(userID string) (*entities.SyncProgress, error)
}

type EnrichmentStatus struct {
	NeedsEnrichment int64                  `json:"needsEnrichment"`
	CanEnrich       bool                   `json:"canEnrich"`
	LastRun         *entities.SyncProgress `json:"lastRun,omitempty"`
}

// TriggerResult is either a queued task or the result of an inline run.
type TriggerResult struct {
	Queued bool                       `json:"queued"`
	TaskID string                     `json:"taskId,omitempty"`
	Result *metadata.EnrichmentResult `json:"result,omitempty"`
}

type EnrichmentService struct {
	runner   EnrichmentRunner
	queue    EnrichmentQueue
	books    MissingMetadataCounter
	progress ProgressReader
}

// NewEnrichmentService wires enrichment. queue may be nil, in which case
// Trigger runs the batch on the caller's goroutine.
func NewEnrichmentService(runner EnrichmentRunner, queue EnrichmentQueue, books MissingMetadataCounter, progress ProgressReader) *EnrichmentService {
	return &EnrichmentService{runner: runner, queue: queue, books: books, progress: progress}
}

func (s *EnrichmentService) Trigger(ctx context.Context, userID string) (*TriggerResult, error) {
	if s.queue != nil {
		taskID, err := s.queue.EnqueueEnrichLibrary(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("queue enrichment: %w", err)
		}
		return &TriggerResult{Queued: true, TaskID: taskID}, nil
	}

	result, err := s.runner.EnrichUser(ctx, userID)
	if err != nil {
		if errors.Is(err, metadata.ErrEnrichmentRunning) {
			return nil, err
		}
		return nil, fmt.Errorf("enrich library: %w", err)
	}
	return &TriggerResult{Result: result}, nil
}

// Status reports how many books still lack metadata and the last run.
func (s *EnrichmentService) Status(ctx context.Context, userID string) (*EnrichmentStatus, error) {
	count, err := s.books.CountMissingMetadata(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count books missing metadata: %w", err)
	}

	status := &EnrichmentStatus{NeedsEnrichment: count, CanEnrich: count > 0}
	if s.progress != nil {
		lastRun, err := s.progress.GetSyncProgress(userID)
		switch {
		case err == nil:
			status.LastRun = lastRun
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load enrichment progress: %w", err)
		}
	}
	return status, nil
}
