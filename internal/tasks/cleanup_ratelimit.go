package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ExpiredCounterCleaner deletes rate limit windows that have already reset.
type ExpiredCounterCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CleanupRateLimitsTask removes expired rate limit counters.
type CleanupRateLimitsTask struct{}

// Config returns the queue configuration for rate limit cleanup tasks.
func (t CleanupRateLimitsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_rate_limits",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupRateLimitsProcessor creates a processor function for CleanupRateLimitsTask.
func CleanupRateLimitsProcessor(cleaner ExpiredCounterCleaner) backlite.QueueProcessor[CleanupRateLimitsTask] {
	return func(ctx context.Context, task CleanupRateLimitsTask) error {
		if cleaner == nil {
			return fmt.Errorf("rate limit cleaner not configured")
		}

		deleted, err := cleaner.DeleteExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("cleanup rate limits: %w", err)
		}

		if deleted > 0 {
			log.Printf("[TASK] Cleaned up %d expired rate limit counters", deleted)
		}
		return nil
	}
}

// NewCleanupRateLimitsQueue creates a backlite queue for rate limit cleanup tasks.
func NewCleanupRateLimitsQueue(cleaner ExpiredCounterCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupRateLimitsProcessor(cleaner))
}
