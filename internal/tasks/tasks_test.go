package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sjohnston82/tome-tracker1/internal/metadata"
)

func TestEnrichLibraryProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		process := EnrichLibraryProcessor(&recordingEnricher{})
		assert.NoError(t, process(ctx, EnrichLibraryTask{UserID: "u1"}))
	})

	t.Run("already running is not a failure", func(t *testing.T) {
		process := EnrichLibraryProcessor(&recordingEnricher{err: metadata.ErrEnrichmentRunning})
		assert.NoError(t, process(ctx, EnrichLibraryTask{UserID: "u1"}))
	})

	t.Run("enricher error", func(t *testing.T) {
		process := EnrichLibraryProcessor(&recordingEnricher{err: errors.New("provider down")})
		assert.ErrorContains(t, process(ctx, EnrichLibraryTask{UserID: "u1"}), "provider down")
	})

	t.Run("missing user", func(t *testing.T) {
		process := EnrichLibraryProcessor(&recordingEnricher{})
		assert.Error(t, process(ctx, EnrichLibraryTask{}))
	})

	t.Run("not configured", func(t *testing.T) {
		process := EnrichLibraryProcessor(nil)
		assert.Error(t, process(ctx, EnrichLibraryTask{UserID: "u1"}))
	})
}

type fakeCleaner struct {
	deleted  int64
	err      error
	calledAt time.Time
}

func (f *fakeCleaner) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.calledAt = now
	return f.deleted, f.err
}

func TestCleanupRateLimitsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 4}
	process := CleanupRateLimitsProcessor(cleaner)

	assert.NoError(t, process(context.Background(), CleanupRateLimitsTask{}))
	assert.False(t, cleaner.calledAt.IsZero())

	cleaner.err = errors.New("locked")
	assert.ErrorContains(t, process(context.Background(), CleanupRateLimitsTask{}), "locked")

	assert.Error(t, CleanupRateLimitsProcessor(nil)(context.Background(), CleanupRateLimitsTask{}))
}

func TestCleanupRateLimitsTaskConfig(t *testing.T) {
	cfg := CleanupRateLimitsTask{}.Config()
	assert.Equal(t, "cleanup_rate_limits", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
}
