// Package ratelimit stores fixed-window rate limit counters in the catalog
// database so every server instance sharing it sees the same counts.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
	limiter "github.com/sjohnston82/tome-tracker1/internal/ratelimit"
)

var _ limiter.Store = (*Repository)(nil)

// Repository is a database-backed counter store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Increment bumps the counter for key, starting a new window when the stored
// one has expired. It returns the count after incrementing and the window end.
func (r *Repository) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	var counter entities.RateLimitCounter

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("key = ?", key).First(&counter).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			counter = entities.RateLimitCounter{Key: key, Count: 1, ResetAt: now.Add(window)}
			return tx.Create(&counter).Error
		case err != nil:
			return err
		}

		if counter.ResetAt.Before(now) {
			counter.Count = 1
			counter.ResetAt = now.Add(window)
		} else {
			counter.Count++
		}
		return tx.Save(&counter).Error
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return counter.Count, counter.ResetAt, nil
}

// DeleteExpired removes windows that ended before now.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("reset_at < ?", now).Delete(&entities.RateLimitCounter{})
	return result.RowsAffected, result.Error
}
