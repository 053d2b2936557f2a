// Package sync provides database operations for background run progress.
//
// This package implements the ProgressReporter interface used by the metadata enricher.
//
// # Interface Implementation
//
//	var _ metadata.ProgressReporter = (*Repository)(nil)
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	err := repo.StartSync(userID, 20)
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// staleAfter is how long a running record may go without updates before it
// is considered abandoned.
const staleAfter = 10 * time.Minute

// Repository handles sync progress rows of one type.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
}

// NewRepository creates a sync repository for enrichment runs.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, syncType: entities.SyncTypeEnrichment}
}

// NewRepositoryWithType creates a sync repository for a specific sync type.
func NewRepositoryWithType(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType}
}

func (r *Repository) scope(userID string) *gorm.DB {
	return r.db.Model(&entities.SyncProgress{}).Where("user_id = ? AND sync_type = ?", userID, r.syncType)
}

// GetSyncProgress retrieves the user's latest run, or gorm.ErrRecordNotFound.
func (r *Repository) GetSyncProgress(userID string) (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.Where("user_id = ? AND sync_type = ?", userID, r.syncType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartSync creates or resets the user's progress record.
func (r *Repository) StartSync(userID string, totalItems int) error {
	var progress entities.SyncProgress
	result := r.db.Where("user_id = ? AND sync_type = ?", userID, r.syncType).First(&progress)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.SyncProgress{
			UserID:     userID,
			SyncType:   r.syncType,
			Status:     entities.SyncStatusRunning,
			TotalItems: totalItems,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return r.db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	progress.Status = entities.SyncStatusRunning
	progress.TotalItems = totalItems
	progress.Processed = 0
	progress.Succeeded = 0
	progress.Failed = 0
	progress.Skipped = 0
	progress.CurrentItem = ""
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return r.db.Save(&progress).Error
}

// UpdateProgress records the counters of an ongoing run.
func (r *Repository) UpdateProgress(userID string, processed, succeeded, failed, skipped int, currentItem string) error {
	return r.scope(userID).Updates(map[string]any{
		"processed":    processed,
		"succeeded":    succeeded,
		"failed":       failed,
		"skipped":      skipped,
		"current_item": currentItem,
		"updated_at":   time.Now(),
	}).Error
}

// CompleteSync marks the user's run as completed or failed.
func (r *Repository) CompleteSync(userID string, succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	if !succeeded {
		status = entities.SyncStatusFailed
	}

	updates := map[string]any{
		"status":       status,
		"current_item": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.scope(userID).Updates(updates).Error
}

// IsSyncRunning reports whether the user has a run in progress. A running
// record that has not been touched recently is marked failed instead.
func (r *Repository) IsSyncRunning(userID string) (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("user_id = ? AND sync_type = ? AND status = ?", userID, r.syncType, entities.SyncStatusRunning).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-staleAfter)) {
		_ = r.CompleteSync(userID, false, "sync was interrupted")
		return false, nil
	}

	return true, nil
}
