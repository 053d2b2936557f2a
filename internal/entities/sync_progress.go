package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeEnrichment SyncType = "enrichment"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress tracks the latest background run of one kind for one user.
type SyncProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      string     `gorm:"size:36;uniqueIndex:idx_sync_progress_user_type,priority:1" json:"userId"`
	SyncType    SyncType   `gorm:"size:50;uniqueIndex:idx_sync_progress_user_type,priority:2" json:"syncType"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	TotalItems  int        `json:"totalItems"`
	Processed   int        `json:"processed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Skipped     int        `json:"skipped"`
	CurrentItem string     `gorm:"size:512" json:"currentItem,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
