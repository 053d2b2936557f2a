package tasks

import (
	"path/filepath"
	"strings"
	"time"
)

// Config sizes the worker pool. Retry and timeout policy lives on each task
// type's QueueConfig.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// ReleaseAfter returns a claimed task to the queue when its worker
	// has not finished it in time.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks past their retention are purged.
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

// withDefaults fills zero or negative fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = def.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	return c
}

// QueuePath places the queue database next to the catalog database:
// "data/tome.db" becomes "data/tome-tasks.db".
func QueuePath(catalogPath string) string {
	ext := filepath.Ext(catalogPath)
	return strings.TrimSuffix(catalogPath, ext) + "-tasks" + ext
}
