package http

import (
	"github.com/sjohnston82/tome-tracker1/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Version string

	// Health
	Database Pinger

	// Identity
	AuthMiddleware *auth.Middleware

	// Catalog
	Books      BookManager
	Authors    AuthorManager
	Importer   Importer
	Library    LibrarySyncer
	Lookup     MetadataLookup
	Enrichment EnrichmentManager
	Accounts   AccountDeleter

	// Rate limiting; nil disables throttling.
	RateLimiter RateLimiter

	// Background tasks; nil when the task queue is disabled.
	TaskStatus TaskStatusReader
}
