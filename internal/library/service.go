// Package library builds the read side of a user's catalog: the full
// author/book snapshot consumed by offline clients and the aggregate stats
// shown alongside it.
//
// Authors appear only when they own at least one book and are ordered by
// name. Books inside an author are ordered by series name, series number and
// title, with books outside any series (and series entries without a number)
// placed after the numbered ones.
package library

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// AuthorStore is the author access the snapshot needs.
type AuthorStore interface {
	WithBooks(ctx context.Context, userID string) ([]entities.Author, error)
	CountWithBooks(ctx context.Context, userID string) (int64, error)
}

// BookCounter counts a user's books.
type BookCounter interface {
	Count(ctx context.Context, userID string) (int64, error)
}

// Snapshot is a complete, timestamped read of a user's catalog.
type Snapshot struct {
	SyncedAt time.Time         `json:"syncedAt"`
	Authors  []entities.Author `json:"authors"`
}

type Stats struct {
	BookCount   int64 `json:"bookCount"`
	AuthorCount int64 `json:"authorCount"`
}

// SyncResponse is the payload served to mirror clients.
type SyncResponse struct {
	Snapshot
	Stats Stats `json:"stats"`
}

type Service struct {
	authors AuthorStore
	books   BookCounter
	now     func() time.Time
}

type Option func(*Service)

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(authors AuthorStore, books BookCounter, opts ...Option) *Service {
	s := &Service{authors: authors, books: books, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot loads every author with books, each carrying its books in catalog order.
func (s *Service) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	syncedAt := s.now().UTC()

	authors, err := s.authors.WithBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load authors with books: %w", err)
	}
	if authors == nil {
		authors = []entities.Author{}
	}

	return &Snapshot{SyncedAt: syncedAt, Authors: authors}, nil
}

// Stats counts books and authors-with-books independently.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.books.Count(gctx, userID)
		if err != nil {
			return fmt.Errorf("count books: %w", err)
		}
		stats.BookCount = count
		return nil
	})
	g.Go(func() error {
		count, err := s.authors.CountWithBooks(gctx, userID)
		if err != nil {
			return fmt.Errorf("count authors: %w", err)
		}
		stats.AuthorCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Sync builds the snapshot and the stats concurrently.
func (s *Service) Sync(ctx context.Context, userID string) (*SyncResponse, error) {
	var (
		snapshot *Snapshot
		stats    Stats
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		snapshot, err = s.Snapshot(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.Stats(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &SyncResponse{Snapshot: *snapshot, Stats: stats}, nil
}
