// Package offline keeps a local copy of a user's catalog so it can be browsed
// without a connection to the server.
//
// The mirror is a small SQLite database written only by its own client
// process. Every successful sync replaces its whole content in one
// transaction; readers see either the previous mirror or the new one.
package offline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	lastSyncKey     = "lastSync"
	insertBatchSize = 500
	bookOrder       = "series_name IS NULL, series_name ASC, series_number IS NULL, series_number ASC, title ASC"
)

// Mirror is the local catalog copy.
type Mirror struct {
	db *bun.DB
}

// OpenMirror opens (creating if needed) the mirror database at path.
func OpenMirror(ctx context.Context, path string) (*Mirror, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open mirror database: %w", err)
	}
	// One connection keeps pragmas in effect and serializes writers.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	m := &Mirror{db: db}
	if err := m.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mirror) migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	for _, model := range []any{(*MirrorAuthor)(nil), (*MirrorBook)(nil), (*MirrorMeta)(nil)} {
		if _, err := m.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create mirror table: %w", err)
		}
	}

	indexes := []struct{ name, column string }{
		{"idx_mirror_books_author", "author_id"},
		{"idx_mirror_books_isbn13", "isbn13"},
	}
	for _, idx := range indexes {
		_, err := m.db.NewCreateIndex().
			Model((*MirrorBook)(nil)).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

// Replace swaps the mirror content for authors and books and records syncedAt
// as the last sync time. Nothing changes if any step fails.
func (m *Mirror) Replace(ctx context.Context, authors []MirrorAuthor, books []MirrorBook, syncedAt time.Time) error {
	return m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*MirrorBook)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear books: %w", err)
		}
		if _, err := tx.NewDelete().Model((*MirrorAuthor)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear authors: %w", err)
		}

		for start := 0; start < len(authors); start += insertBatchSize {
			chunk := authors[start:min(start+insertBatchSize, len(authors))]
			if _, err := tx.NewInsert().Model(&chunk).Exec(ctx); err != nil {
				return fmt.Errorf("insert authors: %w", err)
			}
		}
		for start := 0; start < len(books); start += insertBatchSize {
			chunk := books[start:min(start+insertBatchSize, len(books))]
			if _, err := tx.NewInsert().Model(&chunk).Exec(ctx); err != nil {
				return fmt.Errorf("insert books: %w", err)
			}
		}

		meta := &MirrorMeta{
			Key:       lastSyncKey,
			Value:     syncedAt.UTC().Format(time.RFC3339Nano),
			UpdatedAt: time.Now().UTC(),
		}
		_, err := tx.NewInsert().Model(meta).
			On("CONFLICT (key) DO UPDATE").
			Set("value = EXCLUDED.value").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("record last sync: %w", err)
		}
		return nil
	})
}

// Load returns everything in the mirror. LastSync is nil for a mirror that
// has never been synced or was cleared.
func (m *Mirror) Load(ctx context.Context) (*Cached, error) {
	cached := &Cached{Authors: []MirrorAuthor{}, Books: []MirrorBook{}}

	if err := m.db.NewSelect().Model(&cached.Authors).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	if err := m.db.NewSelect().Model(&cached.Books).OrderExpr(bookOrder).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	lastSync, err := m.lastSync(ctx)
	if err != nil {
		return nil, err
	}
	cached.LastSync = lastSync
	return cached, nil
}

func (m *Mirror) lastSync(ctx context.Context) (*time.Time, error) {
	meta := &MirrorMeta{Key: lastSyncKey}
	if err := m.db.NewSelect().Model(meta).WherePK().Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load last sync: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, meta.Value)
	if err != nil {
		return nil, fmt.Errorf("parse last sync %q: %w", meta.Value, err)
	}
	return &ts, nil
}

// Tree rebuilds the author/book hierarchy from the mirror.
func (m *Mirror) Tree(ctx context.Context) ([]AuthorNode, *time.Time, error) {
	cached, err := m.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return BuildTree(cached.Authors, cached.Books), cached.LastSync, nil
}

// IsOwned reports whether a mirrored book has this ISBN-13.
func (m *Mirror) IsOwned(ctx context.Context, isbn13 string) (bool, error) {
	return m.db.NewSelect().Model((*MirrorBook)(nil)).Where("isbn13 = ?", isbn13).Exists(ctx)
}

// Search matches query against book titles and author names, ignoring case
// and diacritics and tolerating skipped characters. Closer matches come first.
func (m *Mirror) Search(ctx context.Context, query string) ([]BookHit, error) {
	cached, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}

	authorNames := make(map[string]string, len(cached.Authors))
	for _, a := range cached.Authors {
		authorNames[a.ID] = a.Name
	}

	titles := make([]string, len(cached.Books))
	names := make([]string, len(cached.Books))
	for i, b := range cached.Books {
		titles[i] = b.Title
		names[i] = authorNames[b.AuthorID]
	}

	best := make(map[int]int)
	for _, ranks := range []fuzzy.Ranks{
		fuzzy.RankFindNormalizedFold(query, titles),
		fuzzy.RankFindNormalizedFold(query, names),
	} {
		for _, r := range ranks {
			if d, ok := best[r.OriginalIndex]; !ok || r.Distance < d {
				best[r.OriginalIndex] = r.Distance
			}
		}
	}

	hits := make([]BookHit, 0, len(best))
	order := make([]int, 0, len(best))
	for idx := range best {
		order = append(order, idx)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := best[order[i]], best[order[j]]
		if di != dj {
			return di < dj
		}
		return order[i] < order[j]
	})
	for _, idx := range order {
		book := cached.Books[idx]
		hits = append(hits, BookHit{MirrorBook: book, AuthorName: authorNames[book.AuthorID]})
	}
	return hits, nil
}

func (m *Mirror) Stats(ctx context.Context) (*CacheStats, error) {
	authorCount, err := m.db.NewSelect().Model((*MirrorAuthor)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count authors: %w", err)
	}
	bookCount, err := m.db.NewSelect().Model((*MirrorBook)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	lastSync, err := m.lastSync(ctx)
	if err != nil {
		return nil, err
	}
	return &CacheStats{AuthorCount: authorCount, BookCount: bookCount, LastSync: lastSync}, nil
}

// Clear empties the mirror, including the last sync time.
func (m *Mirror) Clear(ctx context.Context) error {
	return m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{(*MirrorBook)(nil), (*MirrorAuthor)(nil), (*MirrorMeta)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return fmt.Errorf("clear mirror: %w", err)
			}
		}
		return nil
	})
}
