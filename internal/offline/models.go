package offline

import (
	"time"

	"github.com/uptrace/bun"
)

// MirrorAuthor is the local projection of a catalog author.
type MirrorAuthor struct {
	bun.BaseModel `bun:"table:mirror_authors,alias:ma"`

	ID       string  `bun:"id,pk" json:"id"`
	Name     string  `bun:"name,notnull" json:"name"`
	Bio      *string `bun:"bio" json:"bio"`
	PhotoURL *string `bun:"photo_url" json:"photoUrl"`
}

// MirrorBook is the local projection of a catalog book.
type MirrorBook struct {
	bun.BaseModel `bun:"table:mirror_books,alias:mb"`

	ID           string   `bun:"id,pk" json:"id"`
	AuthorID     string   `bun:"author_id,notnull" json:"authorId"`
	Title        string   `bun:"title,notnull" json:"title"`
	ISBN13       *string  `bun:"isbn13" json:"isbn13"`
	CoverURL     *string  `bun:"cover_url" json:"coverUrl"`
	SeriesName   *string  `bun:"series_name" json:"seriesName"`
	SeriesNumber *float64 `bun:"series_number" json:"seriesNumber"`
}

// MirrorMeta holds mirror-wide values such as the last sync time.
type MirrorMeta struct {
	bun.BaseModel `bun:"table:mirror_meta,alias:mm"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// AuthorNode is an author with the mirrored books grouped under it.
type AuthorNode struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Bio      *string      `json:"bio"`
	PhotoURL *string      `json:"photoUrl"`
	Books    []MirrorBook `json:"books"`
}

// Cached is the raw content of the mirror.
type Cached struct {
	Authors  []MirrorAuthor
	Books    []MirrorBook
	LastSync *time.Time
}

type CacheStats struct {
	AuthorCount int        `json:"authorCount"`
	BookCount   int        `json:"bookCount"`
	LastSync    *time.Time `json:"lastSync"`
}

// BookHit is a search result with its author's name resolved.
type BookHit struct {
	MirrorBook
	AuthorName string `json:"authorName"`
}
