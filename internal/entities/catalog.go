package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookSource string

const (
	BookSourceScan   BookSource = "SCAN"
	BookSourceManual BookSource = "MANUAL"
	BookSourceImport BookSource = "IMPORT"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"-"` // API token, hidden from JSON
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Author names are unique per user and matched case-sensitively.
type Author struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_authors_user_name,priority:1" json:"userId"`
	Name      string    `gorm:"size:200;not null;uniqueIndex:idx_authors_user_name,priority:2" json:"name"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	PhotoURL  *string   `gorm:"size:2048" json:"photoUrl"`
	Books     []Book    `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// The (user_id, isbn13) index only collides on non-null ISBNs.
type Book struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"size:36;not null;index;uniqueIndex:idx_books_user_isbn13,priority:1" json:"userId"`
	AuthorID        string     `gorm:"size:36;not null;index" json:"authorId"`
	Title           string     `gorm:"size:500;not null" json:"title"`
	ISBN13          *string    `gorm:"column:isbn13;size:13;uniqueIndex:idx_books_user_isbn13,priority:2" json:"isbn13"`
	ISBN10          *string    `gorm:"column:isbn10;size:10" json:"isbn10"`
	Publisher       *string    `gorm:"size:200" json:"publisher"`
	PublicationYear *int       `json:"publicationYear"`
	CoverURL        *string    `gorm:"size:2048" json:"coverUrl"`
	SeriesName      *string    `gorm:"size:200" json:"seriesName"`
	SeriesNumber    *float64   `json:"seriesNumber"`
	Tags            []string   `gorm:"serializer:json;type:text" json:"tags"`
	Genres          []string   `gorm:"serializer:json;type:text" json:"genres"`
	Source          BookSource `gorm:"size:10;not null" json:"source"`
	Author          *Author    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Book) BeforeSave(tx *gorm.DB) error {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	return nil
}

// RateLimitCounter is one fixed window for a rate limit key.
type RateLimitCounter struct {
	Key       string    `gorm:"primaryKey;size:200" json:"key"`
	Count     int       `json:"count"`
	ResetAt   time.Time `gorm:"index" json:"resetAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
