// Package authors provides database operations for the authors in a user's catalog.
//
// Authors are created implicitly when a book names them and removed once no
// book references them.
//
// # Usage
//
//	repo := authors.NewRepository(db)
//	author, err := repo.GetOrCreate(ctx, userID, "Octavia E. Butler")
package authors

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sjohnston82/tome-tracker1/internal/database"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// Summary is an author listing row.
type Summary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	PhotoURL  *string `json:"photoUrl"`
	BookCount int64   `json:"bookCount"`
}

// Repository handles author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the user's author with exactly this name, creating it
// if needed. Concurrent callers converge on the same row.
func (r *Repository) GetOrCreate(ctx context.Context, userID, name string) (*entities.Author, error) {
	return GetOrCreate(r.db.WithContext(ctx), userID, name)
}

// GetOrCreate is the transaction-friendly form of Repository.GetOrCreate.
func GetOrCreate(db *gorm.DB, userID, name string) (*entities.Author, error) {
	candidate := &entities.Author{UserID: userID, Name: name}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(candidate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert author: %w", err)
	}

	var author entities.Author
	if err := db.Where("user_id = ? AND name = ?", userID, name).First(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// GetByID returns one of the user's authors.
func (r *Repository) GetByID(ctx context.Context, userID, id string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&author).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// GetWithBooks returns an author with their books in catalog order.
func (r *Repository) GetWithBooks(ctx context.Context, userID, id string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB {
			return db.Order(database.BookOrder)
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&author).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// ListWithBookCounts lists authors that have at least one book, by name.
func (r *Repository) ListWithBookCounts(ctx context.Context, userID string) ([]Summary, error) {
	var summaries []Summary
	err := r.db.WithContext(ctx).
		Model(&entities.Author{}).
		Select("authors.id, authors.name, authors.photo_url, COUNT(books.id) AS book_count").
		Joins("JOIN books ON books.author_id = authors.id").
		Where("authors.user_id = ?", userID).
		Group("authors.id, authors.name, authors.photo_url").
		Order("authors.name ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}

// WithBooks loads every author that has books, each with books in catalog order.
func (r *Repository) WithBooks(ctx context.Context, userID string) ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB {
			return db.Order(database.BookOrder)
		}).
		Where("user_id = ?", userID).
		Where("EXISTS (SELECT 1 FROM books WHERE books.author_id = authors.id)").
		Order(database.AuthorOrder).
		Find(&authors).Error
	if err != nil {
		return nil, err
	}
	return authors, nil
}

// CountWithBooks counts authors that have at least one book.
func (r *Repository) CountWithBooks(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Author{}).
		Where("user_id = ?", userID).
		Where("EXISTS (SELECT 1 FROM books WHERE books.author_id = authors.id)").
		Count(&count).Error
	return count, err
}

// UpdateProfile writes the author's bio and photo URL.
func (r *Repository) UpdateProfile(ctx context.Context, author *entities.Author) error {
	return r.db.WithContext(ctx).
		Model(author).
		Select("bio", "photo_url", "updated_at").
		Updates(author).Error
}

// DeleteOrphans removes the user's authors that no longer have books.
func (r *Repository) DeleteOrphans(ctx context.Context, userID string) (int64, error) {
	return DeleteOrphans(r.db.WithContext(ctx), userID)
}

// DeleteOrphans is the transaction-friendly form of Repository.DeleteOrphans.
func DeleteOrphans(tx *gorm.DB, userID string) (int64, error) {
	result := tx.
		Where("user_id = ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM books WHERE books.author_id = authors.id)").
		Delete(&entities.Author{})
	return result.RowsAffected, result.Error
}
