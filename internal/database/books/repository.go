// Package books provides database operations for the books in a user's catalog.
//
// Every query is scoped by user ID; a book belonging to another user is
// indistinguishable from a missing one.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByISBN13(ctx, userID, "9780765311788")
package books

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// MetadataFields are the columns enrichment is allowed to fill.
type MetadataFields struct {
	CoverURL        *string
	Publisher       *string
	PublicationYear *int
	Genres          []string
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book. A second book with the same ISBN-13 for the same
// user fails with gorm.ErrDuplicatedKey.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(book).Error
}

// CreateWithAuthor resolves the author by name and inserts the book in one
// transaction. If the insert fails, an author created for it is rolled back.
func (r *Repository) CreateWithAuthor(ctx context.Context, book *entities.Book, authorName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := authors.GetOrCreate(tx, book.UserID, authorName)
		if err != nil {
			return err
		}
		book.AuthorID = author.ID
		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return err
		}
		book.Author = author
		return nil
	})
}

// GetByID returns one of the user's books with its author.
func (r *Repository) GetByID(ctx context.Context, userID, id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND user_id = ?", id, userID).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN13 returns the user's book with this ISBN-13, or nil if none.
func (r *Repository) GetByISBN13(ctx context.Context, userID, isbn13 string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND isbn13 = ?", userID, isbn13).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update saves every column of the book. Associations are left alone.
func (r *Repository) Update(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(book).Error
}

// UpdateAndCleanup saves the book and then drops authors left without books,
// in one transaction. Used when a book moves to a different author.
func (r *Repository) UpdateAndCleanup(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(book).Error; err != nil {
			return err
		}
		_, err := authors.DeleteOrphans(tx, book.UserID)
		return err
	})
}

// Delete removes a book and any author it leaves without books.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Book{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		_, err := authors.DeleteOrphans(tx, userID)
		return err
	})
}

// ExistingISBNs returns every non-null ISBN-13 in the user's catalog.
func (r *Repository) ExistingISBNs(ctx context.Context, userID string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("user_id = ? AND isbn13 IS NOT NULL", userID).
		Pluck("isbn13", &codes).Error
	return codes, err
}

// Recent returns the user's newest books with authors loaded.
func (r *Repository) Recent(ctx context.Context, userID string, limit int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

const missingMetadata = "isbn13 IS NOT NULL AND (cover_url IS NULL OR publisher IS NULL)"

// MissingMetadata returns up to limit books that have an ISBN but lack a
// cover or publisher.
func (r *Repository) MissingMetadata(ctx context.Context, userID string, limit int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(missingMetadata).
		Order("created_at ASC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

// CountMissingMetadata counts the books MissingMetadata would consider.
func (r *Repository) CountMissingMetadata(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("user_id = ?", userID).
		Where(missingMetadata).
		Count(&count).Error
	return count, err
}

// UpdateMetadata writes the non-nil fields. Nothing is written when all are nil.
func (r *Repository) UpdateMetadata(ctx context.Context, id string, fields MetadataFields) error {
	var columns []string
	values := entities.Book{}
	if fields.CoverURL != nil {
		values.CoverURL = fields.CoverURL
		columns = append(columns, "cover_url")
	}
	if fields.Publisher != nil {
		values.Publisher = fields.Publisher
		columns = append(columns, "publisher")
	}
	if fields.PublicationYear != nil {
		values.PublicationYear = fields.PublicationYear
		columns = append(columns, "publication_year")
	}
	if fields.Genres != nil {
		values.Genres = fields.Genres
		columns = append(columns, "genres")
	}
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entities.Book{ID: id}).Select(columns).Updates(&values).Error
}

// Count returns the number of books in the user's catalog.
func (r *Repository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
