package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
	"github.com/sjohnston82/tome-tracker1/internal/isbn"
	"github.com/sjohnston82/tome-tracker1/internal/similarity"
)

const (
	// DuplicateCheckCandidates bounds how many recent books a duplicate check scans.
	DuplicateCheckCandidates = 500
	// DuplicateCheckLimit is the number of matches a duplicate check returns.
	DuplicateCheckLimit = 5
)

// BookStore is the book persistence BookService needs.
type BookStore interface {
	CreateWithAuthor(ctx context.Context, book *entities.Book, authorName string) error
	GetByID(ctx context.Context, userID, id string) (*entities.Book, error)
	GetByISBN13(ctx context.Context, userID, isbn13 string) (*entities.Book, error)
	UpdateAndCleanup(ctx context.Context, book *entities.Book) error
	Delete(ctx context.Context, userID, id string) error
	Recent(ctx context.Context, userID string, limit int) ([]entities.Book, error)
}

// AuthorResolver upserts authors by exact name.
type AuthorResolver interface {
	GetOrCreate(ctx context.Context, userID, name string) (*entities.Author, error)
}

// CreateBookInput is a new catalog entry.
type CreateBookInput struct {
	Title           string              `json:"title" validate:"required,max=500"`
	AuthorName      string              `json:"authorName" validate:"required,max=200"`
	ISBN13          *string             `json:"isbn13"`
	ISBN10          *string             `json:"isbn10" validate:"omitempty,len=10"`
	Publisher       *string             `json:"publisher" validate:"omitempty,max=200"`
	PublicationYear *int                `json:"publicationYear" validate:"omitempty,min=1000,max=2100"`
	CoverURL        *string             `json:"coverUrl" validate:"omitempty,url"`
	SeriesName      *string             `json:"seriesName" validate:"omitempty,max=200"`
	SeriesNumber    *float64            `json:"seriesNumber" validate:"omitempty,gt=0"`
	Tags            []string            `json:"tags" validate:"max=20,dive,max=50"`
	Genres          []string            `json:"genres" validate:"max=20,dive,max=50"`
	Source          entities.BookSource `json:"source" validate:"omitempty,oneof=SCAN MANUAL IMPORT"`
}

// UpdateBookInput changes the fields that are set.
type UpdateBookInput struct {
	Title           *string   `json:"title" validate:"omitempty,min=1,max=500"`
	AuthorName      *string   `json:"authorName" validate:"omitempty,min=1,max=200"`
	ISBN13          *string   `json:"isbn13"`
	ISBN10          *string   `json:"isbn10" validate:"omitempty,len=10"`
	Publisher       *string   `json:"publisher" validate:"omitempty,max=200"`
	PublicationYear *int      `json:"publicationYear" validate:"omitempty,min=1000,max=2100"`
	CoverURL        *string   `json:"coverUrl" validate:"omitempty,url"`
	SeriesName      *string   `json:"seriesName" validate:"omitempty,max=200"`
	SeriesNumber    *float64  `json:"seriesNumber" validate:"omitempty,gt=0"`
	Tags            *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Genres          *[]string `json:"genres" validate:"omitempty,max=20,dive,max=50"`
}

// Ownership answers "do I already have this book?" for a typed or scanned code.
type Ownership struct {
	Owned          bool    `json:"owned"`
	BookID         *string `json:"bookId"`
	ValidISBN      bool    `json:"validIsbn"`
	NormalizedISBN *string `json:"normalizedIsbn,omitempty"`
}

type BookService struct {
	books   BookStore
	authors AuthorResolver
}

func NewBookService(books BookStore, authors AuthorResolver) *BookService {
	return &BookService{books: books, authors: authors}
}

// Create adds a book, creating its author if needed, in one write. An ISBN
// already in the user's catalog fails with DuplicateIdentifierError.
func (s *BookService) Create(ctx context.Context, userID string, input CreateBookInput) (*entities.Book, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.AuthorName = strings.TrimSpace(input.AuthorName)
	if err := ValidateStruct(&input); err != nil {
		return nil, err
	}
	if input.Source == "" {
		input.Source = entities.BookSourceManual
	}

	isbn13, err := normalizeISBNField(input.ISBN13)
	if err != nil {
		return nil, err
	}
	if isbn13 != nil {
		if err := s.ensureUnique(ctx, userID, *isbn13, ""); err != nil {
			return nil, err
		}
	}

	book := &entities.Book{
		UserID:          userID,
		Title:           input.Title,
		ISBN13:          isbn13,
		ISBN10:          input.ISBN10,
		Publisher:       input.Publisher,
		PublicationYear: input.PublicationYear,
		CoverURL:        input.CoverURL,
		SeriesName:      input.SeriesName,
		SeriesNumber:    input.SeriesNumber,
		Tags:            input.Tags,
		Genres:          input.Genres,
		Source:          input.Source,
	}
	if book.ISBN10 == nil {
		book.ISBN10 = derivedISBN10(isbn13)
	}

	if err := s.books.CreateWithAuthor(ctx, book, input.AuthorName); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && isbn13 != nil {
			return nil, s.duplicateError(ctx, userID, *isbn13)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

func (s *BookService) Get(ctx context.Context, userID, id string) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return book, nil
}

// Update applies the set fields. Moving a book to another author removes the
// previous author if it has no books left.
func (s *BookService) Update(ctx context.Context, userID, id string, input UpdateBookInput) (*entities.Book, error) {
	input.Title = trimmed(input.Title)
	input.AuthorName = trimmed(input.AuthorName)
	if err := ValidateStruct(&input); err != nil {
		return nil, err
	}

	book, err := s.books.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}

	if input.ISBN13 != nil {
		isbn13, err := normalizeISBNField(input.ISBN13)
		if err != nil {
			return nil, err
		}
		if isbn13 != nil && (book.ISBN13 == nil || *book.ISBN13 != *isbn13) {
			if err := s.ensureUnique(ctx, userID, *isbn13, book.ID); err != nil {
				return nil, err
			}
		}
		book.ISBN13 = isbn13
		if input.ISBN10 == nil {
			book.ISBN10 = derivedISBN10(isbn13)
		}
	}

	if input.AuthorName != nil {
		author, err := s.authors.GetOrCreate(ctx, userID, *input.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("resolve author: %w", err)
		}
		book.AuthorID = author.ID
		book.Author = author
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.ISBN10 != nil {
		book.ISBN10 = input.ISBN10
	}
	if input.Publisher != nil {
		book.Publisher = input.Publisher
	}
	if input.PublicationYear != nil {
		book.PublicationYear = input.PublicationYear
	}
	if input.CoverURL != nil {
		book.CoverURL = input.CoverURL
	}
	if input.SeriesName != nil {
		book.SeriesName = input.SeriesName
	}
	if input.SeriesNumber != nil {
		book.SeriesNumber = input.SeriesNumber
	}
	if input.Tags != nil {
		book.Tags = *input.Tags
	}
	if input.Genres != nil {
		book.Genres = *input.Genres
	}

	if err := s.books.UpdateAndCleanup(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && book.ISBN13 != nil {
			return nil, s.duplicateError(ctx, userID, *book.ISBN13)
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// Delete removes the book and its author if that was the author's last book.
func (s *BookService) Delete(ctx context.Context, userID, id string) error {
	if err := s.books.Delete(ctx, userID, id); err != nil {
		return notFound(err)
	}
	return nil
}

// CheckOwnership normalizes raw and reports whether the user owns it.
func (s *BookService) CheckOwnership(ctx context.Context, userID, raw string) (*Ownership, error) {
	code, ok := isbn.Normalize(raw)
	if !ok {
		return &Ownership{}, nil
	}

	result := &Ownership{ValidISBN: true, NormalizedISBN: &code}
	book, err := s.books.GetByISBN13(ctx, userID, code)
	if err != nil {
		return nil, fmt.Errorf("check ownership: %w", err)
	}
	if book != nil {
		result.Owned = true
		result.BookID = &book.ID
	}
	return result, nil
}

// CheckDuplicates ranks the user's most recent books against title/author.
func (s *BookService) CheckDuplicates(ctx context.Context, userID, title, authorName string) ([]similarity.Match, error) {
	title = strings.TrimSpace(title)
	authorName = strings.TrimSpace(authorName)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if authorName == "" {
		return nil, invalid("authorName", "is required")
	}

	recent, err := s.books.Recent(ctx, userID, DuplicateCheckCandidates)
	if err != nil {
		return nil, fmt.Errorf("load recent books: %w", err)
	}

	candidates := make([]similarity.Candidate, 0, len(recent))
	for _, b := range recent {
		c := similarity.Candidate{ID: b.ID, Title: b.Title}
		if b.Author != nil {
			c.Author = b.Author.Name
		}
		candidates = append(candidates, c)
	}
	return similarity.Rank(title, authorName, candidates, DuplicateCheckLimit), nil
}

func (s *BookService) ensureUnique(ctx context.Context, userID, isbn13, selfID string) error {
	existing, err := s.books.GetByISBN13(ctx, userID, isbn13)
	if err != nil {
		return fmt.Errorf("check isbn: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return &DuplicateIdentifierError{ISBN13: isbn13, ExistingBookID: existing.ID}
	}
	return nil
}

// duplicateError resolves the conflicting book after the store rejected a write.
func (s *BookService) duplicateError(ctx context.Context, userID, isbn13 string) error {
	dup := &DuplicateIdentifierError{ISBN13: isbn13}
	if existing, err := s.books.GetByISBN13(ctx, userID, isbn13); err == nil && existing != nil {
		dup.ExistingBookID = existing.ID
	}
	return dup
}

// normalizeISBNField treats an empty value as "no ISBN" and rejects anything
// that does not normalize to a valid ISBN-13.
func normalizeISBNField(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	code, ok := isbn.Normalize(*raw)
	if !ok {
		return nil, invalid("isbn13", "is not a valid ISBN")
	}
	return &code, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	return &t
}

// derivedISBN10 is the ISBN-10 form of a 978-prefixed ISBN-13, or nil.
func derivedISBN10(isbn13 *string) *string {
	if isbn13 == nil {
		return nil
	}
	if code, ok := isbn.ISBN13To10(*isbn13); ok {
		return &code
	}
	return nil
}
