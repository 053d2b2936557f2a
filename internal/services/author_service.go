package services

import (
	"context"
	"fmt"

	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// AuthorStore is the author persistence AuthorService needs.
type AuthorStore interface {
	ListWithBookCounts(ctx context.Context, userID string) ([]authors.Summary, error)
	GetWithBooks(ctx context.Context, userID, id string) (*entities.Author, error)
	GetByID(ctx context.Context, userID, id string) (*entities.Author, error)
	UpdateProfile(ctx context.Context, author *entities.Author) error
}

// UpdateAuthorInput replaces the author's profile fields. Nil clears a field.
type UpdateAuthorInput struct {
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	PhotoURL *string `json:"photoUrl" validate:"omitempty,url"`
}

type AuthorService struct {
	authors AuthorStore
}

func NewAuthorService(authors AuthorStore) *AuthorService {
	return &AuthorService{authors: authors}
}

// List returns the authors that have books, with their book counts.
func (s *AuthorService) List(ctx context.Context, userID string) ([]authors.Summary, error) {
	list, err := s.authors.ListWithBookCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return list, nil
}

// Get returns the author with books in catalog order.
func (s *AuthorService) Get(ctx context.Context, userID, id string) (*entities.Author, error) {
	author, err := s.authors.GetWithBooks(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return author, nil
}

func (s *AuthorService) UpdateProfile(ctx context.Context, userID, id string, input UpdateAuthorInput) (*entities.Author, error) {
	if err := ValidateStruct(&input); err != nil {
		return nil, err
	}

	author, err := s.authors.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}

	author.Bio = input.Bio
	author.PhotoURL = input.PhotoURL
	if err := s.authors.UpdateProfile(ctx, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}
	return author, nil
}
