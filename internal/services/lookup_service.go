package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjohnston82/tome-tracker1/internal/isbn"
	"github.com/sjohnston82/tome-tracker1/internal/metadata"
)

const minSearchLength = 2

// MetadataSource is the external catalog used for lookups.
type MetadataSource interface {
	LookupByISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error)
	Search(ctx context.Context, query string) ([]metadata.SearchResult, error)
}

// OwnershipChecker finds a user's book by ISBN-13.
type OwnershipChecker interface {
	CheckOwnership(ctx context.Context, userID, raw string) (*Ownership, error)
}

// LookupResult describes a scanned or typed code.
type LookupResult struct {
	IsISBN         bool                   `json:"isIsbn"`
	NormalizedISBN *string                `json:"normalizedIsbn"`
	Owned          bool                   `json:"owned"`
	BookID         *string                `json:"bookId,omitempty"`
	Metadata       *metadata.BookMetadata `json:"metadata"`
}

type LookupService struct {
	source    MetadataSource
	ownership OwnershipChecker
}

func NewLookupService(source MetadataSource, ownership OwnershipChecker) *LookupService {
	return &LookupService{source: source, ownership: ownership}
}

// Lookup extracts an ISBN from code and, if one is found, reports ownership
// and provider metadata. Metadata is nil when no provider knows the book.
func (s *LookupService) Lookup(ctx context.Context, userID, code string) (*LookupResult, error) {
	result := &LookupResult{}

	normalized, ok := isbn.ExtractFromBarcode(code)
	if !ok || !isbn.IsValidISBN13(normalized) {
		return result, nil
	}
	result.IsISBN = true
	result.NormalizedISBN = &normalized

	owned, err := s.ownership.CheckOwnership(ctx, userID, normalized)
	if err != nil {
		return nil, err
	}
	result.Owned = owned.Owned
	result.BookID = owned.BookID

	meta, err := s.source.LookupByISBN(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup: %w", err)
	}
	result.Metadata = meta
	return result, nil
}

// Search runs a free-text query against the providers.
func (s *LookupService) Search(ctx context.Context, query string) ([]metadata.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, invalid("q", fmt.Sprintf("search query must be at least %d characters", minSearchLength))
	}

	results, err := s.source.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("metadata search: %w", err)
	}
	return results, nil
}
