package metadata

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a provider that has no record for an ISBN.
var ErrNotFound = errors.New("not found")

// BookMetadata contains book information from an external catalog.
type BookMetadata struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	ISBN13        string   `json:"isbn13,omitempty"`
	ISBN10        string   `json:"isbn10,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedYear int      `json:"publishedYear,omitempty"`
	CoverURL      string   `json:"coverUrl,omitempty"`
	Description   string   `json:"description,omitempty"`
	Subjects      []string `json:"subjects,omitempty"`
	SeriesName    string   `json:"seriesName,omitempty"`
	PageCount     int      `json:"pageCount,omitempty"`
}

// SearchResult is one hit of a free-text search.
type SearchResult struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	ISBN13        string   `json:"isbn13,omitempty"`
	CoverURL      string   `json:"coverUrl,omitempty"`
	PublishedYear int      `json:"publishedYear,omitempty"`
}

// Provider is an external book catalog.
type Provider interface {
	Name() string
	LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

const maxSubjects = 10

func firstSubjects(subjects []string) []string {
	if len(subjects) > maxSubjects {
		return subjects[:maxSubjects]
	}
	return subjects
}
