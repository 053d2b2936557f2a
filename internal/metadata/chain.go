package metadata

import (
	"context"
	"errors"
	"log"
)

// Chain queries providers in priority order and returns the first useful
// answer. Provider failures are logged and treated as "no data".
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// NewDefaultChain tries OpenLibrary first, then Google Books.
func NewDefaultChain(googleAPIKey string, opts ...ClientOption) *Chain {
	return NewChain(NewOpenLibraryClient(opts...), NewGoogleBooksClient(googleAPIKey, opts...))
}

// LookupByISBN returns nil metadata, not an error, when no provider knows isbn.
func (c *Chain) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	for _, p := range c.providers {
		metadata, err := p.LookupByISBN(ctx, isbn)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Is(err, ErrNotFound) {
				log.Printf("[METADATA] %s lookup %s failed: %v", p.Name(), isbn, err)
			}
			continue
		}
		if metadata != nil {
			return metadata, nil
		}
	}
	return nil, nil
}

// Search returns the first non-empty result list.
func (c *Chain) Search(ctx context.Context, query string) ([]SearchResult, error) {
	for _, p := range c.providers {
		results, err := p.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[METADATA] %s search %q failed: %v", p.Name(), query, err)
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return []SearchResult{}, nil
}
