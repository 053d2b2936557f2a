package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	openLibraryURL = "https://openlibrary.org"
	coversURL      = "https://covers.openlibrary.org"
	maxAuthorRefs  = 5
)

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient
}

// NewOpenLibraryClient creates an OpenLibrary client paced to one request per second.
func NewOpenLibraryClient(opts ...ClientOption) *OpenLibraryClient {
	return &OpenLibraryClient{httpClient: newHTTPClient(openLibraryURL, opts)}
}

func (c *OpenLibraryClient) Name() string { return "openlibrary" }

// LookupByISBN reads the edition record for isbn and resolves its author names.
func (c *OpenLibraryClient) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	var edition openLibraryEdition
	if err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, url.PathEscape(isbn)), &edition); err != nil {
		return nil, err
	}

	metadata := &BookMetadata{
		Title:         edition.Title,
		Authors:       c.fetchAuthorNames(ctx, edition.Authors),
		PublishedYear: extractYear(edition.PublishDate),
		Subjects:      firstSubjects(edition.Subjects),
		PageCount:     edition.NumberOfPages,
	}

	switch len(isbn) {
	case 13:
		metadata.ISBN13 = isbn
	case 10:
		metadata.ISBN10 = isbn
	}
	if len(edition.Publishers) > 0 {
		metadata.Publisher = edition.Publishers[0]
	}
	if len(edition.Covers) > 0 && edition.Covers[0] > 0 {
		metadata.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", coversURL, edition.Covers[0])
	}
	if len(edition.Series) > 0 {
		metadata.SeriesName = edition.Series[0]
	}

	switch v := edition.Description.(type) {
	case string:
		metadata.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			metadata.Description = val
		}
	}

	return metadata, nil
}

// fetchAuthorNames resolves up to five author references concurrently,
// keeping their order and dropping any that fail.
func (c *OpenLibraryClient) fetchAuthorNames(ctx context.Context, refs []authorRef) []string {
	if len(refs) > maxAuthorRefs {
		refs = refs[:maxAuthorRefs]
	}

	names := make([]string, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			if ref.Key == "" {
				return nil
			}
			var author struct {
				Name string `json:"name"`
			}
			if err := c.getJSON(ctx, fmt.Sprintf("%s%s.json", c.baseURL, ref.Key), &author); err == nil {
				names[i] = author.Name
			}
			return nil
		})
	}
	_ = g.Wait()

	resolved := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			resolved = append(resolved, name)
		}
	}
	return resolved
}

// Search runs a free-text query against the OpenLibrary search index.
func (c *OpenLibraryClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "10")
	params.Set("fields", "title,author_name,isbn,cover_i,first_publish_year")

	var result openLibrarySearchResult
	if err := c.getJSON(ctx, c.baseURL+"/search.json?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(result.Docs))
	for _, doc := range result.Docs {
		hit := SearchResult{
			Title:         doc.Title,
			Authors:       doc.AuthorName,
			PublishedYear: doc.FirstPublishYear,
		}
		if hit.Authors == nil {
			hit.Authors = []string{}
		}
		for _, code := range doc.ISBN {
			if len(strings.TrimSpace(code)) == 13 {
				hit.ISBN13 = code
				break
			}
		}
		if doc.CoverI != 0 {
			hit.CoverURL = fmt.Sprintf("%s/b/id/%d-M.jpg", coversURL, doc.CoverI)
		}
		results = append(results, hit)
	}
	return results, nil
}

// OpenLibrary API response types (internal)

type openLibraryEdition struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"` // Can be string or {type, value}
	Subjects      []string    `json:"subjects"`
	Covers        []int       `json:"covers"`
	Series        []string    `json:"series"`
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
}
