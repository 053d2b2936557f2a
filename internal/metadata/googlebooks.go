package metadata

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

const googleBooksURL = "https://www.googleapis.com/books/v1"

// GoogleBooksClient fetches book metadata from the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient
	apiKey string
}

// NewGoogleBooksClient creates a Google Books client. apiKey may be empty.
func NewGoogleBooksClient(apiKey string, opts ...ClientOption) *GoogleBooksClient {
	return &GoogleBooksClient{httpClient: newHTTPClient(googleBooksURL, opts), apiKey: apiKey}
}

func (c *GoogleBooksClient) Name() string { return "googlebooks" }

func (c *GoogleBooksClient) volumesURL(params url.Values) string {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return c.baseURL + "/volumes?" + params.Encode()
}

// LookupByISBN returns the first volume matching isbn.
func (c *GoogleBooksClient) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)

	var result volumesResponse
	if err := c.getJSON(ctx, c.volumesURL(params), &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	info := result.Items[0].VolumeInfo
	return &BookMetadata{
		Title:         info.Title,
		Authors:       nonNil(info.Authors),
		ISBN13:        info.identifier("ISBN_13"),
		ISBN10:        info.identifier("ISBN_10"),
		Publisher:     info.Publisher,
		PublishedYear: extractYear(info.PublishedDate),
		CoverURL:      upgradeCoverURL(info.ImageLinks.Thumbnail),
		Description:   info.Description,
		Subjects:      firstSubjects(info.Categories),
		PageCount:     info.PageCount,
	}, nil
}

// Search runs a free-text volumes query.
func (c *GoogleBooksClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(10))

	var result volumesResponse
	if err := c.getJSON(ctx, c.volumesURL(params), &result); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(result.Items))
	for _, item := range result.Items {
		info := item.VolumeInfo
		results = append(results, SearchResult{
			Title:         info.Title,
			Authors:       nonNil(info.Authors),
			ISBN13:        info.identifier("ISBN_13"),
			CoverURL:      upgradeCoverURL(info.ImageLinks.Thumbnail),
			PublishedYear: extractYear(info.PublishedDate),
		})
	}
	return results, nil
}

// upgradeCoverURL switches thumbnails to https and the larger zoom level.
func upgradeCoverURL(thumbnail string) string {
	if thumbnail == "" {
		return ""
	}
	return strings.Replace(strings.Replace(thumbnail, "http://", "https://", 1), "zoom=1", "zoom=2", 1)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Publisher           string   `json:"publisher"`
	PublishedDate       string   `json:"publishedDate"`
	Description         string   `json:"description"`
	PageCount           int      `json:"pageCount"`
	Categories          []string `json:"categories"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

func (v volumeInfo) identifier(kind string) string {
	for _, id := range v.IndustryIdentifiers {
		if id.Type == kind {
			return id.Identifier
		}
	}
	return ""
}
