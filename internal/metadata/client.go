package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "TomeTracker/1.0"

// ClientOption configures a provider client.
type ClientOption func(*httpClient)

// WithBaseURL points the client at another host, typically a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *httpClient) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *httpClient) { c.http = client }
}

// WithLimiter replaces the request pacing limiter.
func WithLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *httpClient) { c.limiter = limiter }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *httpClient) { c.http.Timeout = timeout }
}

// WithRequestsPerSecond paces outgoing requests.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// httpClient is the paced JSON fetcher shared by the provider clients.
type httpClient struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

func newHTTPClient(baseURL string, opts []ClientOption) httpClient {
	c := httpClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON fetches url and decodes a 200 response into out. A 404 is ErrNotFound.
func (c *httpClient) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// extractYear returns the first four-digit run in a free-form date, or 0.
func extractYear(date string) int {
	match := yearPattern.FindString(date)
	if match == "" {
		return 0
	}
	year, _ := strconv.Atoi(match)
	return year
}
