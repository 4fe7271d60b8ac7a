package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is applied when no timeout is configured
const DefaultFetchTimeout = 20 * time.Second

var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

// Page is the outcome of a single fetch. A failed fetch is a Page with Err
// set; callers branch on the value, not on a returned error.
type Page struct {
	URL        string
	Body       []byte
	StatusCode int
	Err        error
}

// OK reports whether the fetch produced a usable body
func (p *Page) OK() bool {
	return p.Err == nil && len(p.Body) > 0
}

// Fetcher fetches a single page. Implementations must perform exactly one
// request per call and never retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *Page
}

// HTTPFetcher is the standard Fetcher backed by net/http
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch sends one HTTP GET with browser-like headers, converts the response
// body to UTF-8 if needed, and returns the outcome as a Page value.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) *Page {
	page := &Page{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		page.Err = fmt.Errorf("failed to create request: %w", err)
		return page
	}

	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		page.Err = fmt.Errorf("failed to fetch URL: %w", err)
		return page
	}
	defer resp.Body.Close()

	page.StatusCode = resp.StatusCode

	if resp.StatusCode == http.StatusTooManyRequests {
		page.Err = fmt.Errorf("rate limited; retry after %s", resp.Header.Get("Retry-After"))
		return page
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		page.Err = fmt.Errorf("fetch %s unexpected status code: %d", url, resp.StatusCode)
		return page
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		page.Err = fmt.Errorf("failed to read response body: %w", err)
		return page
	}

	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		page.Body = bodyBytes
		return page
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		page.Err = fmt.Errorf("failed to read converted UTF-8 body: %w", err)
		return page
	}

	page.Body = buf.Bytes()
	return page
}
