package scraper

import (
	"context"
	"fmt"
	"sync"

	"techevents/eventworker/helpers"
)

// stubFetcher implements helpers.Fetcher from a fixed url -> page map and
// records every requested URL
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]*helpers.Page
	calls []string
}

var _ helpers.Fetcher = (*stubFetcher)(nil)

func newStubFetcher() *stubFetcher {
	return &stubFetcher{pages: make(map[string]*helpers.Page)}
}

func (f *stubFetcher) addPage(url, body string) {
	f.pages[url] = &helpers.Page{URL: url, StatusCode: 200, Body: []byte(body)}
}

func (f *stubFetcher) addFailure(url string, statusCode int) {
	f.pages[url] = &helpers.Page{
		URL:        url,
		StatusCode: statusCode,
		Err:        fmt.Errorf("fetch %s unexpected status code: %d", url, statusCode),
	}
}

func (f *stubFetcher) Fetch(_ context.Context, url string) *helpers.Page {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if page, ok := f.pages[url]; ok {
		return page
	}
	return &helpers.Page{URL: url, Err: fmt.Errorf("connection refused")}
}

func (f *stubFetcher) requested(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == url {
			count++
		}
	}
	return count
}
