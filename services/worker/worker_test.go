package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"techevents/eventworker/internal/scraper"
	apperr "techevents/eventworker/pkg/errors"
	"techevents/eventworker/services/publisher"
)

// mockScraper implements scraper.Scraper with a canned outcome
type mockScraper struct {
	site    scraper.TargetSite
	outcome scraper.Outcome
	delay   time.Duration
	panics  bool
}

var _ scraper.Scraper = (*mockScraper)(nil)

func (m *mockScraper) Target() scraper.TargetSite { return m.site }

func (m *mockScraper) Scrape(context.Context) scraper.Outcome {
	if m.panics {
		panic("selector exploded")
	}
	// deliberately ignores cancellation so a run deadline test can rely on
	// the site staying stuck
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.outcome
}

func successScraper(name string, delay time.Duration, titles ...string) *mockScraper {
	site := scraper.TargetSite{Name: name, URL: "https://" + name + "/"}
	events := make([]scraper.Event, 0, len(titles))
	for _, title := range titles {
		events = append(events, scraper.Event{
			Title:         title,
			SourceWebsite: site.Name,
			SourceURL:     site.URL,
		})
	}
	return &mockScraper{
		site:  site,
		delay: delay,
		outcome: scraper.Outcome{
			Result: scraper.SiteResult{
				Website:     site.Name,
				URL:         site.URL,
				Status:      scraper.StatusSuccess,
				EventsCount: len(events),
			},
			Events: events,
		},
	}
}

func failedScraper(name string) *mockScraper {
	site := scraper.TargetSite{Name: name, URL: "https://" + name + "/"}
	return &mockScraper{
		site: site,
		outcome: scraper.FailedOutcome(site, apperr.NewExtractionEmpty(site.Name)),
	}
}

// mockPublisher records published messages
type mockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trimmed  bool
}

var _ publisher.Publisher = (*mockPublisher)(nil)

func newMockPublisher() *mockPublisher {
	return &mockPublisher{messages: make(map[string][][]byte)}
}

func (m *mockPublisher) Publish(website string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[website] = append(m.messages[website], message)
	return nil
}

func (m *mockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed = true
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestRunPreservesConfigurationOrder(t *testing.T) {
	// completion order is inverse of configuration order
	scrapers := []scraper.Scraper{
		successScraper("site_a", 60*time.Millisecond, "A1", "A2"),
		successScraper("site_b", 30*time.Millisecond, "B1"),
		successScraper("site_c", 0, "C1", "C2", "C3"),
	}

	report := NewWorker(scrapers, nil, 0, 0, false).Run(context.Background())

	assert.Equal(t, []string{"site_a", "site_b", "site_c"}, []string{
		report.SiteResults[0].Website,
		report.SiteResults[1].Website,
		report.SiteResults[2].Website,
	})
	titles := make([]string, 0, len(report.Events))
	for _, e := range report.Events {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"A1", "A2", "B1", "C1", "C2", "C3"}, titles)
}

func TestRunMetadata(t *testing.T) {
	scrapers := []scraper.Scraper{
		successScraper("site_a", 0, "A1", "A2", "A3"),
		failedScraper("site_b"),
		successScraper("site_c", 0, "C1", "C2"),
	}

	report := NewWorker(scrapers, nil, 0, 0, true).Run(context.Background())
	meta := report.Metadata

	assert.Equal(t, 3, meta.TotalWebsitesTargeted)
	assert.Equal(t, 2, meta.SuccessfulScrapes)
	assert.Equal(t, 1, meta.FailedScrapes)
	assert.Equal(t, meta.SuccessfulScrapes+meta.FailedScrapes, meta.TotalWebsitesTargeted)
	assert.Equal(t, 5, meta.TotalEventsFound)
	assert.Equal(t, len(report.Events), meta.TotalEventsFound)
	assert.InDelta(t, 2.5, meta.AverageEventsPerSuccessfulSite, 0.001)
	assert.True(t, meta.OpenAIKeyConfigured)
	assert.NotEmpty(t, meta.ScrapingTimestamp)
	assert.NotEmpty(t, meta.CompletionTimestamp)
}

func TestRunNoSuccessesAverageIsZero(t *testing.T) {
	scrapers := []scraper.Scraper{
		failedScraper("site_a"),
		failedScraper("site_b"),
	}

	report := NewWorker(scrapers, nil, 0, 0, false).Run(context.Background())

	assert.Equal(t, 0, report.Metadata.SuccessfulScrapes)
	assert.Equal(t, 2, report.Metadata.FailedScrapes)
	assert.Equal(t, 0.0, report.Metadata.AverageEventsPerSuccessfulSite)
}

func TestRunIsolatesPanickingSite(t *testing.T) {
	site := scraper.TargetSite{Name: "panic_site", URL: "https://panic_site/"}
	scrapers := []scraper.Scraper{
		successScraper("site_a", 0, "A1"),
		&mockScraper{site: site, panics: true},
		successScraper("site_c", 0, "C1"),
	}

	report := NewWorker(scrapers, nil, 0, 0, false).Run(context.Background())

	assert.Len(t, report.SiteResults, 3)
	assert.Equal(t, scraper.StatusSuccess, report.SiteResults[0].Status)
	assert.Equal(t, scraper.StatusFailed, report.SiteResults[1].Status)
	assert.Contains(t, report.SiteResults[1].Error, "unexpected failure")
	assert.Equal(t, scraper.StatusSuccess, report.SiteResults[2].Status)
	assert.Equal(t, 2, report.Metadata.TotalEventsFound)
}

func TestRunDeadlineAbandonsUnfinishedSites(t *testing.T) {
	scrapers := []scraper.Scraper{
		successScraper("fast_site", 0, "F1"),
		successScraper("stuck_site", 5*time.Second),
	}

	start := time.Now()
	report := NewWorker(scrapers, nil, 0, 100*time.Millisecond, false).Run(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, scraper.StatusSuccess, report.SiteResults[0].Status)
	assert.Equal(t, scraper.StatusFailed, report.SiteResults[1].Status)
	assert.Contains(t, report.SiteResults[1].Error, string(apperr.ErrorTypeTimeout))
	assert.Equal(t, 0, report.SiteResults[1].EventsCount)
	assert.Equal(t, 1, report.Metadata.TotalEventsFound)
}

func TestRunBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0

	var scrapers []scraper.Scraper
	for _, name := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		site := scraper.TargetSite{Name: name, URL: "https://" + name + "/"}
		scrapers = append(scrapers, &trackingScraper{
			site: site,
			enter: func() {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()
			},
			leave: func() {
				mu.Lock()
				active--
				mu.Unlock()
			},
		})
	}

	report := NewWorker(scrapers, nil, 2, 0, false).Run(context.Background())
	assert.Len(t, report.SiteResults, 6)
	assert.LessOrEqual(t, peak, 2)
}

type trackingScraper struct {
	site  scraper.TargetSite
	enter func()
	leave func()
}

func (s *trackingScraper) Target() scraper.TargetSite { return s.site }

func (s *trackingScraper) Scrape(ctx context.Context) scraper.Outcome {
	s.enter()
	time.Sleep(20 * time.Millisecond)
	s.leave()
	return scraper.Outcome{Result: scraper.SiteResult{
		Website: s.site.Name,
		URL:     s.site.URL,
		Status:  scraper.StatusSuccess,
	}}
}

func TestRunPublishesEvents(t *testing.T) {
	pub := newMockPublisher()
	scrapers := []scraper.Scraper{
		successScraper("site_a", 0, "A1", "A2"),
		failedScraper("site_b"),
	}

	NewWorker(scrapers, pub, 0, 0, false).Run(context.Background())

	assert.Len(t, pub.messages["site_a"], 2)
	assert.Empty(t, pub.messages["site_b"])
	assert.True(t, pub.trimmed)
}
