package scraper

import (
	"bytes"
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"techevents/eventworker/helpers"
	"techevents/eventworker/logger"
)

// Enricher fills event summaries by visiting individual event pages. Only
// the first Limit events of a site are enriched to bound request volume;
// fetches for the same site never overlap and are spaced by Delay.
type Enricher struct {
	fetcher      helpers.Fetcher
	limit        int
	delay        time.Duration
	minParagraph int
	maxSummary   int
	log          *logger.Logger
}

// NewEnricher creates an enricher with the given per-site record limit and
// inter-request delay
func NewEnricher(fetcher helpers.Fetcher, limit int, delay time.Duration) *Enricher {
	if limit < 0 {
		limit = DefaultEnrichLimit
	}
	return &Enricher{
		fetcher:      fetcher,
		limit:        limit,
		delay:        delay,
		minParagraph: DefaultMinParagraph,
		maxSummary:   DefaultMaxSummary,
		log:          logger.ForEnricher(),
	}
}

// EnrichAll fills the summary of the first bounded subset of events in
// place. Enrichment failures are non-fatal; the summary stays empty.
func (e *Enricher) EnrichAll(ctx context.Context, events []Event) {
	limit := e.limit
	if limit > len(events) {
		limit = len(events)
	}
	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			if !sleepContext(ctx, e.delay) {
				return
			}
		}
		events[i].Summary = e.summarize(ctx, events[i].EventURL)
	}
}

func (e *Enricher) summarize(ctx context.Context, eventURL string) string {
	if eventURL == "" {
		return ""
	}

	page := e.fetcher.Fetch(ctx, eventURL)
	if !page.OK() {
		e.log.Debug().Str("url", eventURL).Err(page.Err).Msg("Event page fetch failed")
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		e.log.Debug().Str("url", eventURL).Err(err).Msg("Event page parse failed")
		return ""
	}

	return ExtractSummary(doc, e.minParagraph, e.maxSummary)
}

// ExtractSummary derives a short description from an event page: the meta
// description, then og:description, then the first paragraph whose collapsed
// text is at least minLen characters. The result is capped at maxLen.
func ExtractSummary(doc *goquery.Document, minLen, maxLen int) string {
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if text := helpers.CollapseWhitespace(content); text != "" {
			return helpers.Truncate(text, maxLen)
		}
	}

	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if text := helpers.CollapseWhitespace(content); text != "" {
			return helpers.Truncate(text, maxLen)
		}
	}

	var summary string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := helpers.CollapseWhitespace(sel.Text())
		if len(text) >= minLen {
			summary = text
			return false
		}
		return true
	})
	return helpers.Truncate(summary, maxLen)
}

// sleepContext waits for d or until ctx is done; returns false when
// cancelled
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
