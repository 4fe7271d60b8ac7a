package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"techevents/eventworker/helpers"
	"techevents/eventworker/logger"
	apperr "techevents/eventworker/pkg/errors"
	"techevents/eventworker/services/cache"
)

// SiteScraperConfig configures a single site pipeline
type SiteScraperConfig struct {
	Site      TargetSite
	Fetcher   helpers.Fetcher
	Extractor *Extractor
	Enricher  *Enricher
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Delay     time.Duration
}

// SiteScraper drives fetch, extract, normalize and enrich for one target
// site. Every failure kind is converted into a tagged failed SiteResult; a
// Scrape call never returns an error and never panics outward.
type SiteScraper struct {
	site      TargetSite
	fetcher   helpers.Fetcher
	extractor *Extractor
	enricher  *Enricher
	cacheSvc  cache.CacheService
	blockTime time.Duration
	delay     time.Duration
	log       *logger.Logger
}

// NewSiteScraper creates a scraper for one target site
func NewSiteScraper(cfg SiteScraperConfig) *SiteScraper {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = NewExtractor(DefaultMaxEvents)
	}
	return &SiteScraper{
		site:      cfg.Site,
		fetcher:   cfg.Fetcher,
		extractor: extractor,
		enricher:  cfg.Enricher,
		cacheSvc:  cfg.CacheSvc,
		blockTime: cfg.BlockTime,
		delay:     cfg.Delay,
		log:       logger.ForScraper(cfg.Site.Name),
	}
}

// Target returns the configured target site
func (s *SiteScraper) Target() TargetSite {
	return s.site
}

// Scrape runs the full pipeline for the site. The configured delay is
// applied before returning on every path to throttle the aggregate request
// rate against the host.
func (s *SiteScraper) Scrape(ctx context.Context) Outcome {
	defer sleepContext(ctx, s.delay)

	s.log.Info().Str("url", s.site.URL).Msg("Scraping site")

	if s.blocked() {
		return s.failed(apperr.NewNetwork(s.site.Name, "host blocked after rate limiting", nil))
	}

	page := s.fetcher.Fetch(ctx, s.site.URL)
	if !page.OK() {
		if page.StatusCode == http.StatusTooManyRequests {
			s.block()
		}
		return s.failed(apperr.NewNetwork(s.site.Name, "failed to fetch listing page", page.Err))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return s.failed(apperr.NewParsing(s.site.Name, "failed to parse listing page", err))
	}

	candidates := s.extractor.Extract(doc)
	if len(candidates) == 0 {
		return s.failed(apperr.NewExtractionEmpty(s.site.Name))
	}
	s.log.Debug().
		Int("candidates", len(candidates)).
		Str("strategy", candidates[0].Strategy).
		Msg("Extracted candidates")

	events := make([]Event, 0, len(candidates))
	for _, candidate := range candidates {
		if event := Normalize(candidate, s.site); event != nil {
			events = append(events, *event)
		}
	}

	if s.enricher != nil && len(events) > 0 {
		s.enricher.EnrichAll(ctx, events)
	}

	s.log.Info().Int("events", len(events)).Msg("Site scraped")

	return Outcome{
		Result: SiteResult{
			Website:     s.site.Name,
			URL:         s.site.URL,
			Status:      StatusSuccess,
			EventsCount: len(events),
		},
		Events: events,
	}
}

func (s *SiteScraper) failed(reason error) Outcome {
	s.log.Warn().Err(reason).Msg("Site scrape failed")
	return Outcome{
		Result: SiteResult{
			Website: s.site.Name,
			URL:     s.site.URL,
			Status:  StatusFailed,
			Error:   reason.Error(),
		},
	}
}

// FailedOutcome builds the failed outcome for a site that never completed,
// e.g. one abandoned at the run deadline
func FailedOutcome(site TargetSite, reason error) Outcome {
	return Outcome{
		Result: SiteResult{
			Website: site.Name,
			URL:     site.URL,
			Status:  StatusFailed,
			Error:   reason.Error(),
		},
	}
}

func (s *SiteScraper) blockKey() string {
	return s.site.Name + "_rate_limited"
}

// blocked reports whether a previous 429 put the host on cooldown
func (s *SiteScraper) blocked() bool {
	if s.cacheSvc == nil {
		return false
	}
	_, err := s.cacheSvc.Get(s.blockKey())
	return err == nil
}

func (s *SiteScraper) block() {
	if s.cacheSvc == nil || s.blockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(s.blockTime.Seconds())))
	if err := s.cacheSvc.Set(s.blockKey(), value, s.blockTime); err != nil {
		s.log.Warn().Err(err).Msg("Failed to set rate limit block")
	}
}
