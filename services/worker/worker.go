package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"techevents/eventworker/internal/scraper"
	"techevents/eventworker/logger"
	apperr "techevents/eventworker/pkg/errors"
	"techevents/eventworker/services/publisher"
)

// Worker runs all site scrapers with bounded concurrency and folds their
// outcomes into one report. Site failures never propagate: a panicking or
// abandoned site becomes a failed SiteResult and the run completes.
type Worker struct {
	scrapers         []scraper.Scraper
	publisher        publisher.Publisher
	concurrency      int
	deadline         time.Duration
	openAIConfigured bool
	log              *logger.Logger
}

// NewWorker creates a worker. concurrency <= 0 means one goroutine per site;
// deadline <= 0 means no overall deadline. pub may be nil.
func NewWorker(
	scrapers []scraper.Scraper,
	pub publisher.Publisher,
	concurrency int,
	deadline time.Duration,
	openAIConfigured bool,
) *Worker {
	return &Worker{
		scrapers:         scrapers,
		publisher:        pub,
		concurrency:      concurrency,
		deadline:         deadline,
		openAIConfigured: openAIConfigured,
		log:              logger.ForWorker(),
	}
}

// outcomeSlot collects one site's outcome. The first fill wins so late
// completions of abandoned sites are discarded.
type outcomeSlot struct {
	mu      sync.Mutex
	filled  bool
	outcome scraper.Outcome
}

func (s *outcomeSlot) fill(o scraper.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled {
		return
	}
	s.filled = true
	s.outcome = o
}

func (s *outcomeSlot) get() scraper.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Run scrapes every configured site and returns the consolidated report.
// Events keep configuration order regardless of completion order.
func (w *Worker) Run(ctx context.Context) *Report {
	start := time.Now()

	if w.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.deadline)
		defer cancel()
	}

	n := len(w.scrapers)
	w.log.Info().Int("sites", n).Msg("Starting scrape run")

	limit := w.concurrency
	if limit <= 0 || limit > n {
		limit = n
	}

	slots := make([]outcomeSlot, n)
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, s := range w.scrapers {
		wg.Add(1)
		go func(i int, s scraper.Scraper) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					w.log.Error().Interface("panic", r).Str("website", s.Target().Name).Msg("Site scraper panicked")
					slots[i].fill(scraper.FailedOutcome(s.Target(), fmt.Errorf("unexpected failure: %v", r)))
				}
			}()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				slots[i].fill(scraper.FailedOutcome(s.Target(), apperr.NewTimeout(s.Target().Name)))
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				slots[i].fill(scraper.FailedOutcome(s.Target(), apperr.NewTimeout(s.Target().Name)))
				return
			}

			slots[i].fill(s.Scrape(ctx))
		}(i, s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.log.Warn().Dur("deadline", w.deadline).Msg("Run deadline reached, abandoning unfinished sites")
		// Mark every unfinished slot failed; in-flight scrapes that finish
		// later are discarded by the slot.
		for i := range slots {
			slots[i].fill(scraper.FailedOutcome(w.scrapers[i].Target(), apperr.NewTimeout(w.scrapers[i].Target().Name)))
		}
	}

	outcomes := make([]scraper.Outcome, n)
	for i := range slots {
		outcomes[i] = slots[i].get()
	}

	w.publishEvents(outcomes)

	report := buildReport(outcomes, start, time.Now(), w.openAIConfigured)

	w.log.Info().
		Int("successful", report.Metadata.SuccessfulScrapes).
		Int("failed", report.Metadata.FailedScrapes).
		Int("events", report.Metadata.TotalEventsFound).
		Float64("avg_per_site", report.Metadata.AverageEventsPerSuccessfulSite).
		Msg("Scrape run complete")

	return report
}

// publishEvents pushes every scraped event to the publisher when one is
// configured. Publish failures are logged and do not affect the report.
func (w *Worker) publishEvents(outcomes []scraper.Outcome) {
	if w.publisher == nil {
		return
	}

	for _, outcome := range outcomes {
		for _, event := range outcome.Events {
			data, err := json.Marshal(event)
			if err != nil {
				w.log.Error().Err(err).Str("website", event.SourceWebsite).Msg("Failed to marshal event")
				continue
			}
			if err := w.publisher.Publish(event.SourceWebsite, data); err != nil {
				w.log.Error().Err(apperr.NewPublisher(event.SourceWebsite, "failed to publish event", err)).Msg("Publish failed")
			}
		}
	}

	if err := w.publisher.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("Failed to trim streams")
	}
}
