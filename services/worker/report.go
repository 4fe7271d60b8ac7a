package worker

import (
	"math"
	"time"

	"techevents/eventworker/internal/scraper"
)

// Metadata describes one scrape run. Field names are a wire contract with
// downstream consumers of the report file.
type Metadata struct {
	ScrapingTimestamp              string  `json:"scraping_timestamp"`
	CompletionTimestamp            string  `json:"completion_timestamp"`
	TotalWebsitesTargeted          int     `json:"total_websites_targeted"`
	SuccessfulScrapes              int     `json:"successful_scrapes"`
	FailedScrapes                  int     `json:"failed_scrapes"`
	TotalEventsFound               int     `json:"total_events_found"`
	AverageEventsPerSuccessfulSite float64 `json:"average_events_per_successful_site"`
	OpenAIKeyConfigured            bool    `json:"openai_key_configured"`
}

// Report is the consolidated output of a run: one SiteResult per configured
// target in configuration order, and all events flattened in site order.
type Report struct {
	Metadata    Metadata             `json:"scraping_metadata"`
	SiteResults []scraper.SiteResult `json:"website_scraping_results"`
	Events      []scraper.Event      `json:"consolidated_events"`
}

// buildReport folds per-site outcomes, already in configuration order, into
// the final report
func buildReport(outcomes []scraper.Outcome, start, end time.Time, openAIConfigured bool) *Report {
	report := &Report{
		SiteResults: make([]scraper.SiteResult, 0, len(outcomes)),
		Events:      make([]scraper.Event, 0),
	}

	successful := 0
	for _, outcome := range outcomes {
		report.SiteResults = append(report.SiteResults, outcome.Result)
		report.Events = append(report.Events, outcome.Events...)
		if outcome.Result.Status == scraper.StatusSuccess {
			successful++
		}
	}

	average := 0.0
	if successful > 0 {
		average = roundTwoDecimals(float64(len(report.Events)) / float64(successful))
	}

	report.Metadata = Metadata{
		ScrapingTimestamp:              start.Format(time.RFC3339),
		CompletionTimestamp:            end.Format(time.RFC3339),
		TotalWebsitesTargeted:          len(outcomes),
		SuccessfulScrapes:              successful,
		FailedScrapes:                  len(outcomes) - successful,
		TotalEventsFound:               len(report.Events),
		AverageEventsPerSuccessfulSite: average,
		OpenAIKeyConfigured:            openAIConfigured,
	}

	return report
}

func roundTwoDecimals(v float64) float64 {
	return math.Round(v*100) / 100
}
