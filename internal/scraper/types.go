package scraper

import "context"

// Site status values reported per target
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Default extraction bounds
const (
	DefaultMaxEvents    = 30
	DefaultEnrichLimit  = 5
	DefaultMinParagraph = 30
	DefaultMaxSummary   = 200
)

// TargetSite is one configured listing page
type TargetSite struct {
	Name string
	URL  string
}

// Candidate is a pre-validation extraction result. Fields may be empty;
// Strategy records which extraction strategy produced it.
type Candidate struct {
	Title    string
	DateTime string
	Location string
	EventURL string
	Strategy string
}

// Event is a validated, normalized event record
type Event struct {
	Title         string `json:"title"`
	DateTime      string `json:"date_time"`
	Location      string `json:"location"`
	EventURL      string `json:"event_url"`
	SourceWebsite string `json:"source_website"`
	SourceURL     string `json:"source_url"`
	Summary       string `json:"summary"`
}

// SiteResult is the per-site outcome, one per configured target
type SiteResult struct {
	Website     string `json:"website"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	EventsCount int    `json:"events_count"`
	Error       string `json:"error,omitempty"`
}

// Outcome bundles a site's result with the events it contributed
type Outcome struct {
	Result SiteResult
	Events []Event
}

// Scraper runs the full pipeline for one target site
type Scraper interface {
	Target() TargetSite
	Scrape(ctx context.Context) Outcome
}
