package scraper

import (
	"github.com/PuerkitoBio/goquery"
)

// Strategy is one self-contained extraction technique tried against a
// listing page
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document) []Candidate
}

// Extractor applies an ordered strategy chain to a listing page. Strategies
// are tried in sequence and the first one that yields at least one candidate
// wins; later strategies are not attempted for that document.
type Extractor struct {
	strategies []Strategy
	maxEvents  int
}

// NewExtractor creates the default chain: structured data, then CSS
// selectors, then the heuristic row scan.
func NewExtractor(maxEvents int) *Extractor {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Extractor{
		strategies: []Strategy{
			&structuredStrategy{},
			&selectorStrategy{},
			&heuristicStrategy{},
		},
		maxEvents: maxEvents,
	}
}

// Extract returns the candidates of the first successful strategy, capped at
// the configured maximum and tagged with the strategy name.
func (e *Extractor) Extract(doc *goquery.Document) []Candidate {
	for _, strategy := range e.strategies {
		candidates := strategy.Extract(doc)
		if len(candidates) == 0 {
			continue
		}
		if len(candidates) > e.maxEvents {
			candidates = candidates[:e.maxEvents]
		}
		for i := range candidates {
			candidates[i].Strategy = strategy.Name()
		}
		return candidates
	}
	return nil
}
