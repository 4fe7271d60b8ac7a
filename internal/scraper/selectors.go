package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"techevents/eventworker/helpers"
)

// Selector patterns for event clusters, most specific first. The chain stops
// at the first pattern that matches at least one usable cluster.
var clusterSelectors = []string{
	".event", ".event-item", ".event-card", ".event-listing",
	".upcoming-event", ".conference-item", ".meetup-item",
	"article", ".post", ".card", ".listing",
	"[class*='event']", "[class*='conference']", "[class*='meetup']",
	".item", ".entry", "li",
}

// Per-field fallback chains, tried in order until one yields text
var (
	headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

	titleSelectors = []string{
		".title", ".event-title", ".name", ".event-name",
		"[class*='title']", "[class*='name']", ".heading",
	}

	dateSelectors = []string{
		".date", ".time", ".datetime", ".when",
		"[class*='date']", "[class*='time']", "[class*='when']",
		".event-date", ".event-time",
	}

	locationSelectors = []string{
		".location", ".venue", ".place", ".where",
		"[class*='location']", "[class*='venue']", "[class*='place']",
		".event-location", ".event-venue",
	}
)

// minClusterText filters out sparse chrome elements when matching clusters
const minClusterText = 10

// minTitleLength rejects junk titles like bullets or single glyphs
const minTitleLength = 3

// selectorStrategy extracts events by trying increasingly generic CSS
// selector patterns for event clusters, skipping navigation chrome.
type selectorStrategy struct{}

func (s *selectorStrategy) Name() string { return "css_selectors" }

func (s *selectorStrategy) Extract(doc *goquery.Document) []Candidate {
	for _, selector := range clusterSelectors {
		clusters := usableClusters(doc, selector)
		if len(clusters) == 0 {
			continue
		}
		// First pattern with matching clusters wins, even if some clusters
		// are later dropped for missing titles.
		var candidates []Candidate
		for _, cluster := range clusters {
			if c, ok := clusterCandidate(cluster); ok {
				candidates = append(candidates, c)
			}
		}
		return candidates
	}
	return nil
}

// usableClusters returns elements matching selector that are not inside
// navigation chrome and carry a minimum amount of text
func usableClusters(doc *goquery.Document, selector string) []*goquery.Selection {
	var clusters []*goquery.Selection
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("nav, header, footer").Length() > 0 {
			return
		}
		if len(strings.TrimSpace(sel.Text())) <= minClusterText {
			return
		}
		clusters = append(clusters, sel)
	})
	return clusters
}

func clusterCandidate(sel *goquery.Selection) (Candidate, bool) {
	title := extractTitle(sel)
	if len([]rune(title)) < minTitleLength {
		return Candidate{}, false
	}
	return Candidate{
		Title:    title,
		DateTime: firstSelectorText(sel, dateSelectors),
		Location: firstSelectorText(sel, locationSelectors),
		EventURL: firstLinkHref(sel),
	}, true
}

// extractTitle tries heading tags, then title-like classes, then the first
// link's text
func extractTitle(sel *goquery.Selection) string {
	for _, tag := range headingTags {
		if text := helpers.CollapseWhitespace(sel.Find(tag).First().Text()); text != "" {
			return text
		}
	}
	if text := firstSelectorText(sel, titleSelectors); text != "" {
		return text
	}
	return helpers.CollapseWhitespace(sel.Find("a").First().Text())
}

func firstSelectorText(sel *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := helpers.CollapseWhitespace(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstLinkHref(sel *goquery.Selection) string {
	href, _ := sel.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href)
}
