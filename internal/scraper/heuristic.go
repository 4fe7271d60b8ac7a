package scraper

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"techevents/eventworker/helpers"
)

// Containers the selector chain cannot reach: class-less repeating rows,
// mostly tables and plain sections.
const heuristicRowSelector = "tr, section, dl"

// dateTokenRegex recognizes month names, numeric dates, years and times of
// day. A row without any date-looking token is treated as page chrome.
var dateTokenRegex = regexp.MustCompile(
	`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}` +
		`|\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b` +
		`|\b20\d{2}\b` +
		`|\b\d{1,2}:\d{2}\b`)

var locationKeywordRegex = regexp.MustCompile(
	`(?i)\b(online|virtual|venue|room|hall|center|centre|campus|hotel|conference|theater|theatre|arena|street|avenue)\b`)

// minHeuristicRowText keeps the scan away from empty spacer rows
const minHeuristicRowText = 15

// heuristicStrategy scans generic repeating container elements and
// classifies fields positionally: the first heading-like text is the title,
// the first date-looking cell is the date, the first cell naming a venue is
// the location.
type heuristicStrategy struct{}

func (h *heuristicStrategy) Name() string { return "heuristic_text" }

func (h *heuristicStrategy) Extract(doc *goquery.Document) []Candidate {
	var candidates []Candidate
	doc.Find(heuristicRowSelector).Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("nav, header, footer").Length() > 0 {
			return
		}
		// Nested containers would double-count their rows
		if sel.Find(heuristicRowSelector).Length() > 0 {
			return
		}
		text := helpers.CollapseWhitespace(sel.Text())
		if len(text) < minHeuristicRowText || !dateTokenRegex.MatchString(text) {
			return
		}
		if c, ok := rowCandidate(sel, text); ok {
			candidates = append(candidates, c)
		}
	})
	return candidates
}

func rowCandidate(sel *goquery.Selection, rowText string) (Candidate, bool) {
	title := prominentText(sel)
	if len([]rune(title)) < minTitleLength || dateTokenRegex.FindString(title) == title {
		return Candidate{}, false
	}

	date := firstMatchingPart(sel, dateTokenRegex)
	if date == "" {
		date = dateTokenRegex.FindString(rowText)
	}

	return Candidate{
		Title:    title,
		DateTime: date,
		Location: firstMatchingPart(sel, locationKeywordRegex),
		EventURL: firstLinkHref(sel),
	}, true
}

// prominentText returns the first heading-like text in the row
func prominentText(sel *goquery.Selection) string {
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6", "th", "strong", "b", "a", "dt", "td", "span"} {
		if text := helpers.CollapseWhitespace(sel.Find(tag).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstMatchingPart returns the text of the first sub-element matching the
// pattern
func firstMatchingPart(sel *goquery.Selection, pattern *regexp.Regexp) string {
	var match string
	sel.Find("td, dd, span, time, div, p, em").EachWithBreak(func(_ int, part *goquery.Selection) bool {
		text := helpers.CollapseWhitespace(part.Text())
		if text != "" && pattern.MatchString(text) {
			match = text
			return false
		}
		return true
	})
	return match
}
