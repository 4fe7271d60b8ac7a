package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	assert.NoError(t, err)
	return doc
}

const structuredHTML = `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {
      "@type": "Event",
      "name": "AI Builders Meetup",
      "startDate": "2026-03-12T18:00",
      "location": {"@type": "Place", "name": "Tech Hub Tel Aviv"},
      "url": "https://example.com/events/ai-builders"
    },
    {
      "@type": "BusinessEvent",
      "name": "Cloud Expo",
      "startDate": "2026-04-01",
      "location": "Excel London"
    },
    {"@type": "Organization", "name": "Not An Event"}
  ]
}
</script>
</head><body>
<ul>
  <li class="event"><h3>Selector Fallback Event</h3><span class="date">May 5, 2026</span></li>
</ul>
</body></html>`

const selectorHTML = `<html><body>
<nav>
  <ul>
    <li class="event">Navigation entry that is long enough to pass the text filter</li>
  </ul>
</nav>
<div class="events">
  <div class="event">
    <h3>DevOps Days Madrid</h3>
    <span class="date">June 2, 2026</span>
    <span class="venue">Palacio Municipal</span>
    <a href="/events/devops-days">Details</a>
  </div>
  <div class="event">
    <div class="title">Kubernetes Community Day</div>
    <a href="https://example.org/kcd">Register</a>
  </div>
  <div class="event">
    <a href="/events/link-only">Link Only Conference 2026</a>
  </div>
  <div class="event">
    <span>No title anywhere in this cluster, just filler text</span>
  </div>
</div>
</body></html>`

const heuristicHTML = `<html><body>
<table>
  <tr>
    <td><b>GopherCon Denver</b></td>
    <td>March 12, 2026</td>
    <td>Colorado Convention Center</td>
    <td><a href="/events/gophercon">more</a></td>
  </tr>
  <tr>
    <td><b>Rust Summit</b></td>
    <td>14.07.2026</td>
    <td>Online</td>
  </tr>
  <tr>
    <td>row without any schedule token</td>
  </tr>
</table>
</body></html>`

func TestStrategyOrderStructuredFirst(t *testing.T) {
	// Both JSON-LD and selector clusters are present; structured data wins
	candidates := NewExtractor(0).Extract(docFromString(t, structuredHTML))
	assert.Len(t, candidates, 2)
	assert.Equal(t, "structured_data", candidates[0].Strategy)
	assert.Equal(t, "AI Builders Meetup", candidates[0].Title)
	assert.Equal(t, "2026-03-12T18:00", candidates[0].DateTime)
	assert.Equal(t, "Tech Hub Tel Aviv", candidates[0].Location)
	assert.Equal(t, "https://example.com/events/ai-builders", candidates[0].EventURL)
	assert.Equal(t, "Cloud Expo", candidates[1].Title)
	assert.Equal(t, "Excel London", candidates[1].Location)
}

func TestStrategyOrderSelectorsSecond(t *testing.T) {
	candidates := NewExtractor(0).Extract(docFromString(t, selectorHTML))
	assert.NotEmpty(t, candidates)
	assert.Equal(t, "css_selectors", candidates[0].Strategy)
}

func TestStrategyOrderHeuristicLast(t *testing.T) {
	// No JSON-LD and no selector-matchable clusters: the first two
	// strategies yield nothing and the heuristic row scan is used
	candidates := NewExtractor(0).Extract(docFromString(t, heuristicHTML))
	assert.Len(t, candidates, 2)
	assert.Equal(t, "heuristic_text", candidates[0].Strategy)
	assert.Equal(t, "GopherCon Denver", candidates[0].Title)
	assert.Equal(t, "March 12, 2026", candidates[0].DateTime)
	assert.Equal(t, "Colorado Convention Center", candidates[0].Location)
	assert.Equal(t, "/events/gophercon", candidates[0].EventURL)
	assert.Equal(t, "Rust Summit", candidates[1].Title)
	assert.Equal(t, "Online", candidates[1].Location)
}

func TestSelectorStrategyFields(t *testing.T) {
	candidates := (&selectorStrategy{}).Extract(docFromString(t, selectorHTML))

	// The title-less cluster is dropped, the nav cluster is filtered out
	assert.Len(t, candidates, 3)

	assert.Equal(t, "DevOps Days Madrid", candidates[0].Title)
	assert.Equal(t, "June 2, 2026", candidates[0].DateTime)
	assert.Equal(t, "Palacio Municipal", candidates[0].Location)
	assert.Equal(t, "/events/devops-days", candidates[0].EventURL)

	// Title class fallback when no heading exists
	assert.Equal(t, "Kubernetes Community Day", candidates[1].Title)

	// Link text is the last title fallback
	assert.Equal(t, "Link Only Conference 2026", candidates[2].Title)
}

func TestExtractorCapsCandidates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><ul>")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, `<li class="event"><h3>Event number %d with padding</h3></li>`, i)
	}
	sb.WriteString("</ul></body></html>")

	candidates := NewExtractor(30).Extract(docFromString(t, sb.String()))
	assert.Len(t, candidates, 30)
	assert.Equal(t, "Event number 0 with padding", candidates[0].Title)
}

func TestExtractorEmptyDocument(t *testing.T) {
	candidates := NewExtractor(0).Extract(docFromString(t, "<html><body><p>nothing here</p></body></html>"))
	assert.Empty(t, candidates)
}

func TestStructuredStrategyMalformedJSON(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{not json</script></head><body></body></html>`
	assert.Empty(t, (&structuredStrategy{}).Extract(docFromString(t, html)))
}

func TestStructuredStrategyTopLevelArray(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
[{"@type": "Event", "name": "Array Event", "startDate": "2026-01-01",
  "location": {"@type": "Place", "address": {"streetAddress": "1 Main St", "addressLocality": "Boston"}}}]
</script></head><body></body></html>`

	candidates := (&structuredStrategy{}).Extract(docFromString(t, html))
	assert.Len(t, candidates, 1)
	assert.Equal(t, "Array Event", candidates[0].Title)
	assert.Equal(t, "1 Main St, Boston", candidates[0].Location)
}

func TestHeuristicSkipsChromeRows(t *testing.T) {
	html := `<html><body>
<header><section><h2>Upcoming in 2026: our schedule overview</h2></section></header>
<table>
  <tr><td><b>Real Event</b></td><td>Aug 9, 2026</td></tr>
</table>
</body></html>`

	candidates := (&heuristicStrategy{}).Extract(docFromString(t, html))
	assert.Len(t, candidates, 1)
	assert.Equal(t, "Real Event", candidates[0].Title)
}
