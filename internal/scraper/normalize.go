package scraper

import (
	"net/url"
	"strings"

	"techevents/eventworker/helpers"
)

// maxTitleLength bounds runaway titles from badly nested markup
const maxTitleLength = 200

// placeholderValue is emitted for fields no strategy could fill; downstream
// consumers rely on it
const placeholderValue = "TBD"

// Normalize validates and cleans a candidate into an Event. Returns nil when
// the candidate has no usable title; that drop is silent by contract.
func Normalize(c Candidate, site TargetSite) *Event {
	title := helpers.CollapseWhitespace(c.Title)
	if len([]rune(title)) < minTitleLength {
		return nil
	}

	dateTime := helpers.CollapseWhitespace(c.DateTime)
	if dateTime == "" {
		dateTime = placeholderValue
	}

	location := helpers.CollapseWhitespace(c.Location)
	if location == "" {
		location = placeholderValue
	}

	return &Event{
		Title:         helpers.Truncate(title, maxTitleLength),
		DateTime:      dateTime,
		Location:      location,
		EventURL:      ResolveURL(c.EventURL, site.URL),
		SourceWebsite: site.Name,
		SourceURL:     site.URL,
	}
}

// ResolveURL resolves href against base when relative, leaving absolute URLs
// unchanged. Malformed input falls back to the raw string; this never fails.
func ResolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
