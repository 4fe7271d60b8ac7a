package helpers

import (
	"net/url"
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims the string and collapses internal whitespace runs
// into single spaces
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most max runes
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// WebsiteName derives a stable identifier from a listing URL: the host with
// "www." stripped and dots/dashes replaced by underscores.
func WebsiteName(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = strings.ToLower(u.Host)
	}
	name = strings.TrimPrefix(name, "www.")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
