package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"techevents/eventworker/helpers"
)

// structuredStrategy extracts events from embedded JSON-LD metadata blocks.
// It understands plain objects, arrays, @graph containers and ItemList
// wrappers, and keeps any node whose @type ends in "Event".
type structuredStrategy struct{}

func (s *structuredStrategy) Name() string { return "structured_data" }

func (s *structuredStrategy) Extract(doc *goquery.Document) []Candidate {
	var candidates []Candidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var node interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &node); err != nil {
			return
		}
		candidates = append(candidates, collectEventNodes(node)...)
	})
	return candidates
}

func collectEventNodes(node interface{}) []Candidate {
	var out []Candidate
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			out = append(out, collectEventNodes(item)...)
		}
	case map[string]interface{}:
		if isEventType(v["@type"]) {
			if c, ok := eventCandidate(v); ok {
				out = append(out, c)
			}
		}
		if graph, ok := v["@graph"]; ok {
			out = append(out, collectEventNodes(graph)...)
		}
		if list, ok := v["itemListElement"]; ok {
			out = append(out, collectEventNodes(list)...)
		}
		if item, ok := v["item"]; ok {
			out = append(out, collectEventNodes(item)...)
		}
	}
	return out
}

func isEventType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.HasSuffix(v, "Event")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.HasSuffix(s, "Event") {
				return true
			}
		}
	}
	return false
}

func eventCandidate(m map[string]interface{}) (Candidate, bool) {
	title := helpers.CollapseWhitespace(stringField(m, "name"))
	if title == "" {
		return Candidate{}, false
	}
	return Candidate{
		Title:    title,
		DateTime: stringField(m, "startDate"),
		Location: locationText(m["location"]),
		EventURL: stringField(m, "url"),
	}, true
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// locationText flattens the schema.org location shapes seen in the wild:
// a plain string, a Place with a name, or a Place with a nested address.
func locationText(node interface{}) string {
	switch v := node.(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		for _, item := range v {
			if text := locationText(item); text != "" {
				return text
			}
		}
	case map[string]interface{}:
		if name := stringField(v, "name"); name != "" {
			return name
		}
		switch addr := v["address"].(type) {
		case string:
			return strings.TrimSpace(addr)
		case map[string]interface{}:
			parts := []string{}
			for _, key := range []string{"streetAddress", "addressLocality", "addressCountry"} {
				if p := stringField(addr, key); p != "" {
					parts = append(parts, p)
				}
			}
			return strings.Join(parts, ", ")
		}
	}
	return ""
}
