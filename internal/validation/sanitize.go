package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// CleanText strips all markup from user supplied text and trims surrounding
// whitespace. The result is plain text; templates and JSON encoding escape it.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// CleanTags normalizes a tag list: markup stripped, lowercased, trimmed,
// empties and duplicates dropped, order kept.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(CleanText(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag field.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return CleanTags(strings.Split(s, ","))
}
