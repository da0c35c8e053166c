package parser

import "strings"

// CategoryUnknown is the fallback bucket for unclassified download URLs.
const CategoryUnknown = "unknown"

// linkRules maps URL substrings to destination categories. Order matters:
// the first matching rule wins.
var linkRules = []struct {
	substr   string
	category string
}{
	{"megadb", "megadb"},
	{"buzzheavier", "buzzheavier"},
	{"buzzheave", "buzzheavier"},
	{"gofile", "gofile"},
	{"mega.nz", "mega"},
	{"mediafire", "mediafire"},
	{"rapidgator", "rapidgator"},
}

// ClassifyLink maps a raw download URL to a destination category. It is a
// total function: URLs matching no rule fall back to CategoryUnknown.
func ClassifyLink(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, rule := range linkRules {
		if strings.Contains(lower, rule.substr) {
			return rule.category
		}
	}
	return CategoryUnknown
}
