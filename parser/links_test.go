package parser

import "testing"

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "megadb", url: "https://megadb.net/abc123", expected: "megadb"},
		{name: "buzzheavier", url: "https://buzzheavier.com/f/xyz", expected: "buzzheavier"},
		{name: "buzzheave short form", url: "https://buzzheave.com/f/xyz", expected: "buzzheavier"},
		{name: "gofile", url: "https://gofile.io/d/abc", expected: "gofile"},
		{name: "mega", url: "https://mega.nz/file/abc#key", expected: "mega"},
		{name: "mediafire", url: "https://www.mediafire.com/file/abc", expected: "mediafire"},
		{name: "rapidgator", url: "https://rapidgator.net/file/abc", expected: "rapidgator"},
		{name: "uppercase host", url: "https://GOFILE.io/d/ABC", expected: "gofile"},
		{name: "unmatched", url: "https://example.com/file/abc", expected: "unknown"},
		{name: "empty", url: "", expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyLink(tt.url); got != tt.expected {
				t.Errorf("ClassifyLink(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestClassifyLinkIsPure(t *testing.T) {
	url := "https://gofile.io/d/abc"
	for i := 0; i < 5; i++ {
		if got := ClassifyLink(url); got != "gofile" {
			t.Fatalf("call %d: ClassifyLink(%q) = %q, want gofile", i, url, got)
		}
	}
}

func TestClassifyLinkFirstRuleWins(t *testing.T) {
	// A URL matching several substrings must classify by table order.
	url := "https://megadb.net/mirror/gofile/abc"
	if got := ClassifyLink(url); got != "megadb" {
		t.Fatalf("ClassifyLink = %q, want megadb (first rule)", got)
	}
}
