// Package parser implements link discovery, field extraction heuristics and
// download-link classification for catalog pages.
package parser

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

var (
	nameSuffixRe    = regexp.MustCompile(`(?i)\s*free download.*$`)
	trailingParenRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// descriptionLimit is the maximum description length before truncation.
const descriptionLimit = 500

// FingerprintID derives the stable record id from a source URL. Identical
// URLs produce identical ids across runs.
func FingerprintID(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:16]
}

// CleanName strips boilerplate from a raw page title: everything from the
// first case-insensitive "free download" onward, then a trailing
// parenthetical group, then surrounding whitespace.
func CleanName(raw string) string {
	name := nameSuffixRe.ReplaceAllString(raw, "")
	name = trailingParenRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// TruncateDescription cuts a description to 500 characters and appends an
// ellipsis marker. Shorter descriptions are returned untouched.
func TruncateDescription(text string) string {
	runes := []rune(text)
	if len(runes) <= descriptionLimit {
		return text
	}
	return string(runes[:descriptionLimit]) + "..."
}

// normalizeText collapses runs of whitespace into single spaces and trims.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// lastPathSegment returns the last non-empty path segment of a URL, used as
// the final name fallback when a page carries neither heading nor title.
func lastPathSegment(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(parsed.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// resolveURL resolves href against base, returning "" for unparseable hrefs.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
