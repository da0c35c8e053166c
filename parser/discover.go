package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-games/config"
)

// itemLinkMarker is the tight pattern marking a detail-page href.
const itemLinkMarker = "-free-download"

// Discoverer scans listing documents for detail-page links. The seen-set is
// a bounded LRU so repeated Discover calls stay memory-safe on arbitrarily
// large listings.
type Discoverer struct {
	pattern string
	seen    *lru.Cache[string, struct{}]
}

// NewDiscoverer builds a discoverer using the given link-matching policy
// (config.LinkPatternTight or config.LinkPatternLoose) and dedupe capacity.
func NewDiscoverer(pattern string, dedupeMaxSize int) (*Discoverer, error) {
	seen, err := lru.New[string, struct{}](dedupeMaxSize)
	if err != nil {
		return nil, err
	}
	return &Discoverer{pattern: pattern, seen: seen}, nil
}

// Discover returns the absolute detail-page URLs found in doc, in document
// order, without duplicates. It never fails: unparseable inputs yield an
// empty result.
func (d *Discoverer) Discover(doc *goquery.Document, baseURL string) []string {
	if doc == nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || !d.matches(href) {
			return
		}
		abs := resolveURL(base, href)
		if abs == "" {
			return
		}
		if present, _ := d.seen.ContainsOrAdd(abs, struct{}{}); present {
			return
		}
		links = append(links, abs)
	})
	return links
}

func (d *Discoverer) matches(href string) bool {
	if d.pattern == config.LinkPatternLoose {
		return strings.Contains(strings.ToLower(href), "download")
	}
	return strings.Contains(href, itemLinkMarker)
}
