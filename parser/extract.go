package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-games/models"
)

// ExtractionError reports an unrecoverable failure while extracting a record
// from one detail page. Missing fields never produce it; they degrade to
// empty values.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Options toggles optional record fields.
type Options struct {
	IncludeScreenshots bool
	IncludeYoutube     bool
}

var (
	downloadHereRe = regexp.MustCompile(`(?i)DOWNLOAD\s+HERE`)
	systemReqRe    = regexp.MustCompile(`(?i)SYSTEM REQUIREMENTS`)
	gameInfoRe     = regexp.MustCompile(`(?i)GAME INFO`)

	coverKeywords      = []string{"cover", "poster", "banner"}
	screenshotKeywords = []string{"screenshot", "screen", "shot"}

	// Labeled "Label: value" lines inside the GAME INFO container.
	infoLineRes = map[string]*regexp.Regexp{
		"genre":     regexp.MustCompile(`Genre:\s*([^\n]+)`),
		"developer": regexp.MustCompile(`Developer:\s*([^\n]+)`),
		"size":      regexp.MustCompile(`Game Size:\s*([^\n]+)`),
		"version":   regexp.MustCompile(`Version:\s*([^\n]+)`),
	}

	descriptionSelectors = []string{"div.entry-content", "div.content"}
)

// Extract derives a normalized Game record from a detail-page document.
// Every field falls back through an ordered chain of heuristics and degrades
// to an empty value when nothing matches; only a fundamentally unusable input
// yields an *ExtractionError.
func Extract(doc *goquery.Document, sourceURL string, opts Options) (*models.Game, error) {
	if doc == nil {
		return nil, &ExtractionError{URL: sourceURL, Err: fmt.Errorf("nil document")}
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil, &ExtractionError{URL: sourceURL, Err: fmt.Errorf("parse source url: %w", err)}
	}

	name := extractName(doc, sourceURL)

	game := &models.Game{
		ID:             FingerprintID(sourceURL),
		Name:           name,
		Description:    TruncateDescription(extractDescription(doc)),
		CoverImage:     extractCoverImage(doc, base),
		Screenshots:    []string{},
		DownloadLinks:  extractDownloadLinks(doc),
		AdditionalInfo: extractAdditionalInfo(doc),
		SourceURL:      sourceURL,
		ScrapedAt:      time.Now(),
	}
	if opts.IncludeScreenshots {
		game.Screenshots = extractScreenshots(doc, base)
	}
	if opts.IncludeYoutube {
		game.YoutubeGameplay = youtubeGameplayURL(name)
	}
	return game, nil
}

// extractName tries the first heading, then the page title, then the last
// non-empty path segment of the source URL, and cleans the result.
func extractName(doc *goquery.Document, sourceURL string) string {
	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if name == "" {
		name = lastPathSegment(sourceURL)
	}
	return CleanName(name)
}

func extractDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		container := doc.Find(selector).First()
		if container.Length() > 0 {
			return normalizeText(container.Text())
		}
	}
	return ""
}

func extractCoverImage(doc *goquery.Document, base *url.URL) string {
	cover := ""
	images := doc.Find("img")
	images.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src != "" && containsAny(strings.ToLower(src), coverKeywords) {
			cover = resolveURL(base, src)
			return false
		}
		return true
	})
	if cover == "" {
		if src, _ := images.First().Attr("src"); src != "" {
			cover = resolveURL(base, src)
		}
	}
	return cover
}

func extractScreenshots(doc *goquery.Document, base *url.URL) []string {
	screenshots := []string{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || !containsAny(strings.ToLower(src), screenshotKeywords) {
			return
		}
		if abs := resolveURL(base, src); abs != "" {
			screenshots = append(screenshots, abs)
		}
	})
	return screenshots
}

// extractDownloadLinks classifies the hrefs of download buttons: elements
// whose text reads "DOWNLOAD HERE" plus elements whose class mentions
// download. The two candidate sets are processed in that order without
// de-duplication, so the last URL classified into a category wins.
func extractDownloadLinks(doc *goquery.Document) map[string]string {
	links := make(map[string]string)
	collect := func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		links[ClassifyLink(href)] = href
	}

	buttons := doc.Find("a, button")
	buttons.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return downloadHereRe.MatchString(s.Text())
	}).Each(collect)
	buttons.FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return strings.Contains(strings.ToLower(class), "download")
	}).Each(collect)

	return links
}

// extractAdditionalInfo locates the SYSTEM REQUIREMENTS and GAME INFO text
// anchors and pulls the optional metadata fields from their containers.
// Labels that do not match stay absent from the map.
func extractAdditionalInfo(doc *goquery.Document) map[string]string {
	info := make(map[string]string)

	if container := findTextParent(doc, systemReqRe); container != nil {
		if text := normalizeText(container.Text()); text != "" {
			info["system_requirements"] = text
		}
	}

	if container := findTextParent(doc, gameInfoRe); container != nil {
		text := container.Text()
		for key, re := range infoLineRes {
			if m := re.FindStringSubmatch(text); m != nil {
				if value := strings.TrimSpace(m[1]); value != "" {
					info[key] = value
				}
			}
		}
	}

	return info
}

// findTextParent walks the raw node tree for the first text node matching re
// and returns a selection wrapping its parent element.
func findTextParent(doc *goquery.Document, re *regexp.Regexp) *goquery.Selection {
	var parent *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if parent != nil {
			return
		}
		if n.Type == html.TextNode && re.MatchString(n.Data) {
			parent = n.Parent
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	if parent == nil {
		return nil
	}
	return doc.FindNodes(parent)
}

func youtubeGameplayURL(name string) string {
	query := strings.ReplaceAll(name, " ", "+")
	return "https://www.youtube.com/results?search_query=" + query + "+gameplay"
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
