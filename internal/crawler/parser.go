package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Meta names read from crawled pages.
const (
	MetaChangeFreq = "sitemap:changefreq"
	MetaPriority   = "sitemap:priority"
	MetaModified   = "article:modified_time"
)

var strict = bluemonday.StrictPolicy()

// PageMeta holds the sitemap metadata extracted from an HTML page.
type PageMeta struct {
	Title       string
	Description string
	ChangeFreq  string
	Priority    *float64
	LastMod     *time.Time
	Images      []string
	NoIndex     bool
}

// ParsePage parses raw HTML and extracts its metadata. base resolves relative image
// URLs and may be nil.
func ParsePage(content string, base *url.URL) (*PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return ExtractPage(doc.Selection, base), nil
}

// ExtractPage extracts metadata from a parsed document.
func ExtractPage(doc *goquery.Selection, base *url.URL) *PageMeta {
	meta := &PageMeta{}

	// Extract title
	meta.Title = cleanText(doc.Find("title").First().Text())
	if meta.Title == "" {
		meta.Title = cleanText(metaContent(doc, "property", "og:title"))
	}
	if meta.Title == "" {
		meta.Title = cleanText(doc.Find("h1").First().Text())
	}

	// Extract description, falling back to the first paragraph of the main content
	meta.Description = cleanText(metaContent(doc, "name", "description"))
	if meta.Description == "" {
		main := doc.Find("article")
		if main.Length() == 0 {
			main = doc.Find("main")
		}
		if main.Length() == 0 {
			main = doc.Find("body")
		}
		meta.Description = cleanText(main.Find("p").First().Text())
	}

	robots := strings.ToLower(metaContent(doc, "name", "robots"))
	meta.NoIndex = strings.Contains(robots, "noindex")

	meta.ChangeFreq = strings.ToLower(strings.TrimSpace(metaContent(doc, "name", MetaChangeFreq)))

	if value := strings.TrimSpace(metaContent(doc, "name", MetaPriority)); value != "" {
		if p, err := strconv.ParseFloat(value, 64); err == nil {
			meta.Priority = &p
		}
	}

	if value := strings.TrimSpace(metaContent(doc, "property", MetaModified)); value != "" {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			meta.LastMod = &t
		}
	}

	// Extract images
	seen := make(map[string]bool)
	doc.Find("meta[property='og:image']").Each(func(i int, s *goquery.Selection) {
		if content, exists := s.Attr("content"); exists {
			if image := resolve(base, content); image != "" && !seen[image] {
				seen[image] = true
				meta.Images = append(meta.Images, image)
			}
		}
	})

	return meta
}

func metaContent(doc *goquery.Selection, attr, name string) string {
	content, _ := doc.Find(fmt.Sprintf("meta[%s='%s']", attr, name)).First().Attr("content")
	return content
}

// cleanText strips any markup from value, decodes entities and collapses whitespace.
func cleanText(value string) string {
	sanitized := html.UnescapeString(strict.Sanitize(value))
	return strings.Join(strings.Fields(sanitized), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}
