package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Namespaces used by the rendered documents.
const (
	SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	ImageNamespace   = "http://www.google.com/schemas/sitemap-image/1.1"
	RORNamespace     = "http://rorweb.com/0.1/"
)

// URLSet is a parsed sitemap document.
type URLSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []URLEntry `xml:"url"`
}

// URLEntry is a single URL entry of a sitemap document.
type URLEntry struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   string  `xml:"priority,omitempty"`
	Images     []Image `xml:"http://www.google.com/schemas/sitemap-image/1.1 image"`
}

// Image is an image extension entry.
type Image struct {
	Loc string `xml:"http://www.google.com/schemas/sitemap-image/1.1 loc"`
}

// SitemapIndex is a parsed sitemap-index document.
type SitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []IndexEntry `xml:"sitemap"`
}

// IndexEntry points to one sitemap of an index.
type IndexEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Feed is a parsed ror rss document.
type Feed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string     `xml:"title"`
		Link  string     `xml:"link"`
		Items []FeedItem `xml:"item"`
	} `xml:"channel"`
}

// FeedItem is a single rss item.
type FeedItem struct {
	Title        string `xml:"title"`
	Link         string `xml:"link"`
	Description  string `xml:"description,omitempty"`
	Updated      string `xml:"http://rorweb.com/0.1/ updated"`
	UpdatePeriod string `xml:"http://rorweb.com/0.1/ updatePeriod"`
	SortOrder    string `xml:"http://rorweb.com/0.1/ sortOrder"`
	ResourceOf   string `xml:"http://rorweb.com/0.1/ resourceOf"`
}

// Document is a parsed rendering, exactly one of its fields set.
type Document struct {
	URLSet *URLSet
	Index  *SitemapIndex
	Feed   *Feed
}

// Parse decodes an xml or rss document produced by the views.
func Parse(data []byte) (*Document, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	switch root {
	case "urlset":
		doc.URLSet = &URLSet{}
		err = xml.Unmarshal(data, doc.URLSet)
	case "sitemapindex":
		doc.Index = &SitemapIndex{}
		err = xml.Unmarshal(data, doc.Index)
	case "rss":
		doc.Feed = &Feed{}
		err = xml.Unmarshal(data, doc.Feed)
	default:
		return nil, fmt.Errorf("unsupported root element <%s>", root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode <%s>: %w", root, err)
	}

	return doc, nil
}

// Locs returns the locations a document points to, in document order.
func (d *Document) Locs() []string {
	var locs []string
	switch {
	case d.URLSet != nil:
		for _, u := range d.URLSet.URLs {
			locs = append(locs, u.Loc)
		}
	case d.Index != nil:
		for _, s := range d.Index.Sitemaps {
			locs = append(locs, s.Loc)
		}
	case d.Feed != nil:
		for _, item := range d.Feed.Channel.Items {
			locs = append(locs, item.Link)
		}
	}
	return locs
}

// ParseText splits a txt rendering into its non-empty lines.
func ParseText(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("document has no root element")
		}
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}
