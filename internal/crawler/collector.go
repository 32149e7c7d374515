package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/spf13/afero"

	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/storage"
)

// Logger receives crawl progress. utils.RunLogger implements it.
type Logger interface {
	LogInfo(format string, v ...interface{})
	LogError(format string, v ...interface{})
	LogDebug(format string, v ...interface{})
}

type stdLogger struct{}

func (stdLogger) LogInfo(format string, v ...interface{})  { log.Printf("[INFO] "+format, v...) }
func (stdLogger) LogError(format string, v ...interface{}) { log.Printf("[ERROR] "+format, v...) }
func (stdLogger) LogDebug(format string, v ...interface{}) { log.Printf("[DEBUG] "+format, v...) }

type CrawlerConfig struct {
	// Sitemap is the name of the sitemap the discovered pages are stored in.
	Sitemap string
	// Root is the local directory holding the published site.
	Root string
	// BaseURL is the public URL Root is served under.
	BaseURL   string
	UserAgent string
	MaxDepth  int
}

// Crawler discovers the HTML pages of a site published in a local directory and
// stores them as sitemap entries. Only file:// URLs under Root are ever requested.
type Crawler struct {
	store  storage.Store
	config *CrawlerConfig
	root   string
	fs     afero.Fs
	logger Logger
}

func NewCrawler(store storage.Store, config *CrawlerConfig, logger Logger) (*Crawler, error) {
	if config.Sitemap == "" {
		return nil, fmt.Errorf("crawler for %s has no sitemap name", config.Root)
	}

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl root %s: %w", config.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl root %s: %w", config.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("crawl root %s is not a directory", config.Root)
	}

	if logger == nil {
		logger = stdLogger{}
	}

	return &Crawler{
		store:  store,
		config: config,
		root:   filepath.ToSlash(root),
		fs:     afero.NewOsFs(),
		logger: logger,
	}, nil
}

func (c *Crawler) newCollector(ctx context.Context) *colly.Collector {
	collector := colly.NewCollector(colly.MaxDepth(c.config.MaxDepth))
	if c.config.UserAgent != "" {
		collector.UserAgent = c.config.UserAgent
	}

	t := &http.Transport{}
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	collector.WithTransport(t)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.LogError("Error visiting %s: %v", r.Request.URL, err)
	})

	return collector
}

// Crawl visits every page under the root, following local links, and saves one
// entry per indexable page. It returns the number of entries saved.
func (c *Crawler) Crawl(ctx context.Context) (int, error) {
	if err := c.ensureSitemap(ctx); err != nil {
		return 0, err
	}

	seeds, err := c.discover()
	if err != nil {
		return 0, err
	}
	c.logger.LogInfo("Found %d pages under %s", len(seeds), c.root)

	var saved int64
	collector := c.newCollector(ctx)

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		loc, file, ok := c.location(e.Request.URL)
		if !ok {
			return
		}
		c.logger.LogDebug("Processing %s as %s", e.Request.URL, loc)

		base, _ := url.Parse(loc)
		meta := ExtractPage(e.DOM, base)
		if meta.NoIndex {
			c.logger.LogInfo("Skipping %s: noindex", loc)
			return
		}

		entry, err := c.entry(loc, file, meta)
		if err != nil {
			c.logger.LogError("Skipping %s: %v", loc, err)
			return
		}

		if err := c.store.SaveEntry(ctx, entry); err != nil {
			c.logger.LogError("Error saving entry %s: %v", loc, err)
			return
		}
		atomic.AddInt64(&saved, 1)
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link, ok := c.localPage(e.Request.AbsoluteURL(e.Attr("href")))
		if !ok {
			return
		}
		_ = e.Request.Visit(link)
	})

	for idx, seed := range seeds {
		select {
		case <-ctx.Done():
			return int(atomic.LoadInt64(&saved)), ctx.Err()
		default:
		}

		c.logger.LogDebug("Processing URL %d/%d: %s", idx+1, len(seeds), seed)
		if err := collector.Visit(seed); err != nil && err != colly.ErrAlreadyVisited {
			c.logger.LogError("Error visiting %s: %v", seed, err)
		}
	}
	collector.Wait()

	count := int(atomic.LoadInt64(&saved))
	c.logger.LogInfo("Crawl of %s completed: %d entries saved", c.root, count)
	return count, ctx.Err()
}

func (c *Crawler) ensureSitemap(ctx context.Context) error {
	return EnsureSitemap(ctx, c.store, c.config.Sitemap, c.config.BaseURL)
}

// EnsureSitemap creates the definition of a crawled sitemap unless it is already
// stored.
func EnsureSitemap(ctx context.Context, store storage.Store, name, baseURL string) error {
	existing, err := store.GetSitemap(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read sitemap %s: %w", name, err)
	}
	if existing != nil {
		return nil
	}

	def := models.NewSitemap(name)
	def.Description = fmt.Sprintf("Pages crawled from %s", baseURL)
	if err := store.SaveSitemap(ctx, def); err != nil {
		return fmt.Errorf("failed to create sitemap %s: %w", name, err)
	}
	return nil
}

// discover lists the file URLs of every HTML page under the root. Index pages are
// listed by their directory URL.
func (c *Crawler) discover() ([]string, error) {
	var seeds []string
	err := afero.Walk(c.fs, c.root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != c.root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if link, ok := c.localPage(fileURL(filepath.ToSlash(p))); ok {
			seeds = append(seeds, link)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", c.root, err)
	}
	return seeds, nil
}

// localPage normalizes link into the file URL of a page under the root, reporting
// false for anything else.
func (c *Crawler) localPage(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "file" {
		return "", false
	}

	p := path.Clean(u.Path)
	if strings.HasSuffix(u.Path, "/") {
		p += "/"
	}
	if p != c.root+"/" && !strings.HasPrefix(p, c.root+"/") {
		return "", false
	}

	if strings.HasSuffix(p, "/index.html") {
		p = strings.TrimSuffix(p, "index.html")
	}

	switch {
	case strings.HasSuffix(p, "/"):
		if !c.exists(p + "index.html") {
			return "", false
		}
	case strings.HasSuffix(p, ".html"), strings.HasSuffix(p, ".htm"):
		if !c.exists(p) {
			return "", false
		}
	default:
		return "", false
	}

	return fileURL(p), true
}

// location maps a visited file URL to its public location and its file on disk.
func (c *Crawler) location(u *url.URL) (loc, file string, ok bool) {
	p := u.Path
	if !strings.HasPrefix(p, c.root+"/") {
		return "", "", false
	}

	rel := strings.TrimPrefix(p, c.root+"/")
	file = p
	if rel == "" || strings.HasSuffix(rel, "/") {
		file = p + "index.html"
	}

	escaped := (&url.URL{Path: rel}).EscapedPath()
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + escaped, file, true
}

func (c *Crawler) entry(loc, file string, meta *PageMeta) (*models.Entry, error) {
	entry := models.NewEntry(c.config.Sitemap, loc)
	entry.Title = meta.Title
	entry.ChangeFreq = meta.ChangeFreq
	entry.Priority = meta.Priority
	entry.Images = meta.Images

	entry.LastMod = meta.LastMod
	if entry.LastMod == nil {
		if info, err := c.fs.Stat(filepath.FromSlash(file)); err == nil {
			modified := info.ModTime().UTC().Truncate(time.Second)
			entry.LastMod = &modified
		}
	}

	if meta.Description != "" {
		attributes, err := json.Marshal(map[string]string{"description": meta.Description})
		if err != nil {
			return nil, err
		}
		entry.Attributes = (*json.RawMessage)(&attributes)
	}

	return entry, entry.Validate()
}

func (c *Crawler) exists(p string) bool {
	info, err := c.fs.Stat(filepath.FromSlash(p))
	return err == nil && !info.IsDir()
}

func fileURL(p string) string {
	return (&url.URL{Scheme: "file", Path: p}).String()
}
