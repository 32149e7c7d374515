// Package generator crawls the configured local sites into the store and publishes
// the stored sitemaps to disk.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/romangod6/kb-sitemap/internal/crawler"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/source"
	"github.com/romangod6/kb-sitemap/internal/storage"
	"github.com/romangod6/kb-sitemap/internal/utils"
)

const maxConcurrentCrawls = 2

// Site is a local directory crawled into the sitemap of the same name.
type Site struct {
	Name    string
	Root    string
	BaseURL string
}

type Options struct {
	Sites     []Site
	UserAgent string
	MaxDepth  int
	// Output is the file the primary sitemap document is saved to. Chunk files are
	// written next to it.
	Output string
	// LogsDir holds the per-run log files, utils.LogsDir when empty.
	LogsDir string
	// LogOutput mirrors run logs, os.Stdout when nil.
	LogOutput io.Writer
}

// Result reports what a run produced.
type Result struct {
	Crawled  map[string]int `json:"crawled,omitempty"`
	Output   string         `json:"output"`
	Sitemaps int            `json:"sitemaps"`
}

type Generator struct {
	store   storage.Store
	loader  *source.Loader
	options Options

	// one run at a time
	mu sync.Mutex
}

func New(store storage.Store, loader *source.Loader, options Options) *Generator {
	if options.LogsDir == "" {
		options.LogsDir = utils.LogsDir
	}
	if options.LogOutput == nil {
		options.LogOutput = os.Stdout
	}
	return &Generator{store: store, loader: loader, options: options}
}

// Run crawls every site then publishes.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	crawled, crawlErr := g.crawlAll(ctx)
	result, err := g.publish(ctx)
	if result != nil {
		result.Crawled = crawled
	}
	return result, errors.Join(crawlErr, err)
}

// Publish saves the stored sitemaps without crawling.
func (g *Generator) Publish(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.publish(ctx)
}

func (g *Generator) crawlAll(ctx context.Context) (map[string]int, error) {
	var (
		mu      sync.Mutex
		errs    []error
		crawled = make(map[string]int, len(g.options.Sites))
	)

	// Definitions are created in configuration order so the index order does not
	// depend on which crawl finishes first.
	sites := make([]Site, 0, len(g.options.Sites))
	for _, site := range g.options.Sites {
		if err := crawler.EnsureSitemap(ctx, g.store, site.Name, site.BaseURL); err != nil {
			crawled[site.Name] = 0
			errs = append(errs, fmt.Errorf("crawl of %s failed: %w", site.Name, err))
			continue
		}
		sites = append(sites, site)
	}

	// Create a semaphore channel to limit concurrency
	semaphore := make(chan struct{}, maxConcurrentCrawls)
	wg := sync.WaitGroup{}

	for _, site := range sites {
		wg.Add(1)
		semaphore <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			count, err := g.crawl(ctx, site)

			mu.Lock()
			defer mu.Unlock()
			crawled[site.Name] = count
			if err != nil {
				errs = append(errs, fmt.Errorf("crawl of %s failed: %w", site.Name, err))
			}
		}()
	}

	wg.Wait()
	return crawled, errors.Join(errs...)
}

func (g *Generator) crawl(ctx context.Context, site Site) (int, error) {
	logger, err := utils.NewRunLoggerIn(g.options.LogsDir, "crawl "+site.Name, g.options.LogOutput)
	if err != nil {
		return 0, err
	}
	defer logger.Close()

	logger.LogInfo("Starting crawl of %s into sitemap %s", site.Root, site.Name)
	logger.LogInfo("  Base URL: %s", site.BaseURL)
	logger.LogInfo("  Max Depth: %d", g.options.MaxDepth)

	c, err := crawler.NewCrawler(g.store, &crawler.CrawlerConfig{
		Sitemap:   site.Name,
		Root:      site.Root,
		BaseURL:   site.BaseURL,
		UserAgent: g.options.UserAgent,
		MaxDepth:  g.options.MaxDepth,
	}, logger)
	if err != nil {
		logger.LogError("Failed to create crawler: %v", err)
		return 0, err
	}

	count, err := c.Crawl(ctx)
	g.loader.Forget(site.Name)
	if err != nil {
		logger.LogError("Crawl failed with error: %v", err)
		return count, err
	}
	return count, nil
}

func (g *Generator) publish(ctx context.Context) (*Result, error) {
	logger, err := utils.NewRunLoggerIn(g.options.LogsDir, "generate", g.options.LogOutput)
	if err != nil {
		return nil, err
	}
	defer logger.Close()

	m, err := g.loader.Manager(ctx)
	if err != nil {
		logger.LogError("Failed to load sitemaps: %v", err)
		return nil, err
	}

	for _, entry := range m.All().Entries() {
		logger.LogInfo("Sitemap %s: %d urls, exceeded: %t", entry.Name, entry.Count(), entry.IsExceeded())
	}

	if err := m.Save(g.options.Output, ""); err != nil {
		logger.LogError("Failed to save %s: %v", g.options.Output, err)
		return nil, err
	}

	// With several sitemaps the primary document is an index pointing at each
	// sitemap's own path, which has to be written next to it.
	if m.Count() > 1 {
		dir := filepath.Dir(g.options.Output)
		ext := filepath.Ext(g.options.Output)
		owners := map[string]string{filepath.Clean(g.options.Output): "the index"}

		for _, entry := range m.All().Entries() {
			file := filepath.Join(dir, sitemap.FileName(entry.Path(), ext))
			if other, taken := owners[file]; taken {
				err := fmt.Errorf("%w: sitemap %s and %s both write %s", sitemap.ErrConfiguration, entry.Name, other, file)
				logger.LogError("Failed to save sitemap %s: %v", entry.Name, err)
				return nil, err
			}
			owners[file] = "sitemap " + entry.Name

			if _, err := m.Write(file, entry.Name); err != nil {
				logger.LogError("Failed to save sitemap %s: %v", entry.Name, err)
				return nil, err
			}
			logger.LogDebug("Saved sitemap %s to %s", entry.Name, file)
		}
	}
	logger.LogInfo("Saved %d sitemaps to %s", m.Count(), g.options.Output)

	return &Result{Output: g.options.Output, Sitemaps: m.Count()}, nil
}
