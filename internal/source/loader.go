// Package source builds sitemap managers from the sitemaps and entries held in the
// store.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/romangod6/kb-sitemap/internal/cache"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/storage"
)

// maxConcurrentLoads bounds the number of sitemaps read from the store at once.
const maxConcurrentLoads = 4

// Option configures a Loader.
type Option func(*Loader)

// WithCache keeps entry snapshots in c under "{key}.{sitemap}" for ttl.
func WithCache(c *cache.Cache[[]*models.Entry], key string, ttl time.Duration) Option {
	return func(l *Loader) {
		l.cache = c
		l.cacheKey = key
		l.cacheTTL = ttl
	}
}

// WithFilesystem sets the filesystem managers save to.
func WithFilesystem(fs afero.Fs) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithBaseURL sets the base URL default sitemap paths are built from.
func WithBaseURL(baseURL string) Option {
	return func(l *Loader) {
		l.baseURL = baseURL
	}
}

// WithFormat sets the output format of the managers.
func WithFormat(format string) Option {
	return func(l *Loader) {
		l.format = format
	}
}

// Loader assembles a fresh sitemap.Manager for every rendering session.
type Loader struct {
	store    storage.Store
	renderer sitemap.Renderer
	settings func() *sitemap.Settings

	cache    *cache.Cache[[]*models.Entry]
	cacheKey string
	cacheTTL time.Duration

	fs      afero.Fs
	baseURL string
	format  string
}

// NewLoader creates a loader. settings is called once per session; nil means
// sitemap.DefaultSettings.
func NewLoader(store storage.Store, renderer sitemap.Renderer, settings func() *sitemap.Settings, opts ...Option) *Loader {
	if settings == nil {
		settings = sitemap.DefaultSettings
	}

	l := &Loader{
		store:    store,
		renderer: renderer,
		settings: settings,
		format:   sitemap.FormatXML,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultPath is the path of a sitemap whose definition has none.
func DefaultPath(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/sitemap-" + name + ".xml"
}

// Manager returns a manager holding the named sitemaps, or every stored sitemap when
// no name is given, in definition order. Unknown names are skipped.
func (l *Loader) Manager(ctx context.Context, names ...string) (*sitemap.Manager, error) {
	defs, err := l.definitions(ctx, names)
	if err != nil {
		return nil, err
	}

	entries := make([][]*models.Entry, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, def := range defs {
		g.Go(func() error {
			loaded, err := l.entries(gctx, def.Name)
			if err != nil {
				return fmt.Errorf("failed to load entries of %s: %w", def.Name, err)
			}
			entries[i] = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := []sitemap.Option{sitemap.WithFormat(l.format)}
	if l.fs != nil {
		opts = append(opts, sitemap.WithFilesystem(l.fs))
	}
	m := sitemap.NewManager(l.settings(), l.renderer, opts...)

	for i, def := range defs {
		s := sitemap.NewSitemap(m.Settings()).SetPath(def.PathOr(DefaultPath(l.baseURL, def.Name)))
		for _, entry := range entries[i] {
			u, err := entry.URL()
			if err != nil {
				return nil, fmt.Errorf("sitemap %s: %w", def.Name, err)
			}
			s.Add(u)
		}
		m.Add(def.Name, s)
	}

	return m, nil
}

// Forget drops the cached entries of the named sitemaps.
func (l *Loader) Forget(names ...string) {
	if l.cache == nil {
		return
	}
	for _, name := range names {
		l.cache.Forget(l.key(name))
	}
}

func (l *Loader) definitions(ctx context.Context, names []string) ([]*models.Sitemap, error) {
	all, err := l.store.ListSitemaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sitemaps: %w", err)
	}
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var defs []*models.Sitemap
	for _, def := range all {
		if wanted[def.Name] {
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func (l *Loader) entries(ctx context.Context, name string) ([]*models.Entry, error) {
	load := func() ([]*models.Entry, error) {
		return l.store.ListEntries(ctx, name, 0, 0)
	}
	if l.cache == nil {
		return load()
	}
	return l.cache.Remember(l.key(name), l.cacheTTL, load)
}

func (l *Loader) key(name string) string {
	return l.cacheKey + "." + name
}
