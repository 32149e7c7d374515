package crawler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/storage"
)

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) LogInfo(format string, v ...interface{})  {}
func (l *recordingLogger) LogDebug(format string, v ...interface{}) {}
func (l *recordingLogger) LogError(format string, v ...interface{}) {
	l.errors = append(l.errors, format)
}

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"index.html": `<html><head><title>Home</title>
<meta name="sitemap:changefreq" content="weekly">
<meta name="sitemap:priority" content="1.0">
<meta property="og:image" content="/img/logo.png">
</head><body>
<a href="about.html">About</a>
<a href="docs/index.html">Docs</a>
<a href="https://elsewhere.example.org/">Elsewhere</a>
<a href="missing.html">Missing</a>
</body></html>`,
		"about.html": `<html><head><title>About</title>
<meta name="description" content="About us">
<meta property="article:modified_time" content="2020-01-02T03:04:05Z">
</head><body><a href="/index.html">Home</a></body></html>`,
		"docs/index.html": `<html><head><title>Docs</title></head>
<body><a href="../index.html">Home</a></body></html>`,
		"hidden.html": `<html><head><title>Hidden</title>
<meta name="robots" content="noindex"></head><body></body></html>`,
		"orphan.htm":        `<html><head><title>Orphan</title></head><body></body></html>`,
		"notes.txt":         "not a page",
		".drafts/next.html": `<html><head><title>Draft</title></head></html>`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCrawl(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	logger := &recordingLogger{}

	c, err := NewCrawler(store, &CrawlerConfig{
		Sitemap:   "docs",
		Root:      writeSite(t),
		BaseURL:   "https://docs.example.com/",
		UserAgent: "test-bot",
		MaxDepth:  5,
	}, logger)
	require.NoError(t, err)

	count, err := c.Crawl(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Empty(t, logger.errors)

	def, err := store.GetSitemap(ctx, "docs")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "Pages crawled from https://docs.example.com/", def.Description)

	entries, err := store.ListEntries(ctx, "docs", 0, 0)
	require.NoError(t, err)

	byLoc := make(map[string]*models.Entry)
	for _, e := range entries {
		byLoc[e.Loc] = e
	}
	assert.ElementsMatch(t, []string{
		"https://docs.example.com/",
		"https://docs.example.com/about.html",
		"https://docs.example.com/docs/",
		"https://docs.example.com/orphan.htm",
	}, keys(byLoc))

	home := byLoc["https://docs.example.com/"]
	require.NotNil(t, home)
	assert.Equal(t, "Home", home.Title)
	assert.Equal(t, "weekly", home.ChangeFreq)
	require.NotNil(t, home.Priority)
	assert.Equal(t, 1.0, *home.Priority)
	assert.Equal(t, []string{"https://docs.example.com/img/logo.png"}, home.Images)
	assert.NotNil(t, home.LastMod)

	about := byLoc["https://docs.example.com/about.html"]
	require.NotNil(t, about)
	require.NotNil(t, about.LastMod)
	assert.True(t, about.LastMod.Equal(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NotNil(t, about.Attributes)
	var attrs map[string]string
	require.NoError(t, json.Unmarshal(*about.Attributes, &attrs))
	assert.Equal(t, "About us", attrs["description"])

	u, err := about.URL()
	require.NoError(t, err)
	assert.Equal(t, "About", u.Title())
	assert.Equal(t, "About us", u.Get("description", ""))
}

func TestCrawlIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	c, err := NewCrawler(store, &CrawlerConfig{Sitemap: "docs", Root: writeSite(t), BaseURL: "https://docs.example.com"}, &recordingLogger{})
	require.NoError(t, err)

	_, err = c.Crawl(ctx)
	require.NoError(t, err)
	_, err = c.Crawl(ctx)
	require.NoError(t, err)

	count, err := store.CountEntries(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestCrawlCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := NewCrawler(newStore(t), &CrawlerConfig{Sitemap: "docs", Root: writeSite(t), BaseURL: "https://docs.example.com"}, &recordingLogger{})
	require.NoError(t, err)

	count, err := c.Crawl(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, count)
}

func TestNewCrawlerValidation(t *testing.T) {
	store := newStore(t)

	_, err := NewCrawler(store, &CrawlerConfig{Root: t.TempDir()}, nil)
	assert.Error(t, err)

	_, err = NewCrawler(store, &CrawlerConfig{Sitemap: "docs", Root: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(file, []byte("<html></html>"), 0o644))
	_, err = NewCrawler(store, &CrawlerConfig{Sitemap: "docs", Root: file}, nil)
	assert.Error(t, err)
}

func keys(m map[string]*models.Entry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
