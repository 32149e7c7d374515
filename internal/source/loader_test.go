package source

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/kb-sitemap/internal/cache"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/render"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/storage"
)

func seed(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { _ = store.Close() })

	pages := models.NewSitemap("pages")
	pages.Path = "http://example.com/pages.xml"
	require.NoError(t, store.SaveSitemap(ctx, pages))
	require.NoError(t, store.SaveSitemap(ctx, models.NewSitemap("blog")))
	require.NoError(t, store.SaveSitemap(ctx, models.NewSitemap("empty")))

	for _, loc := range []string{"http://example.com/", "http://example.com/about"} {
		require.NoError(t, store.SaveEntry(ctx, models.NewEntry("pages", loc)))
	}
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.SaveEntry(ctx, models.NewEntry("blog", fmt.Sprintf("http://example.com/blog/%d", i))))
	}

	return store
}

func newLoader(t *testing.T, store storage.Store, maxSize int, opts ...Option) *Loader {
	t.Helper()
	templates, err := render.NewTemplates(render.Styles{})
	require.NoError(t, err)

	settings := func() *sitemap.Settings {
		return &sitemap.Settings{MaxSize: maxSize, Escaping: true, DateLayout: sitemap.ATOM}
	}
	opts = append([]Option{WithBaseURL("http://example.com/")}, opts...)
	return NewLoader(store, templates, settings, opts...)
}

func TestLoaderManager(t *testing.T) {
	store := seed(t)
	loader := newLoader(t, store, 2)

	m, err := loader.Manager(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"pages", "blog", "empty"}, m.All().Names())

	pages, ok := m.Get("pages")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/pages.xml", pages.Path())
	assert.Equal(t, 2, pages.Count())

	blog, ok := m.Get("blog")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/sitemap-blog.xml", blog.Path())
	var locs []string
	for _, u := range blog.URLs() {
		locs = append(locs, u.Loc())
	}
	assert.Equal(t, []string{
		"http://example.com/blog/1",
		"http://example.com/blog/2",
		"http://example.com/blog/3",
		"http://example.com/blog/4",
		"http://example.com/blog/5",
	}, locs)

	assert.True(t, m.Has("blog.3"))
	assert.False(t, m.Has("blog.4"))
	assert.False(t, m.Has("pages.1"))
}

func TestLoaderManagerSubset(t *testing.T) {
	loader := newLoader(t, seed(t), 100)

	m, err := loader.Manager(context.Background(), "blog", "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"blog"}, m.All().Names())

	out, err := m.Render("")
	require.NoError(t, err)
	doc, err := render.Parse(out)
	require.NoError(t, err)
	require.NotNil(t, doc.URLSet)
	assert.Len(t, doc.URLSet.URLs, 5)
}

func TestLoaderCache(t *testing.T) {
	store := seed(t)
	entries := cache.New[[]*models.Entry](8)
	loader := newLoader(t, store, 100, WithCache(entries, "kb-sitemap", time.Hour))
	ctx := context.Background()

	_, err := loader.Manager(ctx)
	require.NoError(t, err)
	assert.True(t, entries.Has("kb-sitemap.blog"))

	require.NoError(t, store.SaveEntry(ctx, models.NewEntry("blog", "http://example.com/blog/6")))

	m, err := loader.Manager(ctx, "blog")
	require.NoError(t, err)
	blog, _ := m.Get("blog")
	assert.Equal(t, 5, blog.Count())

	loader.Forget("blog")
	m, err = loader.Manager(ctx, "blog")
	require.NoError(t, err)
	blog, _ = m.Get("blog")
	assert.Equal(t, 6, blog.Count())
}

func TestLoaderSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	loader := newLoader(t, seed(t), 2, WithFilesystem(fs))

	m, err := loader.Manager(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Save("public/sitemap.xml", ""))

	for _, file := range []string{
		"public/sitemap.xml",
		"public/sitemap-blog-1.xml",
		"public/sitemap-blog-2.xml",
		"public/sitemap-blog-3.xml",
	} {
		exists, err := afero.Exists(fs, file)
		require.NoError(t, err)
		assert.True(t, exists, file)
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "http://example.com/sitemap-blog.xml", DefaultPath("http://example.com/", "blog"))
	assert.Equal(t, "/sitemap-blog.xml", DefaultPath("", "blog"))
}
