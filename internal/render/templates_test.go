package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/xmldoc"
)

var released = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

func newURL(t *testing.T, loc string) *sitemap.URL {
	t.Helper()
	u, err := sitemap.NewURL(loc)
	require.NoError(t, err)
	u.SetLastMod(released)
	return u
}

func blogSitemap(t *testing.T, settings *sitemap.Settings) *sitemap.Sitemap {
	t.Helper()
	s := sitemap.NewSitemap(settings).SetPath("http://example.com/sitemap-blog.xml")

	first := newURL(t, "http://example.com/blog?page=1&sort=asc")
	first.SetTitle("Tom & Jerry")
	require.NoError(t, first.Set(ImagesKey, []string{"http://example.com/cover.png"}))
	require.NoError(t, first.Set(DescriptionKey, "Cats <and> mice"))

	second := newURL(t, "http://example.com/blog/second")
	require.NoError(t, second.SetChangeFreq("weekly"))
	require.NoError(t, second.SetPriority(0.5))

	return s.AddMany([]*sitemap.URL{first, second})
}

func TestTemplatesRenderXMLSitemap(t *testing.T) {
	templates, err := NewTemplates(Styles{})
	require.NoError(t, err)

	settings := sitemap.DefaultSettings()
	out, err := templates.Render(sitemap.ViewSitemap, sitemap.FormatXML, sitemap.ViewData{
		Sitemap:  blogSitemap(t, settings),
		Settings: settings,
	})
	require.NoError(t, err)

	normalized, err := xmldoc.Normalize(out)
	require.NoError(t, err)

	doc, err := Parse(normalized)
	require.NoError(t, err)
	require.NotNil(t, doc.URLSet)
	require.Len(t, doc.URLSet.URLs, 2)

	first := doc.URLSet.URLs[0]
	assert.Equal(t, "http://example.com/blog?page=1&sort=asc", first.Loc)
	assert.Equal(t, "2017-01-01T00:00:00+00:00", first.LastMod)
	assert.Equal(t, "daily", first.ChangeFreq)
	assert.Equal(t, "0.8", first.Priority)
	require.Len(t, first.Images, 1)
	assert.Equal(t, "http://example.com/cover.png", first.Images[0].Loc)

	second := doc.URLSet.URLs[1]
	assert.Equal(t, "weekly", second.ChangeFreq)
	assert.Equal(t, "0.5", second.Priority)
	assert.Empty(t, second.Images)
}

func TestTemplatesRenderRSSSitemap(t *testing.T) {
	templates, err := NewTemplates(Styles{})
	require.NoError(t, err)

	settings := sitemap.DefaultSettings()
	out, err := templates.Render(sitemap.ViewSitemap, sitemap.FormatRSS, sitemap.ViewData{
		Sitemap:  blogSitemap(t, settings),
		Settings: settings,
	})
	require.NoError(t, err)

	doc, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, doc.Feed)

	assert.Equal(t, "http://example.com/sitemap-blog.xml", doc.Feed.Channel.Link)
	require.Len(t, doc.Feed.Channel.Items, 2)

	item := doc.Feed.Channel.Items[0]
	assert.Equal(t, "Tom & Jerry", item.Title)
	assert.Equal(t, "Cats <and> mice", item.Description)
	assert.Equal(t, "2017-01-01T00:00:00+00:00", item.Updated)
	assert.Equal(t, "daily", item.UpdatePeriod)
	assert.Equal(t, "0.8", item.SortOrder)
	assert.Equal(t, "sitemap", item.ResourceOf)
}

func TestTemplatesRenderText(t *testing.T) {
	templates, err := NewTemplates(Styles{Enabled: true})
	require.NoError(t, err)

	out, err := templates.Render(sitemap.ViewSitemap, sitemap.FormatTXT, sitemap.ViewData{
		Sitemap: blogSitemap(t, nil),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/blog?page=1&sort=asc\nhttp://example.com/blog/second\n", string(out))
}

func TestTemplatesRenderIndex(t *testing.T) {
	templates, err := NewTemplates(Styles{Enabled: true, Location: "/styles"})
	require.NoError(t, err)

	settings := sitemap.DefaultSettings()
	sitemaps := sitemap.NewSitemaps()
	sitemaps.Put("blog", blogSitemap(t, settings))
	sitemaps.Put("empty", sitemap.NewSitemap(settings).SetPath("http://example.com/sitemap-empty.xml"))

	out, err := templates.Render(sitemap.ViewSitemapIndex, sitemap.FormatXML, sitemap.ViewData{
		Sitemaps: sitemaps,
		Settings: settings,
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<?xml-stylesheet href="/styles/xml.xsl" type="text/xsl"?>`)

	doc, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, doc.Index)
	require.Len(t, doc.Index.Sitemaps, 2)

	assert.Equal(t, "http://example.com/sitemap-blog.xml", doc.Index.Sitemaps[0].Loc)
	assert.Equal(t, "2017-01-01T00:00:00+00:00", doc.Index.Sitemaps[0].LastMod)
	assert.Equal(t, "http://example.com/sitemap-empty.xml", doc.Index.Sitemaps[1].Loc)
	assert.Empty(t, doc.Index.Sitemaps[1].LastMod)

	text, err := templates.Render(sitemap.ViewSitemapIndex, sitemap.FormatTXT, sitemap.ViewData{Sitemaps: sitemaps})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/sitemap-blog.xml", "http://example.com/sitemap-empty.xml"}, ParseText(text))
}

func TestTemplatesEscapingToggle(t *testing.T) {
	templates, err := NewTemplates(Styles{})
	require.NoError(t, err)

	settings := &sitemap.Settings{MaxSize: 10, Escaping: false}
	out, err := templates.Render(sitemap.ViewSitemap, sitemap.FormatXML, sitemap.ViewData{
		Sitemap:  blogSitemap(t, settings),
		Settings: settings,
	})
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(out), "<loc>http://example.com/blog?page=1&sort=asc</loc>"))
	_, err = xmldoc.Normalize(out)
	assert.Error(t, err)
}

func TestTemplatesUnknownView(t *testing.T) {
	templates, err := NewTemplates(Styles{})
	require.NoError(t, err)

	_, err = templates.Render(sitemap.ViewSitemap, "html", sitemap.ViewData{})
	assert.Error(t, err)
}

func TestStylesHref(t *testing.T) {
	assert.Empty(t, Styles{}.Href("xml"))
	assert.Equal(t, "/vendor/sitemap/styles/xml.xsl", Styles{Enabled: true}.Href("xml"))
	assert.Equal(t, "https://cdn.example.com/xsl/rss.xsl", Styles{Enabled: true, Location: "https://cdn.example.com/xsl"}.Href("rss"))
	assert.Empty(t, Styles{Enabled: true}.Href("txt"))
}
