package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/kb-sitemap/internal/render"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

func publish(t *testing.T, fs afero.Fs) {
	t.Helper()
	templates, err := render.NewTemplates(render.Styles{})
	require.NoError(t, err)

	settings := &sitemap.Settings{MaxSize: 2, Escaping: true, DateLayout: sitemap.ATOM}
	m := sitemap.NewManager(settings, templates, sitemap.WithFilesystem(fs))

	s := sitemap.NewSitemap(settings).SetPath("https://example.com/sitemap-blog.xml")
	for i := 1; i <= 5; i++ {
		u, err := sitemap.NewURL(fmt.Sprintf("https://example.com/blog/%d", i))
		require.NoError(t, err)
		s.Add(u)
	}
	m.Add("blog", s)

	require.NoError(t, m.Save("public/sitemap.xml", ""))
}

func TestAnalyzeChunkedTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	publish(t, fs)

	report, err := analyze(fs, "public/sitemap.xml", 2)
	require.NoError(t, err)

	assert.Equal(t, 5, report.URLs)
	assert.Empty(t, report.Duplicates)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Oversized)
	assert.Equal(t, []FileReport{
		{Path: "public/sitemap.xml", Kind: "index", Count: 3},
		{Path: "public/sitemap-blog-1.xml", Kind: "urlset", Count: 2},
		{Path: "public/sitemap-blog-2.xml", Kind: "urlset", Count: 2},
		{Path: "public/sitemap-blog-3.xml", Kind: "urlset", Count: 1},
	}, report.Files)

	var out bytes.Buffer
	printReport(&out, report)
	assert.Contains(t, out.String(), "Total URLs found: 5")
}

func TestAnalyzeReportsProblems(t *testing.T) {
	fs := afero.NewMemMapFs()
	publish(t, fs)
	require.NoError(t, fs.Remove("public/sitemap-blog-3.xml"))

	report, err := analyze(fs, "public/sitemap.xml", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"public/sitemap-blog-3.xml"}, report.Missing)
	assert.Equal(t, []string{"public/sitemap-blog-1.xml", "public/sitemap-blog-2.xml"}, report.Oversized)
}

func TestAnalyzeText(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sitemap.txt", []byte("https://a.example/\nhttps://b.example/\nhttps://a.example/\n"), 0o644))

	report, err := analyze(fs, "sitemap.txt", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, report.URLs)
	assert.Equal(t, []string{"https://a.example/"}, report.Duplicates)
}

func TestAnalyzeMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sitemap.xml", []byte("<urlset><url></urlset>"), 0o644))

	_, err := analyze(fs, "sitemap.xml", 10)
	assert.Error(t, err)
}
