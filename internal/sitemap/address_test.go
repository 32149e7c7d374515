package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"dir/sitemap.xml", "dir/sitemap-2.xml"},
		{"sitemap.xml", "sitemap-2.xml"},
		{"http://example.com/sitemap-blog.xml", "http://example.com/sitemap-blog-2.xml"},
		{"/var/www/public/sitemap.tar.gz", "/var/www/public/sitemap.tar-2.gz"},
		{"blog", "blog-2"},
		{"dir/.hidden", "dir/.hidden-2"},
	}

	for _, tc := range cases {
		got, err := chunkPath(tc.path, 2)
		if assert.NoError(t, err, tc.path) {
			assert.Equal(t, tc.want, got, tc.path)
		}
	}

	for _, path := range []string{"", "dir/", "http://example.com/"} {
		_, err := chunkPath(path, 1)
		assert.ErrorIs(t, err, ErrConfiguration, path)
	}
}

func TestSplitAddress(t *testing.T) {
	name, key, ok := splitAddress("blog.3")
	assert.Equal(t, "blog", name)
	assert.Equal(t, "3", key)
	assert.True(t, ok)

	name, key, ok = splitAddress("news.archive.2")
	assert.Equal(t, "news", name)
	assert.Equal(t, "archive.2", key)
	assert.True(t, ok)

	name, _, ok = splitAddress("pages")
	assert.Equal(t, "pages", name)
	assert.False(t, ok)
}

func TestChunkAt(t *testing.T) {
	chunks := NewSitemaps()
	chunks.Put("1", NewSitemap(nil))
	chunks.Put("2", NewSitemap(nil))

	_, ok := chunkAt(chunks, "2")
	assert.True(t, ok)
	_, ok = chunkAt(chunks, "02")
	assert.True(t, ok)

	for _, key := range []string{"0", "3", "", "x", "-1"} {
		_, ok := chunkAt(chunks, key)
		assert.False(t, ok, key)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sitemap-blog-1.xml", FileName("http://example.com/sitemap-blog-1.xml", ".xml"))
	assert.Equal(t, "blog-1.xml", FileName("blog-1", ".xml"))
	assert.Equal(t, "blog-1.txt", FileName("blog-1.txt", ".xml"))
}
