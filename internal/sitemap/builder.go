package sitemap

import (
	"fmt"
	"strings"

	"github.com/romangod6/kb-sitemap/internal/xmldoc"
)

// Output formats the builder can render.
const (
	FormatXML = "xml"
	FormatRSS = "rss"
	FormatTXT = "txt"
)

var contentTypes = map[string]string{
	FormatXML: "application/xml",
	FormatRSS: "application/rss+xml",
	FormatTXT: "text/plain",
}

// ContentType returns the HTTP content type of a format, empty for unknown formats.
func ContentType(format string) string {
	return contentTypes[normalizeFormat(format)]
}

// View names a document type known to the renderer.
type View string

const (
	ViewSitemap      View = "sitemap"
	ViewSitemapIndex View = "sitemap-index"
)

// ViewData is the payload handed to a Renderer. Sitemap is set for ViewSitemap,
// Sitemaps for ViewSitemapIndex.
type ViewData struct {
	Sitemap  *Sitemap
	Sitemaps *Sitemaps
	Settings *Settings
}

// Renderer turns a view into text for a format.
type Renderer interface {
	Render(view View, format string, data ViewData) ([]byte, error)
}

type targetKind int

const (
	targetDocument targetKind = iota
	targetSitemapsIndex
	targetChunksIndex
)

// target is the resolved outcome of a build request.
type target struct {
	kind     targetKind
	sitemap  *Sitemap
	sitemaps *Sitemaps
}

// Builder decides what a render request produces. It holds no state besides its
// renderer and is safe to share.
type Builder struct {
	renderer Renderer
}

// NewBuilder creates a builder delegating text production to renderer.
func NewBuilder(renderer Renderer) *Builder {
	return &Builder{renderer: renderer}
}

// Build renders name out of sitemaps in format. An empty name renders the whole set:
// an index when it holds more than one sitemap, the single sitemap otherwise. A
// dotted name "blog.2" addresses chunk 2 of the exceeded sitemap "blog". Nil bytes
// with a nil error mean there is nothing to render.
func (b *Builder) Build(name string, sitemaps *Sitemaps, format string) ([]byte, error) {
	format = normalizeFormat(format)
	if _, known := contentTypes[format]; !known {
		return nil, nil
	}

	t, err := b.resolve(name, sitemaps)
	if err != nil || t == nil {
		return nil, err
	}

	switch t.kind {
	case targetSitemapsIndex, targetChunksIndex:
		return b.render(ViewSitemapIndex, format, ViewData{Sitemaps: t.sitemaps})
	default:
		return b.render(ViewSitemap, format, ViewData{Sitemap: t.sitemap})
	}
}

// Document renders s as a single sitemap document, never as an index.
func (b *Builder) Document(s *Sitemap, format string) ([]byte, error) {
	format = normalizeFormat(format)
	if _, known := contentTypes[format]; !known || s == nil {
		return nil, nil
	}
	return b.render(ViewSitemap, format, ViewData{Sitemap: s})
}

func (b *Builder) resolve(name string, sitemaps *Sitemaps) (*target, error) {
	if sitemaps.Len() == 0 {
		return nil, nil
	}

	if name == "" {
		if sitemaps.Len() > 1 {
			return &target{kind: targetSitemapsIndex, sitemaps: sitemaps}, nil
		}
		only, _ := sitemaps.First()
		return resolveSitemap(only, "", false)
	}

	base, key, hasKey := splitAddress(name)
	s, ok := sitemaps.Get(base)
	if !ok {
		return nil, nil
	}
	return resolveSitemap(s, key, hasKey)
}

func resolveSitemap(s *Sitemap, key string, hasKey bool) (*target, error) {
	if !s.IsExceeded() {
		return &target{kind: targetDocument, sitemap: s}, nil
	}

	chunks, err := s.Chunk()
	if err != nil {
		return nil, err
	}
	if !hasKey {
		return &target{kind: targetChunksIndex, sitemaps: chunks}, nil
	}

	chunk, ok := chunkAt(chunks, key)
	if !ok {
		return nil, nil
	}
	// chunks already respect the size limit, so they are rendered as documents
	return &target{kind: targetDocument, sitemap: chunk}, nil
}

func (b *Builder) render(view View, format string, data ViewData) ([]byte, error) {
	if data.Settings == nil {
		switch {
		case data.Sitemap != nil:
			data.Settings = data.Sitemap.Settings()
		default:
			if first, ok := data.Sitemaps.First(); ok {
				data.Settings = first.Settings()
			}
		}
	}

	out, err := b.renderer.Render(view, format, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrRender, view, format, err)
	}

	if format == FormatTXT {
		return out, nil
	}

	normalized, err := xmldoc.Normalize(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrRender, view, format, err)
	}
	return normalized, nil
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
