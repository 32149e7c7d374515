// Package render produces sitemap documents from embedded text templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"text/template"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

//go:embed views
var views embed.FS

// ImagesKey and DescriptionKey are the URL extension attributes the views read.
const (
	ImagesKey      = "images"
	DescriptionKey = "description"
)

var (
	viewNames = []sitemap.View{sitemap.ViewSitemap, sitemap.ViewSitemapIndex}
	formats   = []string{sitemap.FormatXML, sitemap.FormatRSS, sitemap.FormatTXT}
)

// viewModel is what the templates execute against.
type viewModel struct {
	Stylesheet string
	Sitemap    *sitemap.Sitemap
	Sitemaps   []sitemap.NamedSitemap
}

// Templates renders the embedded sitemap and sitemap-index views. It implements
// sitemap.Renderer and is safe for concurrent use.
type Templates struct {
	views  map[string]*template.Template
	styles Styles
}

// NewTemplates parses every embedded view.
func NewTemplates(styles Styles) (*Templates, error) {
	t := &Templates{
		views:  make(map[string]*template.Template),
		styles: styles,
	}

	for _, view := range viewNames {
		for _, format := range formats {
			file := fmt.Sprintf("views/%s/%s.tmpl", view, format)
			tmpl, err := template.New(format + ".tmpl").
				Funcs(funcMap(nil)).
				ParseFS(views, file)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", file, err)
			}
			t.views[viewKey(view, format)] = tmpl
		}
	}

	return t, nil
}

// Render executes the view for format with data.
func (t *Templates) Render(view sitemap.View, format string, data sitemap.ViewData) ([]byte, error) {
	tmpl, ok := t.views[viewKey(view, format)]
	if !ok {
		return nil, fmt.Errorf("no %s view for format %q", view, format)
	}

	session, err := tmpl.Clone()
	if err != nil {
		return nil, err
	}
	session.Funcs(funcMap(data.Settings))

	model := viewModel{
		Stylesheet: template.HTMLEscapeString(t.styles.Href(format)),
		Sitemap:    data.Sitemap,
	}
	if data.Sitemaps != nil {
		model.Sitemaps = data.Sitemaps.Entries()
	}

	var buf bytes.Buffer
	if err := session.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("failed to execute %s view: %w", viewKey(view, format), err)
	}
	return buf.Bytes(), nil
}

func viewKey(view sitemap.View, format string) string {
	return string(view) + "/" + format
}

func funcMap(settings *sitemap.Settings) template.FuncMap {
	if settings == nil {
		settings = sitemap.DefaultSettings()
	}

	return template.FuncMap{
		"esc": settings.Escape,
		"lastmod": func(u *sitemap.URL) string {
			if u.LastMod().IsZero() {
				return ""
			}
			return settings.FormatDate(u.LastMod())
		},
		"latestmod": func(s *sitemap.Sitemap) string {
			latest := s.LastModified()
			if latest.IsZero() {
				return ""
			}
			return settings.FormatDate(latest)
		},
		"priority": func(p float64) string {
			return strconv.FormatFloat(p, 'f', 1, 64)
		},
		"images": func(u *sitemap.URL) []string {
			return u.Strings(ImagesKey)
		},
		"description": func(u *sitemap.URL) string {
			description, _ := u.Get(DescriptionKey, "").(string)
			return description
		},
	}
}
