package render

import (
	"strings"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

// DefaultStylesLocation is where the published XSL styles are served from.
const DefaultStylesLocation = "/vendor/sitemap/styles/"

// Styles controls the xml-stylesheet processing instruction of xml and rss documents.
type Styles struct {
	Enabled  bool
	Location string
}

// Href returns the stylesheet URL for format, empty when styles are disabled or the
// format is not an XML one.
func (s Styles) Href(format string) string {
	if !s.Enabled || format == sitemap.FormatTXT {
		return ""
	}

	location := s.Location
	if location == "" {
		location = DefaultStylesLocation
	}
	if !strings.HasSuffix(location, "/") {
		location += "/"
	}

	return location + format + ".xsl"
}
