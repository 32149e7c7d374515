package sitemap

import "time"

const (
	// DefaultMaxSize is the protocol limit of URLs per sitemap document.
	DefaultMaxSize = 50000

	// ATOM is the default lastmod layout (2017-01-01T00:00:00+00:00).
	ATOM = "2006-01-02T15:04:05-07:00"

	// InputDateLayout is the layout accepted for lastmod values given as plain strings.
	InputDateLayout = "2006-01-02 15:04:05"
)

// Settings is the rendering session configuration shared by a Manager, its sitemaps,
// their chunks and the templates. Fields are read on every call, so changing MaxSize
// between two calls changes the outcome of the second one.
type Settings struct {
	MaxSize    int
	Escaping   bool
	DateLayout string
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() *Settings {
	return &Settings{
		MaxSize:    DefaultMaxSize,
		Escaping:   true,
		DateLayout: ATOM,
	}
}

func (s *Settings) maxSize() int {
	if s == nil || s.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return s.MaxSize
}

func (s *Settings) escaping() bool {
	if s == nil {
		return true
	}
	return s.Escaping
}

func (s *Settings) dateLayout() string {
	if s == nil || s.DateLayout == "" {
		return ATOM
	}
	return s.DateLayout
}

// FormatDate formats t with the session date layout.
func (s *Settings) FormatDate(t time.Time) string {
	return t.Format(s.dateLayout())
}

// Escape applies XML entity escaping to value when escaping is enabled.
func (s *Settings) Escape(value string) string {
	if !s.escaping() {
		return value
	}
	return escapeXML(value)
}
