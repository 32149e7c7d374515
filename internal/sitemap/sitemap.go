// Package sitemap holds the sitemap data model and the rules deciding how a set of
// named sitemaps is split and rendered: URLs, sitemaps, their chunks, the Manager
// registry and the Builder.
package sitemap

import (
	"encoding/json"
	"strconv"
	"time"
)

// Sitemap is an ordered set of URLs keyed by location. Adding a URL whose location
// is already present replaces it in place.
type Sitemap struct {
	path     string
	locs     []string
	urls     map[string]*URL
	settings *Settings
}

// NewSitemap creates an empty sitemap bound to settings; nil means DefaultSettings.
func NewSitemap(settings *Settings) *Sitemap {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &Sitemap{
		urls:     make(map[string]*URL),
		settings: settings,
	}
}

// Settings returns the session settings the sitemap reads its limits from.
func (s *Sitemap) Settings() *Settings {
	return s.settings
}

// Path returns the sitemap path, empty when unset.
func (s *Sitemap) Path() string {
	return s.path
}

// SetPath sets the path chunk paths are derived from.
func (s *Sitemap) SetPath(path string) *Sitemap {
	s.path = path
	return s
}

// Add inserts u, replacing any URL with the same location.
func (s *Sitemap) Add(u *URL) *Sitemap {
	if u == nil {
		return s
	}
	if _, exists := s.urls[u.loc]; !exists {
		s.locs = append(s.locs, u.loc)
	}
	s.urls[u.loc] = u
	return s
}

// AddMany adds every URL in order; the last one wins on duplicate locations.
func (s *Sitemap) AddMany(urls []*URL) *Sitemap {
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// Create builds a URL for loc, lets configure adjust it, then adds it.
func (s *Sitemap) Create(loc string, configure func(*URL) error) error {
	u, err := NewURL(loc)
	if err != nil {
		return err
	}
	if configure != nil {
		if err := configure(u); err != nil {
			return err
		}
	}
	s.Add(u)
	return nil
}

// Has reports whether a URL with exactly this location exists.
func (s *Sitemap) Has(loc string) bool {
	_, ok := s.urls[loc]
	return ok
}

// Get returns the URL with exactly this location.
func (s *Sitemap) Get(loc string) (*URL, bool) {
	u, ok := s.urls[loc]
	return u, ok
}

// URLs returns the URLs in insertion order.
func (s *Sitemap) URLs() []*URL {
	urls := make([]*URL, 0, len(s.locs))
	for _, loc := range s.locs {
		urls = append(urls, s.urls[loc])
	}
	return urls
}

// Count returns the number of URLs.
func (s *Sitemap) Count() int {
	return len(s.urls)
}

// MaxSize returns the current size threshold.
func (s *Sitemap) MaxSize() int {
	return s.settings.maxSize()
}

// IsExceeded reports whether the sitemap holds more URLs than MaxSize.
func (s *Sitemap) IsExceeded() bool {
	return s.Count() > s.MaxSize()
}

// LastModified returns the most recent lastmod across the URLs, zero if none has one.
func (s *Sitemap) LastModified() time.Time {
	var latest time.Time
	for _, u := range s.urls {
		if u.lastMod.After(latest) {
			latest = u.lastMod
		}
	}
	return latest
}

// Chunk splits the URLs, in order, into groups of at most MaxSize. Chunks are new
// sitemaps keyed "1".."n" that share the URL values of s; their paths insert "-{i}"
// before the extension of the sitemap path. A sitemap that is not exceeded yields a
// single chunk.
func (s *Sitemap) Chunk() (*Sitemaps, error) {
	if _, err := chunkPath(s.path, 1); err != nil {
		return nil, err
	}

	size := s.MaxSize()
	urls := s.URLs()
	groups := (len(urls) + size - 1) / size
	if groups == 0 {
		groups = 1
	}

	chunks := NewSitemaps()
	for i := 0; i < groups; i++ {
		start := i * size
		end := min(start+size, len(urls))

		path, err := chunkPath(s.path, i+1)
		if err != nil {
			return nil, err
		}

		chunk := NewSitemap(s.settings).SetPath(path)
		chunk.AddMany(urls[start:end])
		chunks.Put(strconv.Itoa(i+1), chunk)
	}

	return chunks, nil
}

// ToSlice returns the URL attribute maps in order, lastmod formatted with the
// session date layout.
func (s *Sitemap) ToSlice() []map[string]any {
	items := make([]map[string]any, 0, len(s.locs))
	for _, u := range s.URLs() {
		items = append(items, u.ToMapWithLayout(s.settings.dateLayout()))
	}
	return items
}

// MarshalJSON encodes the sitemap as its list of URLs.
func (s *Sitemap) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToSlice())
}
