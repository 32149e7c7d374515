package sitemap

import (
	"bytes"
	"encoding/json"
)

// NamedSitemap pairs a sitemap with its key in a Sitemaps set.
type NamedSitemap struct {
	Name string
	*Sitemap
}

// Sitemaps is an insertion-ordered set of named sitemaps. It holds the contents of a
// Manager as well as the chunks of an exceeded sitemap (keyed "1".."n").
type Sitemaps struct {
	names []string
	items map[string]*Sitemap
}

// NewSitemaps creates an empty set.
func NewSitemaps() *Sitemaps {
	return &Sitemaps{items: make(map[string]*Sitemap)}
}

// Put stores s under name, keeping the position of an existing entry.
func (ss *Sitemaps) Put(name string, s *Sitemap) {
	if _, exists := ss.items[name]; !exists {
		ss.names = append(ss.names, name)
	}
	ss.items[name] = s
}

// Get returns the sitemap stored under name.
func (ss *Sitemaps) Get(name string) (*Sitemap, bool) {
	if ss == nil {
		return nil, false
	}
	s, ok := ss.items[name]
	return s, ok
}

// Has reports whether name is present.
func (ss *Sitemaps) Has(name string) bool {
	_, ok := ss.Get(name)
	return ok
}

// Forget removes the given names; unknown names are ignored.
func (ss *Sitemaps) Forget(names ...string) {
	for _, name := range names {
		if _, ok := ss.items[name]; !ok {
			continue
		}
		delete(ss.items, name)
		for i, existing := range ss.names {
			if existing == name {
				ss.names = append(ss.names[:i], ss.names[i+1:]...)
				break
			}
		}
	}
}

// Len returns the number of sitemaps.
func (ss *Sitemaps) Len() int {
	if ss == nil {
		return 0
	}
	return len(ss.names)
}

// Names returns the names in insertion order.
func (ss *Sitemaps) Names() []string {
	names := make([]string, len(ss.names))
	copy(names, ss.names)
	return names
}

// Entries returns the named sitemaps in insertion order.
func (ss *Sitemaps) Entries() []NamedSitemap {
	entries := make([]NamedSitemap, 0, len(ss.names))
	for _, name := range ss.names {
		entries = append(entries, NamedSitemap{Name: name, Sitemap: ss.items[name]})
	}
	return entries
}

// First returns the first sitemap added.
func (ss *Sitemaps) First() (*Sitemap, bool) {
	if ss.Len() == 0 {
		return nil, false
	}
	return ss.items[ss.names[0]], true
}

// MarshalJSON encodes the set as an object keyed by name, in insertion order.
func (ss *Sitemaps) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range ss.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(ss.items[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
