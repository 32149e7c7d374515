package sitemap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Option configures a Manager.
type Option func(*Manager)

// WithFilesystem sets the filesystem Save writes to. The OS filesystem is used by
// default.
func WithFilesystem(fs afero.Fs) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

// WithFormat sets the initial output format.
func WithFormat(format string) Option {
	return func(m *Manager) {
		m.Format(format)
	}
}

// Manager is the registry of named sitemaps for one rendering session. It is not safe
// for concurrent use.
type Manager struct {
	sitemaps *Sitemaps
	format   string
	settings *Settings
	builder  *Builder
	fs       afero.Fs
}

// NewManager creates an empty registry rendering with renderer. Nil settings means
// DefaultSettings.
func NewManager(settings *Settings, renderer Renderer, opts ...Option) *Manager {
	if settings == nil {
		settings = DefaultSettings()
	}

	m := &Manager{
		sitemaps: NewSitemaps(),
		format:   FormatXML,
		settings: settings,
		builder:  NewBuilder(renderer),
		fs:       afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Settings returns the session settings shared with every sitemap created here.
func (m *Manager) Settings() *Settings {
	return m.settings
}

// Format sets the output format used by Render, Save and ContentType.
func (m *Manager) Format(format string) *Manager {
	m.format = normalizeFormat(format)
	return m
}

// CurrentFormat returns the active output format.
func (m *Manager) CurrentFormat() string {
	return m.format
}

// ContentType returns the content type of the active format.
func (m *Manager) ContentType() string {
	return ContentType(m.format)
}

// Add registers s under name, replacing a sitemap with the same name.
func (m *Manager) Add(name string, s *Sitemap) *Manager {
	m.sitemaps.Put(name, s)
	return m
}

// Create registers an empty sitemap whose path is name, after configure has filled it.
func (m *Manager) Create(name string, configure func(*Sitemap) error) error {
	s := NewSitemap(m.settings).SetPath(name)
	if configure != nil {
		if err := configure(s); err != nil {
			return err
		}
	}
	m.Add(name, s)
	return nil
}

// Get returns the sitemap registered under name.
func (m *Manager) Get(name string) (*Sitemap, bool) {
	return m.sitemaps.Get(name)
}

// All returns the registered sitemaps.
func (m *Manager) All() *Sitemaps {
	return m.sitemaps
}

// Count returns the number of registered sitemaps.
func (m *Manager) Count() int {
	return m.sitemaps.Len()
}

// Has reports whether name is registered. A dotted name "blog.3" is true only when
// "blog" is exceeded and has a third chunk.
func (m *Manager) Has(name string) bool {
	base, key, hasKey := splitAddress(name)
	if !hasKey {
		return m.sitemaps.Has(name)
	}

	s, ok := m.sitemaps.Get(base)
	if !ok || !s.IsExceeded() {
		return false
	}
	chunks, err := s.Chunk()
	if err != nil {
		return false
	}
	_, ok = chunkAt(chunks, key)
	return ok
}

// Forget removes the named sitemaps.
func (m *Manager) Forget(names ...string) *Manager {
	m.sitemaps.Forget(names...)
	return m
}

// Render renders name, or the whole registry when name is empty, in the active format.
func (m *Manager) Render(name string) ([]byte, error) {
	return m.builder.Build(name, m.sitemaps, m.format)
}

// Save writes Render(name) to path, then writes every chunk of every exceeded sitemap
// next to it. Two files resolving to the same name fail with ErrConfiguration before
// anything is written. Files are written one at a time; a failure leaves the files
// written so far in place.
func (m *Manager) Save(path, name string) error {
	data, err := m.Render(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)

	type chunkFile struct {
		file    string
		sitemap *Sitemap
	}
	var files []chunkFile
	owners := map[string]string{filepath.Clean(path): "the primary document"}

	for _, entry := range m.sitemaps.Entries() {
		if !entry.IsExceeded() {
			continue
		}

		chunks, err := entry.Chunk()
		if err != nil {
			return fmt.Errorf("failed to chunk sitemap %s: %w", entry.Name, err)
		}

		for _, chunk := range chunks.Entries() {
			file := filepath.Join(dir, FileName(chunk.Path(), ext))
			owner := fmt.Sprintf("chunk %s of sitemap %s", chunk.Name, entry.Name)
			if other, taken := owners[file]; taken {
				return fmt.Errorf("%w: %s and %s both write %s", ErrConfiguration, other, owner, file)
			}
			owners[file] = owner
			files = append(files, chunkFile{file: file, sitemap: chunk.Sitemap})
		}
	}

	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if data != nil {
		if err := afero.WriteFile(m.fs, path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	for _, f := range files {
		chunkData, err := m.builder.Document(f.sitemap, m.format)
		if err != nil {
			return err
		}
		if chunkData == nil {
			continue
		}

		if err := afero.WriteFile(m.fs, f.file, chunkData, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.file, err)
		}
	}

	return nil
}

// Write writes Render(name) to path alone, without chunk files. It reports false when
// there was nothing to render.
func (m *Manager) Write(path, name string) (bool, error) {
	data, err := m.Render(name)
	if err != nil || data == nil {
		return false, err
	}

	dir := filepath.Dir(path)
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := afero.WriteFile(m.fs, path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// ToMap returns every sitemap's records keyed by sitemap name.
func (m *Manager) ToMap() map[string][]map[string]any {
	out := make(map[string][]map[string]any, m.sitemaps.Len())
	for _, entry := range m.sitemaps.Entries() {
		out[entry.Name] = entry.ToSlice()
	}
	return out
}

// MarshalJSON encodes the registry as {name: [record, ...]} in registration order.
func (m *Manager) MarshalJSON() ([]byte, error) {
	return m.sitemaps.MarshalJSON()
}

// FileName returns the base name of a sitemap or chunk path, with ext appended when
// the path carries no extension of its own.
func FileName(sitemapPath, ext string) string {
	base := sitemapPath
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if strings.LastIndex(base, ".") <= 0 {
		base += ext
	}
	return base
}
