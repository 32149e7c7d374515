package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sitemap is a persisted sitemap definition. Its entries are stored separately and
// reference it by name.
type Sitemap struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Entry is a persisted sitemap URL. Unset optional fields fall back to the sitemap
// defaults when the entry is turned into a URL.
type Entry struct {
	ID         uuid.UUID        `json:"id"`
	Sitemap    string           `json:"sitemap"`
	Loc        string           `json:"loc"`
	Title      string           `json:"title,omitempty"`
	ChangeFreq string           `json:"changefreq,omitempty"`
	Priority   *float64         `json:"priority,omitempty"`
	LastMod    *time.Time       `json:"lastmod,omitempty"`
	Images     []string         `json:"images,omitempty"`
	Attributes *json.RawMessage `json:"attributes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
