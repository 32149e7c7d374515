package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

// ImagesAttribute is the URL extension attribute entry images are exposed under.
const ImagesAttribute = "images"

// NewEntry creates a new entry with generated UUID and timestamps
func NewEntry(sitemapName, loc string) *Entry {
	now := time.Now()
	return &Entry{
		ID:        uuid.New(),
		Sitemap:   sitemapName,
		Loc:       loc,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// URL converts the entry into a sitemap URL. Extra attributes stored as a JSON object
// become extension attributes; they never override the first-class fields.
func (e *Entry) URL() (*sitemap.URL, error) {
	attrs := map[string]any{}

	if e.Attributes != nil && len(*e.Attributes) > 0 {
		if err := json.Unmarshal(*e.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("invalid attributes for %s: %w", e.Loc, err)
		}
		for _, key := range []string{sitemap.KeyLastMod, sitemap.KeyChangeFreq, sitemap.KeyPriority, sitemap.KeyTitle} {
			delete(attrs, key)
		}
	}

	attrs[sitemap.KeyLoc] = e.Loc
	if e.Title != "" {
		attrs[sitemap.KeyTitle] = e.Title
	}
	if e.ChangeFreq != "" {
		attrs[sitemap.KeyChangeFreq] = e.ChangeFreq
	}
	if e.Priority != nil {
		attrs[sitemap.KeyPriority] = *e.Priority
	}
	if e.LastMod != nil {
		attrs[sitemap.KeyLastMod] = *e.LastMod
	} else {
		attrs[sitemap.KeyLastMod] = e.UpdatedAt
	}
	if len(e.Images) > 0 {
		attrs[ImagesAttribute] = e.Images
	}

	return sitemap.NewURLFromMap(attrs)
}

// Validate checks the entry can be turned into a URL.
func (e *Entry) Validate() error {
	if e.Sitemap == "" {
		return fmt.Errorf("%w: entry has no sitemap", sitemap.ErrValidation)
	}
	_, err := e.URL()
	return err
}
