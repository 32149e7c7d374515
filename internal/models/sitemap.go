package models

import (
	"time"

	"github.com/google/uuid"
)

// NewSitemap creates a new sitemap definition with generated UUID and timestamps
func NewSitemap(name string) *Sitemap {
	now := time.Now()
	return &Sitemap{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PathOr returns the definition path, or fallback when none was stored
func (s *Sitemap) PathOr(fallback string) string {
	if s.Path == "" {
		return fallback
	}
	return s.Path
}
