package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/romangod6/kb-sitemap/internal/models"
)

// Store persists sitemap definitions and their entries. Getters return (nil, nil)
// when nothing matches.
type Store interface {
	Initialize() error
	Close() error

	// Sitemap definition operations
	SaveSitemap(ctx context.Context, sitemap *models.Sitemap) error
	GetSitemap(ctx context.Context, name string) (*models.Sitemap, error)
	ListSitemaps(ctx context.Context) ([]*models.Sitemap, error)
	DeleteSitemap(ctx context.Context, name string) error

	// Entry operations
	SaveEntry(ctx context.Context, entry *models.Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListEntries(ctx context.Context, sitemap string, limit, offset int) ([]*models.Entry, error)
	CountEntries(ctx context.Context, sitemap string) (int, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

// New opens the store for driver: "postgres", or "sqlite" for the SQLite build in use.
func New(driver, url string) (Store, error) {
	switch driver {
	case "postgres", "postgresql":
		return NewPostgresStore(url)
	default:
		return NewSQLiteStore(url)
	}
}
