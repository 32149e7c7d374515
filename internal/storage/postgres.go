package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/romangod6/kb-sitemap/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sitemaps (
            id UUID PRIMARY KEY,
            seq BIGSERIAL,
            name VARCHAR(255) UNIQUE NOT NULL,
            path VARCHAR(2048),
            description TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sitemap_entries (
            id UUID PRIMARY KEY,
            seq BIGSERIAL,
            sitemap VARCHAR(255) NOT NULL,
            loc VARCHAR(2048) NOT NULL,
            title TEXT,
            changefreq VARCHAR(16),
            priority DOUBLE PRECISION,
            lastmod TIMESTAMPTZ,
            images TEXT[],
            attributes JSONB,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (sitemap, loc)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_sitemap_entries_sitemap ON sitemap_entries(sitemap, seq)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) SaveSitemap(ctx context.Context, sitemap *models.Sitemap) error {
	query := `
        INSERT INTO sitemaps (id, name, path, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (name) DO UPDATE SET
            path = EXCLUDED.path,
            description = EXCLUDED.description,
            updated_at = CURRENT_TIMESTAMP
        RETURNING id
    `

	err := s.db.QueryRowContext(ctx, query,
		sitemap.ID,
		sitemap.Name,
		sitemap.Path,
		sitemap.Description,
		sitemap.CreatedAt,
		time.Now(),
	).Scan(&sitemap.ID)
	if err != nil {
		return fmt.Errorf("failed to save sitemap %s: %w", sitemap.Name, err)
	}

	return nil
}

func (s *PostgresStore) GetSitemap(ctx context.Context, name string) (*models.Sitemap, error) {
	query := `
        SELECT id, name, path, description, created_at, updated_at
        FROM sitemaps
        WHERE name = $1
    `

	sitemap, err := scanPostgresSitemap(s.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return sitemap, nil
}

func (s *PostgresStore) ListSitemaps(ctx context.Context) ([]*models.Sitemap, error) {
	query := `
        SELECT id, name, path, description, created_at, updated_at
        FROM sitemaps
        ORDER BY seq
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sitemaps []*models.Sitemap
	for rows.Next() {
		sitemap, err := scanPostgresSitemap(rows)
		if err != nil {
			return nil, err
		}
		sitemaps = append(sitemaps, sitemap)
	}

	return sitemaps, rows.Err()
}

func (s *PostgresStore) DeleteSitemap(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sitemap_entries WHERE sitemap = $1`, name); err != nil {
		return fmt.Errorf("failed to delete entries of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sitemaps WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete sitemap %s: %w", name, err)
	}

	return tx.Commit()
}

func (s *PostgresStore) SaveEntry(ctx context.Context, entry *models.Entry) error {
	query := `
        INSERT INTO sitemap_entries (id, sitemap, loc, title, changefreq, priority, lastmod, images, attributes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (sitemap, loc) DO UPDATE SET
            title = EXCLUDED.title,
            changefreq = EXCLUDED.changefreq,
            priority = EXCLUDED.priority,
            lastmod = EXCLUDED.lastmod,
            images = EXCLUDED.images,
            attributes = EXCLUDED.attributes,
            updated_at = EXCLUDED.updated_at
        RETURNING id
    `

	var attributes any
	if entry.Attributes != nil {
		attributes = []byte(*entry.Attributes)
	}

	err := s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.Sitemap,
		entry.Loc,
		entry.Title,
		entry.ChangeFreq,
		entry.Priority,
		entry.LastMod,
		pq.Array(entry.Images),
		attributes,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w", entry.Loc, err)
	}

	return nil
}

func (s *PostgresStore) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	query := `
        SELECT id, sitemap, loc, title, changefreq, priority, lastmod, images, attributes, created_at, updated_at
        FROM sitemap_entries
        WHERE id = $1
    `

	entry, err := scanPostgresEntry(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *PostgresStore) ListEntries(ctx context.Context, sitemap string, limit, offset int) ([]*models.Entry, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	query := `
        SELECT id, sitemap, loc, title, changefreq, priority, lastmod, images, attributes, created_at, updated_at
        FROM sitemap_entries
        WHERE sitemap = $1
        ORDER BY seq
        LIMIT $2 OFFSET $3
    `

	rows, err := s.db.QueryContext(ctx, query, sitemap, limitArg, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *PostgresStore) CountEntries(ctx context.Context, sitemap string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sitemap_entries WHERE sitemap = $1`, sitemap).Scan(&count)
	return count, err
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemap_entries WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func scanPostgresSitemap(row scanner) (*models.Sitemap, error) {
	sitemap := &models.Sitemap{}
	var path, description sql.NullString

	err := row.Scan(
		&sitemap.ID,
		&sitemap.Name,
		&path,
		&description,
		&sitemap.CreatedAt,
		&sitemap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sitemap.Path = path.String
	sitemap.Description = description.String
	return sitemap, nil
}

func scanPostgresEntry(row scanner) (*models.Entry, error) {
	entry := &models.Entry{}
	var title, changeFreq sql.NullString
	var priority sql.NullFloat64
	var lastMod sql.NullTime
	var images []string
	var attributes []byte

	err := row.Scan(
		&entry.ID,
		&entry.Sitemap,
		&entry.Loc,
		&title,
		&changeFreq,
		&priority,
		&lastMod,
		pq.Array(&images),
		&attributes,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Title = title.String
	entry.ChangeFreq = changeFreq.String
	if priority.Valid {
		p := priority.Float64
		entry.Priority = &p
	}
	if lastMod.Valid {
		t := lastMod.Time
		entry.LastMod = &t
	}
	entry.Images = images
	if len(attributes) > 0 {
		raw := json.RawMessage(attributes)
		entry.Attributes = &raw
	}

	return entry, nil
}
