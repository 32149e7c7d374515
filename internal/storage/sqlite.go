package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/romangod6/kb-sitemap/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// single writer; also keeps every query on the same :memory: database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sitemaps (
            id TEXT PRIMARY KEY,
            name TEXT UNIQUE NOT NULL,
            path TEXT,
            description TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sitemap_entries (
            id TEXT PRIMARY KEY,
            sitemap TEXT NOT NULL,
            loc TEXT NOT NULL,
            title TEXT,
            changefreq TEXT,
            priority REAL,
            lastmod TEXT,
            images TEXT,
            attributes TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            UNIQUE(sitemap, loc)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_sitemap_entries_sitemap ON sitemap_entries(sitemap)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *SQLiteStore) SaveSitemap(ctx context.Context, sitemap *models.Sitemap) error {
	query := `
        INSERT INTO sitemaps (id, name, path, description, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            path = excluded.path,
            description = excluded.description,
            updated_at = excluded.updated_at
        RETURNING id
    `

	var idStr string
	err := s.db.QueryRowContext(ctx, query,
		sitemap.ID.String(),
		sitemap.Name,
		sitemap.Path,
		sitemap.Description,
		formatTime(sitemap.CreatedAt),
		formatTime(time.Now()),
	).Scan(&idStr)
	if err != nil {
		return fmt.Errorf("failed to save sitemap %s: %w", sitemap.Name, err)
	}

	sitemap.ID, _ = uuid.Parse(idStr)
	return nil
}

func (s *SQLiteStore) GetSitemap(ctx context.Context, name string) (*models.Sitemap, error) {
	query := `
        SELECT id, name, path, description, created_at, updated_at
        FROM sitemaps
        WHERE name = ?
    `

	sitemap, err := scanSitemap(s.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return sitemap, nil
}

func (s *SQLiteStore) ListSitemaps(ctx context.Context) ([]*models.Sitemap, error) {
	query := `
        SELECT id, name, path, description, created_at, updated_at
        FROM sitemaps
        ORDER BY rowid
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sitemaps []*models.Sitemap
	for rows.Next() {
		sitemap, err := scanSitemap(rows)
		if err != nil {
			return nil, err
		}
		sitemaps = append(sitemaps, sitemap)
	}

	return sitemaps, rows.Err()
}

func (s *SQLiteStore) DeleteSitemap(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sitemap_entries WHERE sitemap = ?`, name); err != nil {
		return fmt.Errorf("failed to delete entries of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sitemaps WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete sitemap %s: %w", name, err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveEntry(ctx context.Context, entry *models.Entry) error {
	query := `
        INSERT INTO sitemap_entries (id, sitemap, loc, title, changefreq, priority, lastmod, images, attributes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(sitemap, loc) DO UPDATE SET
            title = excluded.title,
            changefreq = excluded.changefreq,
            priority = excluded.priority,
            lastmod = excluded.lastmod,
            images = excluded.images,
            attributes = excluded.attributes,
            updated_at = excluded.updated_at
        RETURNING id
    `

	imagesJSON, err := json.Marshal(entry.Images)
	if err != nil {
		return err
	}

	var priority sql.NullFloat64
	if entry.Priority != nil {
		priority = sql.NullFloat64{Float64: *entry.Priority, Valid: true}
	}

	var lastMod sql.NullString
	if entry.LastMod != nil {
		lastMod = sql.NullString{String: formatTime(*entry.LastMod), Valid: true}
	}

	var attributes sql.NullString
	if entry.Attributes != nil {
		attributes = sql.NullString{String: string(*entry.Attributes), Valid: true}
	}

	var idStr string
	err = s.db.QueryRowContext(ctx, query,
		entry.ID.String(),
		entry.Sitemap,
		entry.Loc,
		entry.Title,
		entry.ChangeFreq,
		priority,
		lastMod,
		string(imagesJSON),
		attributes,
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	).Scan(&idStr)
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w", entry.Loc, err)
	}

	entry.ID, _ = uuid.Parse(idStr)
	return nil
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	query := `
        SELECT id, sitemap, loc, title, changefreq, priority, lastmod, images, attributes, created_at, updated_at
        FROM sitemap_entries
        WHERE id = ?
    `

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, sitemap string, limit, offset int) ([]*models.Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
        SELECT id, sitemap, loc, title, changefreq, priority, lastmod, images, attributes, created_at, updated_at
        FROM sitemap_entries
        WHERE sitemap = ?
        ORDER BY rowid
        LIMIT ? OFFSET ?
    `

	rows, err := s.db.QueryContext(ctx, query, sitemap, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) CountEntries(ctx context.Context, sitemap string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sitemap_entries WHERE sitemap = ?`, sitemap).Scan(&count)
	return count, err
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemap_entries WHERE id = ?`, id.String())
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSitemap(row scanner) (*models.Sitemap, error) {
	sitemap := &models.Sitemap{}
	var idStr, createdAt, updatedAt string
	var path, description sql.NullString

	err := row.Scan(
		&idStr,
		&sitemap.Name,
		&path,
		&description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sitemap.ID, _ = uuid.Parse(idStr)
	sitemap.Path = path.String
	sitemap.Description = description.String
	sitemap.CreatedAt = parseTime(createdAt)
	sitemap.UpdatedAt = parseTime(updatedAt)

	return sitemap, nil
}

func scanEntry(row scanner) (*models.Entry, error) {
	entry := &models.Entry{}
	var idStr, createdAt, updatedAt string
	var title, changeFreq, lastMod, images, attributes sql.NullString
	var priority sql.NullFloat64

	err := row.Scan(
		&idStr,
		&entry.Sitemap,
		&entry.Loc,
		&title,
		&changeFreq,
		&priority,
		&lastMod,
		&images,
		&attributes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ID, _ = uuid.Parse(idStr)
	entry.Title = title.String
	entry.ChangeFreq = changeFreq.String
	if priority.Valid {
		p := priority.Float64
		entry.Priority = &p
	}
	if lastMod.Valid && lastMod.String != "" {
		t := parseTime(lastMod.String)
		entry.LastMod = &t
	}
	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &entry.Images); err != nil {
			return nil, fmt.Errorf("invalid images for entry %s: %w", entry.Loc, err)
		}
	}
	if attributes.Valid && attributes.String != "" {
		raw := json.RawMessage(attributes.String)
		entry.Attributes = &raw
	}
	entry.CreatedAt = parseTime(createdAt)
	entry.UpdatedAt = parseTime(updatedAt)

	return entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, value)
	return t
}
