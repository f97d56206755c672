package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/instasearch/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		position INTEGER PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		metadata TEXT,
		imported_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceItems deletes the current snapshot and inserts items in one transaction.
// Duplicate slugs fail the whole replacement.
func (s *SQLiteStorage) ReplaceItems(ctx context.Context, items []models.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (position, slug, title, description, metadata, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, it := range items {
		metadataJSON, err := json.Marshal(it.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", it.Slug, err)
		}
		if _, err := stmt.ExecContext(ctx, i, it.Slug, it.Title, it.Description, string(metadataJSON), now); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.Slug, err)
		}
	}
	return tx.Commit()
}

// ListItems returns all items ordered by position.
func (s *SQLiteStorage) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, title, description, metadata FROM items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetItem returns the item with the given slug.
func (s *SQLiteStorage) GetItem(ctx context.Context, slug string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT slug, title, description, metadata FROM items WHERE slug = ?`, slug)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// CountItems returns the number of items in the snapshot.
func (s *SQLiteStorage) CountItems(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

// LastImport returns when the snapshot was written, or zero when it is empty.
func (s *SQLiteStorage) LastImport(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx, `SELECT imported_at FROM items LIMIT 1`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return t, err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*models.Item, error) {
	var it models.Item
	var metadataJSON sql.NullString
	if err := sc.Scan(&it.Slug, &it.Title, &it.Description, &metadataJSON); err != nil {
		return nil, err
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &it.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", it.Slug, err)
		}
	}
	return &it, nil
}
