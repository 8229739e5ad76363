// Package sqlite provides a SQLite-backed document store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/questscribe/pkg/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists one JSON payload row per document name.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite document store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", domain.ErrIOFailure, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %v", domain.ErrIOFailure, err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrationsFS, "migrations"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save upserts the document row.
func (s *Store) Save(ctx context.Context, name string, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: document name is required", domain.ErrInvalidFormat)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	now := s.now().UTC().UnixMilli()
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO documents (name, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name, string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("%w: save document %s: %v", domain.ErrIOFailure, name, err)
	}
	return nil
}

// Load reads and decodes the document row.
func (s *Store) Load(ctx context.Context, name string) (*domain.Document, error) {
	var payload string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM documents WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load document %s: %v", domain.ErrIOFailure, name, err)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidFormat, name, err)
	}
	return &doc, nil
}

// Delete removes the document row.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("%w: delete document %s: %v", domain.ErrIOFailure, name, err)
	}
	return nil
}

// List returns every document name, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrIOFailure, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan document name: %v", domain.ErrIOFailure, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrIOFailure, err)
	}
	return names, nil
}
