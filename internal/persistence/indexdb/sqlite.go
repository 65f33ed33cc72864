// Package indexdb keeps a queryable sqlite index of saved templates. The record
// files stay the source of truth; the index can be rebuilt from them.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"blueprints.ai/internal/catalogs"
)

type SQLiteIndex struct {
	db   *sql.DB
	once sync.Once
}

// Row describes one saved template.
type Row struct {
	Name    string
	Path    string
	Digest  string
	Entries int
	Width   int
	Depth   int
	SavedAt time.Time
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			count INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS templates (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			entries INTEGER NOT NULL,
			width INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			saved_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_templates_saved_at ON templates(saved_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}

// Upsert records r, replacing any row with the same name.
func (s *SQLiteIndex) Upsert(r Row) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO templates(name, path, digest, entries, width, depth, saved_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path=excluded.path,
			digest=excluded.digest,
			entries=excluded.entries,
			width=excluded.width,
			depth=excluded.depth,
			saved_at=excluded.saved_at`,
		r.Name, r.Path, r.Digest, r.Entries, r.Width, r.Depth, r.SavedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", r.Name, err)
	}
	return nil
}

func (s *SQLiteIndex) Delete(name string) error {
	if s == nil {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM templates WHERE name=?`, name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns every indexed template, newest first.
func (s *SQLiteIndex) List() ([]Row, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT name, path, digest, entries, width, depth, saved_at
		FROM templates ORDER BY saved_at DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r  Row
			ms int64
		)
		if err := rows.Scan(&r.Name, &r.Path, &r.Digest, &r.Entries, &r.Width, &r.Depth, &ms); err != nil {
			return nil, err
		}
		r.SavedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindByDigest returns the names of templates with identical contents.
func (s *SQLiteIndex) FindByDigest(digest string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT name FROM templates WHERE digest=? ORDER BY name`, digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpsertCatalogs records which def set templates are being saved against.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	rows := []struct {
		name   string
		digest string
		count  int
	}{
		{"things", cats.Things.Digest, len(cats.Things.Names)},
		{"terrains", cats.Terrains.Digest, len(cats.Terrains.Names)},
		{"stuff", cats.Stuff.Digest, len(cats.Stuff.Names)},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT INTO catalogs(name, digest, count, updated_at) VALUES(?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, count=excluded.count, updated_at=excluded.updated_at`,
			r.name, r.digest, r.count, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CatalogDigest returns the digest last recorded for the named catalog.
func (s *SQLiteIndex) CatalogDigest(name string) (string, bool, error) {
	if s == nil {
		return "", false, nil
	}
	var d string
	err := s.db.QueryRow(`SELECT digest FROM catalogs WHERE name=?`, name).Scan(&d)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return d, true, nil
}
