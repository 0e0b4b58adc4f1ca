// Package catalog keeps a persistent SQLite index of the assets written
// to an assets directory, so tools can list and inspect stored geometry
// without opening every file.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/platen/pkg/asset"
	"github.com/chazu/platen/pkg/mesh"
	_ "modernc.org/sqlite"
)

// FileName is the default database file name inside an assets directory.
const FileName = "catalog.db"

// ErrNotFound is returned by Lookup for an unknown identity.
var ErrNotFound = errors.New("catalog: asset not found")

const schema = `CREATE TABLE IF NOT EXISTS assets (
    id TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    vertices INTEGER NOT NULL,
    triangles INTEGER NOT NULL,
    bytes INTEGER NOT NULL,
    stored_at TEXT NOT NULL
);`

// Catalog is a SQLite-backed asset.Index.
type Catalog struct {
	db *sql.DB
}

var _ asset.Index = (*Catalog)(nil)

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// One writer at a time; asset stores can arrive from several goroutines.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record inserts or replaces the entry for e.ID.
func (c *Catalog) Record(ctx context.Context, e asset.Entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO assets (id, path, vertices, triangles, bytes, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   path = excluded.path,
		   vertices = excluded.vertices,
		   triangles = excluded.triangles,
		   bytes = excluded.bytes`,
		e.ID.String(), e.Path, e.Vertices, e.Triangles, e.Bytes,
		e.StoredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("catalog: record %s: %w", e.ID.Short(), err)
	}
	return nil
}

// List returns every entry ordered by store time, then identity.
func (c *Catalog) List(ctx context.Context) ([]asset.Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, path, vertices, triangles, bytes, stored_at
		 FROM assets ORDER BY stored_at, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []asset.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return out, nil
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(ctx context.Context, id mesh.ID) (asset.Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, path, vertices, triangles, bytes, stored_at
		 FROM assets WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Entry{}, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (asset.Entry, error) {
	var (
		e        asset.Entry
		id       string
		storedAt string
	)
	if err := s.Scan(&id, &e.Path, &e.Vertices, &e.Triangles, &e.Bytes, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("catalog: scan: %w", err)
	}
	parsed, err := mesh.ParseID(id)
	if err != nil {
		return e, fmt.Errorf("catalog: row %q: %w", id, err)
	}
	e.ID = parsed
	if e.StoredAt, err = time.Parse(time.RFC3339Nano, storedAt); err != nil {
		return e, fmt.Errorf("catalog: row %q: %w", id, err)
	}
	return e, nil
}
