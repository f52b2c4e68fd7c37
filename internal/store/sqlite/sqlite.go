// Package sqlite provides a file-backed resource store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/resourcevault/internal/core"
)

// DefaultBatchSize is the number of rows committed per CreateMany transaction.
const DefaultBatchSize = 500

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS resources (
    id         TEXT PRIMARY KEY,
    url        TEXT NOT NULL,
    login      TEXT NOT NULL,
    password   TEXT NOT NULL,
    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TEXT NOT NULL
)`

const (
	insertResource = `
INSERT INTO resources (id, url, login, password, is_active, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	selectResources = `
SELECT id, url, login, password, is_active, created_at
FROM resources
ORDER BY rowid ASC`

	updateResource = `
UPDATE resources SET is_active = ?
WHERE id = ?
RETURNING id, url, login, password, is_active, created_at`

	deleteResource = `DELETE FROM resources WHERE id = ?`
)

// Store is a core.ResourceStore backed by a SQLite database.
type Store struct {
	db        *sql.DB
	batchSize int
}

var _ core.ResourceStore = (*Store)(nil)

// New wraps an open database. The resources table must already exist.
func New(db *sql.DB, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{db: db, batchSize: batchSize}
}

// Open opens (creating if needed) the database file at path and ensures the
// resources table exists.
//
// SQLite allows a single writer, so the pool is limited to one connection;
// this also keeps ":memory:" databases shared across calls.
func Open(ctx context.Context, path string, batchSize int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: db path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return New(db, batchSize), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResource(row scanner) (core.Resource, error) {
	var (
		res       core.Resource
		createdAt string
	)
	if err := row.Scan(&res.ID, &res.URL, &res.Login, &res.Password, &res.IsActive, &createdAt); err != nil {
		return core.Resource{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return core.Resource{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	res.CreatedAt = t.UTC()
	return res, nil
}

func insertArgs(res core.Resource) []any {
	return []any{res.ID, res.URL, res.Login, res.Password, res.IsActive, res.CreatedAt.UTC().Format(timeLayout)}
}

func (s *Store) Create(ctx context.Context, d core.ResourceDraft) (core.Resource, error) {
	res := core.NewResource(d)
	if _, err := s.db.ExecContext(ctx, insertResource, insertArgs(res)...); err != nil {
		return core.Resource{}, core.NewStorageError("sqlite: create", err)
	}
	return res, nil
}

// List returns resources in insertion order.
func (s *Store) List(ctx context.Context) ([]core.Resource, error) {
	rows, err := s.db.QueryContext(ctx, selectResources)
	if err != nil {
		return nil, core.NewStorageError("sqlite: list", err)
	}
	defer func() { _ = rows.Close() }()

	resources := make([]core.Resource, 0, 32)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, core.NewStorageError("sqlite: list", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("sqlite: list", err)
	}
	return resources, nil
}

func (s *Store) Update(ctx context.Context, id string, isActive bool) (core.Resource, error) {
	res, err := scanResource(s.db.QueryRowContext(ctx, updateResource, isActive, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Resource{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Resource{}, core.NewStorageError("sqlite: update", err)
	}
	return res, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, deleteResource, id)
	if err != nil {
		return core.NewStorageError("sqlite: delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return core.NewStorageError("sqlite: delete", err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// CreateMany inserts drafts in transactions of batchSize rows. Each
// transaction commits on its own, so a failure leaves earlier chunks stored;
// those rows are returned alongside the error.
func (s *Store) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	created := make([]core.Resource, 0, len(drafts))
	for start := 0; start < len(drafts); start += s.batchSize {
		end := min(start+s.batchSize, len(drafts))
		chunk, err := s.insertChunk(ctx, drafts[start:end])
		if err != nil {
			return created, core.NewStorageError("sqlite: create many", err)
		}
		created = append(created, chunk...)
	}
	return created, nil
}

func (s *Store) insertChunk(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertResource)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	chunk := make([]core.Resource, 0, len(drafts))
	for _, d := range drafts {
		res := core.NewResource(d)
		if _, err := stmt.ExecContext(ctx, insertArgs(res)...); err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		chunk = append(chunk, res)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return chunk, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return core.NewStorageError("sqlite: ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
