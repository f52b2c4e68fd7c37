// Package postgres provides a resource store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/core"
)

// DefaultBatchSize is the number of rows sent per COPY in CreateMany.
const DefaultBatchSize = 500

const schema = `
CREATE TABLE IF NOT EXISTS resources (
    seq        BIGINT GENERATED ALWAYS AS IDENTITY,
    id         TEXT PRIMARY KEY,
    url        TEXT NOT NULL,
    login      TEXT NOT NULL,
    password   TEXT NOT NULL,
    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL
)`

const (
	insertResource = `
INSERT INTO resources (id, url, login, password, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	selectResources = `
SELECT id, url, login, password, is_active, created_at
FROM resources
ORDER BY seq ASC`

	updateResource = `
UPDATE resources SET is_active = $1
WHERE id = $2
RETURNING id, url, login, password, is_active, created_at`

	deleteResource = `DELETE FROM resources WHERE id = $1`
)

// copyColumns lists resource columns in the order copyRow emits values.
var copyColumns = []string{"id", "url", "login", "password", "is_active", "created_at"}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is a core.ResourceStore backed by PostgreSQL.
type Store struct {
	db        DBTX
	pool      *pgxpool.Pool
	batchSize int
}

var _ core.ResourceStore = (*Store)(nil)

// New wraps an existing pool. The resources table must already exist.
func New(pool *pgxpool.Pool, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{db: pool, pool: pool, batchSize: batchSize}
}

// Open connects using cfg, verifies the connection and ensures the
// resources table exists.
func Open(ctx context.Context, cfg config.DatabaseConfig, batchSize int) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}

	return New(pool, batchSize), nil
}

func scanResource(row pgx.Row) (core.Resource, error) {
	var res core.Resource
	if err := row.Scan(&res.ID, &res.URL, &res.Login, &res.Password, &res.IsActive, &res.CreatedAt); err != nil {
		return core.Resource{}, err
	}
	res.CreatedAt = res.CreatedAt.UTC()
	return res, nil
}

func copyRow(res core.Resource) []any {
	return []any{res.ID, res.URL, res.Login, res.Password, res.IsActive, res.CreatedAt}
}

func (s *Store) Create(ctx context.Context, d core.ResourceDraft) (core.Resource, error) {
	res := core.NewResource(d)
	if _, err := s.db.Exec(ctx, insertResource, copyRow(res)...); err != nil {
		return core.Resource{}, core.NewStorageError("postgres: create", err)
	}
	return res, nil
}

// List returns resources in insertion order.
func (s *Store) List(ctx context.Context) ([]core.Resource, error) {
	rows, err := s.db.Query(ctx, selectResources)
	if err != nil {
		return nil, core.NewStorageError("postgres: list", err)
	}
	defer rows.Close()

	resources := make([]core.Resource, 0, 32)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, core.NewStorageError("postgres: list", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("postgres: list", err)
	}
	return resources, nil
}

func (s *Store) Update(ctx context.Context, id string, isActive bool) (core.Resource, error) {
	res, err := scanResource(s.db.QueryRow(ctx, updateResource, isActive, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Resource{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Resource{}, core.NewStorageError("postgres: update", err)
	}
	return res, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, deleteResource, id)
	if err != nil {
		return core.NewStorageError("postgres: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// CreateMany streams drafts with the COPY protocol in chunks of batchSize.
// Each COPY is atomic on its own; after a failure the rows from earlier
// chunks remain and are returned with the error.
func (s *Store) CreateMany(ctx context.Context, drafts []core.ResourceDraft) ([]core.Resource, error) {
	created := make([]core.Resource, 0, len(drafts))
	for start := 0; start < len(drafts); start += s.batchSize {
		end := min(start+s.batchSize, len(drafts))

		chunk := make([]core.Resource, 0, end-start)
		rows := make([][]any, 0, end-start)
		for _, d := range drafts[start:end] {
			res := core.NewResource(d)
			chunk = append(chunk, res)
			rows = append(rows, copyRow(res))
		}

		if _, err := s.db.CopyFrom(ctx, pgx.Identifier{"resources"}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
			return created, core.NewStorageError("postgres: create many", err)
		}
		created = append(created, chunk...)
	}
	return created, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return core.NewStorageError("postgres: ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
