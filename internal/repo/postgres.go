package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miradorstack/mirador-kb/internal/utils"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS kb_documents (
	project    TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	version    BIGINT      NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project, kind)
)`

const (
	selectDocumentSQL = `SELECT doc FROM kb_documents WHERE project = $1 AND kind = $2`
	upsertDocumentSQL = `
INSERT INTO kb_documents (project, kind, doc)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (project, kind) DO UPDATE
SET doc = EXCLUDED.doc, version = kb_documents.version + 1, updated_at = now()`
)

// querier is the subset of *pgxpool.Pool the backend uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores each collection as a JSONB row keyed by (project, kind).
// Every save bumps the row version.
type PostgresBackend struct {
	db    querier
	close func()
}

// NewPostgresBackend connects, pings and ensures the documents table exists.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	backend := &PostgresBackend{db: pool, close: pool.Close}
	if err := backend.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return backend, nil
}

// EnsureSchema creates the documents table when missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, documentsSchema); err != nil {
		return utils.StorageUnavailable("repo.PostgresBackend.EnsureSchema", err)
	}
	return nil
}

// Load fetches the document for (project, kind).
func (b *PostgresBackend) Load(ctx context.Context, project string, kind Kind) ([]byte, bool, error) {
	const op = "repo.PostgresBackend.Load"
	if err := validateProject(op, project); err != nil {
		return nil, false, err
	}
	var doc []byte
	err := b.db.QueryRow(ctx, selectDocumentSQL, project, string(kind)).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, utils.StorageUnavailable(op, err)
	}
	return doc, true, nil
}

// Save upserts the document for (project, kind).
func (b *PostgresBackend) Save(ctx context.Context, project string, kind Kind, data []byte) error {
	const op = "repo.PostgresBackend.Save"
	if err := validateProject(op, project); err != nil {
		return err
	}
	if _, err := b.db.Exec(ctx, upsertDocumentSQL, project, string(kind), data); err != nil {
		return utils.StorageUnavailable(op, err)
	}
	return nil
}

// Close releases the pool.
func (b *PostgresBackend) Close() error {
	if b.close != nil {
		b.close()
	}
	return nil
}
