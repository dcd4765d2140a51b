// Package linkstore persists the folder created for each table row, and
// the audit trail of table mutations, in Postgres so both survive restarts.
package linkstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetdocs/internal/core"
)

var _ core.FolderLinks = (*Postgres)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS folder_links (
	table_key  TEXT        NOT NULL,
	row_id     TEXT        NOT NULL,
	folder_id  TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (table_key, row_id)
)`

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// parse builds a pgxpool config from c.
func (c PoolConfig) parse() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse links database url: %w", err)
	}
	if c.MaxConns > 0 {
		poolConfig.MaxConns = int32(c.MaxConns)
	}
	if c.MinConns > 0 {
		poolConfig.MinConns = int32(c.MinConns)
	}
	if c.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	}
	return poolConfig, nil
}

// Postgres is a FolderLinks store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to the database, verifies the connection and creates the
// links table if needed.
func Open(ctx context.Context, cfg PoolConfig) (*Postgres, error) {
	poolConfig, err := cfg.parse()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect links database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping links database: %w", err)
	}

	p := New(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// New wraps an existing pool. The tables must already exist; see Migrate.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the links and audit tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create folder_links table: %w", err)
	}
	if _, err := p.pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit_log table: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping reports whether the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Get returns the folder id linked to a row.
func (p *Postgres) Get(ctx context.Context, table, id string) (string, bool, error) {
	var folderID string
	err := p.pool.QueryRow(ctx,
		`SELECT folder_id FROM folder_links WHERE table_key = $1 AND row_id = $2`,
		table, id,
	).Scan(&folderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get folder link %s/%s: %w", table, id, err)
	}
	return folderID, true, nil
}

// Put links a row to a folder id, replacing any previous link.
func (p *Postgres) Put(ctx context.Context, table, id, folderID string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO folder_links (table_key, row_id, folder_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (table_key, row_id)
		DO UPDATE SET folder_id = EXCLUDED.folder_id, updated_at = now()`,
		table, id, folderID,
	)
	if err != nil {
		return fmt.Errorf("put folder link %s/%s: %w", table, id, err)
	}
	return nil
}

// Remove deletes the link of a row. Removing a missing link is not an error.
func (p *Postgres) Remove(ctx context.Context, table, id string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM folder_links WHERE table_key = $1 AND row_id = $2`,
		table, id,
	)
	if err != nil {
		return fmt.Errorf("remove folder link %s/%s: %w", table, id, err)
	}
	return nil
}

// Count returns the number of links stored for a table.
func (p *Postgres) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM folder_links WHERE table_key = $1`, table,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count folder links for %s: %w", table, err)
	}
	return n, nil
}
