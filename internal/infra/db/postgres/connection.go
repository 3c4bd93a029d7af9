package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool connects a pgx pool with a bounded connection count.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(cctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS image_assets (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    source     TEXT NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    context    TEXT NOT NULL DEFAULT '',
    uri        TEXT NOT NULL,
    mime_type  TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS image_assets_session_idx ON image_assets (session_id, created_at);

CREATE TABLE IF NOT EXISTS video_assets (
    id         TEXT PRIMARY KEY,
    operation  TEXT NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    prompt     TEXT NOT NULL DEFAULT '',
    uri        TEXT NOT NULL,
    encoding   TEXT NOT NULL DEFAULT 'video/mp4',
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE (operation, uri)
);
CREATE INDEX IF NOT EXISTS video_assets_session_idx ON video_assets (session_id, created_at);
`

// EnsureSchema creates the asset tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
