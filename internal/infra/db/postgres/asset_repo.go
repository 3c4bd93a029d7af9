package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/repository"
)

var _ repository.AssetRepository = (*assetRepo)(nil)

type assetRepo struct {
	pool *pgxpool.Pool
}

func NewAssetRepo(pool *pgxpool.Pool) *assetRepo {
	return &assetRepo{pool: pool}
}

func (r *assetRepo) SaveImage(ctx context.Context, img *model.ImageAsset) error {
	const q = `
INSERT INTO image_assets (id, name, source, session_id, context, uri, mime_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  context = EXCLUDED.context;`

	_, err := r.pool.Exec(ctx, q,
		img.ID, img.Name, string(img.Source), img.SessionID, img.Context,
		img.URI, img.MimeType, img.CreatedAt)
	return err
}

func (r *assetRepo) FindImage(ctx context.Context, id string) (*model.ImageAsset, error) {
	const q = `
SELECT id, name, source, session_id, context, uri, mime_type, created_at
FROM image_assets WHERE id = $1;`

	var img model.ImageAsset
	var source string
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&img.ID, &img.Name, &source, &img.SessionID, &img.Context,
		&img.URI, &img.MimeType, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	img.Source = model.ImageSource(source)
	return &img, nil
}

func (r *assetRepo) ListImages(ctx context.Context, sessionID string) ([]*model.ImageAsset, error) {
	// Session-scoped listings include global assets (empty session_id),
	// mirroring how brand images are shared across sessions.
	const q = `
SELECT id, name, source, session_id, context, uri, mime_type, created_at
FROM image_assets
WHERE ($1 = '' OR session_id = $1 OR session_id = '')
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ImageAsset
	for rows.Next() {
		var img model.ImageAsset
		var source string
		if err := rows.Scan(
			&img.ID, &img.Name, &source, &img.SessionID, &img.Context,
			&img.URI, &img.MimeType, &img.CreatedAt); err != nil {
			return nil, err
		}
		img.Source = model.ImageSource(source)
		out = append(out, &img)
	}
	return out, rows.Err()
}

func (r *assetRepo) DeleteImage(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM image_assets WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *assetRepo) SaveVideo(ctx context.Context, v *model.VideoAsset) error {
	const q = `
INSERT INTO video_assets (id, operation, session_id, prompt, uri, encoding, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := r.pool.Exec(ctx, q,
		v.ID, v.Operation, v.SessionID, v.Prompt, v.URI, v.Encoding, v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Same operation re-observed (e.g. after a reconnect); the
			// video is already recorded.
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *assetRepo) ListVideos(ctx context.Context, sessionID string) ([]*model.VideoAsset, error) {
	const q = `
SELECT id, operation, session_id, prompt, uri, encoding, created_at
FROM video_assets
WHERE ($1 = '' OR session_id = $1)
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.VideoAsset
	for rows.Next() {
		var v model.VideoAsset
		if err := rows.Scan(
			&v.ID, &v.Operation, &v.SessionID, &v.Prompt, &v.URI, &v.Encoding, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *assetRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	tag, err := r.pool.Exec(ctx, `DELETE FROM image_assets WHERE created_at < $1;`, cutoff)
	if err != nil {
		return total, err
	}
	total += tag.RowsAffected()
	tag, err = r.pool.Exec(ctx, `DELETE FROM video_assets WHERE created_at < $1;`, cutoff)
	if err != nil {
		return total, err
	}
	total += tag.RowsAffected()
	return total, nil
}
